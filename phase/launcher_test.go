package phase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/state"
)

func TestLaunchSucceedsOnZeroExit(t *testing.T) {
	l := phase.New(nil)
	err := l.Launch(context.Background(), "true", "s1", nil)
	require.NoError(t, err)
}

func TestLaunchFailsOnNonZeroExit(t *testing.T) {
	l := phase.New(nil)
	err := l.Launch(context.Background(), "false", "s1", nil)
	require.Error(t, err)
}

func TestLaunchAsyncDoesNotBlock(t *testing.T) {
	l := phase.New(nil)
	done := make(chan struct{})
	go func() {
		l.LaunchAsync(context.Background(), "true", "s1", []state.ResultPair{})
		close(done)
	}()
	<-done
}
