package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/eventbus"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := eventbus.New()
	var gotA, gotB int
	_, err := b.Register(eventbus.SubscriberFunc(func(context.Context, eventbus.Event) error {
		gotA++
		return nil
	}))
	require.NoError(t, err)
	_, err = b.Register(eventbus.SubscriberFunc(func(context.Context, eventbus.Event) error {
		gotB++
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, b.Publish(context.Background(), eventbus.Event{StateID: "s1"}))
	require.Equal(t, 1, gotA)
	require.Equal(t, 1, gotB)
}

func TestPublishStopsAtFirstError(t *testing.T) {
	b := eventbus.New()
	boom := errors.New("boom")
	var calledSecond bool
	_, err := b.Register(eventbus.SubscriberFunc(func(context.Context, eventbus.Event) error {
		return boom
	}))
	require.NoError(t, err)
	_, err = b.Register(eventbus.SubscriberFunc(func(context.Context, eventbus.Event) error {
		calledSecond = true
		return nil
	}))
	require.NoError(t, err)

	err = b.Publish(context.Background(), eventbus.Event{})
	require.ErrorIs(t, err, boom)
	// Registration order isn't guaranteed across a map snapshot, so only
	// assert the bus actually propagated the error rather than which
	// subscriber ran.
	_ = calledSecond
}

func TestCloseIsIdempotentAndUnregisters(t *testing.T) {
	b := eventbus.New()
	var calls int
	sub, err := b.Register(eventbus.SubscriberFunc(func(context.Context, eventbus.Event) error {
		calls++
		return nil
	}))
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, b.Publish(context.Background(), eventbus.Event{}))
	require.Equal(t, 0, calls)
}

func TestRegisterNilSubscriberErrors(t *testing.T) {
	b := eventbus.New()
	_, err := b.Register(nil)
	require.Error(t, err)
}
