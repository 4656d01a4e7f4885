package jsonl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/runlog"
	"github.com/poking-agents/flock-public/runlog/jsonl"
)

func TestAppendThenListRoundTrip(t *testing.T) {
	s := jsonl.New(t.TempDir())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, &runlog.Event{StateID: "s1", Message: "line"}))
	}

	page, err := s.List(ctx, "s1", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 3)
	require.Empty(t, page.NextCursor)
}

func TestAppendPreservesAttributes(t *testing.T) {
	s := jsonl.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, &runlog.Event{
		StateID:    "s1",
		Message:    "styled",
		Attributes: map[string]any{"background_color": "red", "title": "alert"},
	}))

	page, err := s.List(ctx, "s1", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.Equal(t, "red", page.Events[0].Attributes["background_color"])
}

func TestListMissingStateReturnsEmptyPage(t *testing.T) {
	s := jsonl.New(t.TempDir())
	page, err := s.List(context.Background(), "missing", "", 10)
	require.NoError(t, err)
	require.Empty(t, page.Events)
}
