package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/runlog"
	"github.com/poking-agents/flock-public/runlog/inmem"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()

	e1 := &runlog.Event{StateID: "s1", Message: "first"}
	e2 := &runlog.Event{StateID: "s1", Message: "second"}
	require.NoError(t, s.Append(ctx, e1))
	require.NoError(t, s.Append(ctx, e2))

	require.Equal(t, "1", e1.ID)
	require.Equal(t, "2", e2.ID)
}

func TestListPaginatesInOrder(t *testing.T) {
	s := inmem.New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, &runlog.Event{StateID: "s1", Message: "m"}))
	}

	page, err := s.List(ctx, "s1", "", 2)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := s.List(ctx, "s1", page.NextCursor, 10)
	require.NoError(t, err)
	require.Len(t, rest.Events, 3)
	require.Empty(t, rest.NextCursor)
}

func TestListUnknownStateReturnsEmptyPage(t *testing.T) {
	s := inmem.New()
	page, err := s.List(context.Background(), "nope", "", 10)
	require.NoError(t, err)
	require.Empty(t, page.Events)
}

func TestAppendRejectsMissingStateID(t *testing.T) {
	s := inmem.New()
	err := s.Append(context.Background(), &runlog.Event{Message: "m"})
	require.Error(t, err)
}
