package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/state"
	"github.com/poking-agents/flock-public/store"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	doc := &state.AgentState{ID: "s1", TaskString: "solve it"}
	require.NoError(t, fs.Save(ctx, "s1", doc))

	loaded, err := fs.Load(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1", loaded.ID)
	require.Equal(t, "solve it", loaded.TaskString)
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	fs := store.NewFileStore(t.TempDir())
	_, err := fs.Load(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveTrimsOversizedOptionContent(t *testing.T) {
	fs := store.NewFileStore(t.TempDir())
	ctx := context.Background()

	big := strings.Repeat("a", 100_000) + "MIDDLE-MARKER" + strings.Repeat("b", 100_000)
	doc := &state.AgentState{
		ID:                       "s1",
		ContextTrimmingThreshold: 10_000,
		Nodes: []state.Node{
			{Source: state.SourceToolOutput, Options: []state.Option{{Content: big}}},
		},
	}
	require.NoError(t, fs.Save(ctx, "s1", doc))

	loaded, err := fs.Load(ctx, "s1")
	require.NoError(t, err)
	content := loaded.Nodes[0].Options[0].Content
	require.LessOrEqual(t, len(content), 10_000)
	require.True(t, strings.HasPrefix(content, strings.Repeat("a", 10)))
	require.True(t, strings.HasSuffix(content, strings.Repeat("b", 10)))
	require.Contains(t, content, "trimmed")
}

func TestTrimIsIdempotent(t *testing.T) {
	doc := &state.AgentState{
		Nodes: []state.Node{
			{Options: []state.Option{{Content: strings.Repeat("x", 50_000)}}},
		},
	}
	store.Trim(doc, 1_000)
	once := doc.Nodes[0].Options[0].Content
	store.Trim(doc, 1_000)
	require.Equal(t, once, doc.Nodes[0].Options[0].Content)
}

func TestTrimIsIdentityBelowCap(t *testing.T) {
	doc := &state.AgentState{
		Nodes: []state.Node{{Options: []state.Option{{Content: "short"}}}},
	}
	store.Trim(doc, 10_000)
	require.Equal(t, "short", doc.Nodes[0].Options[0].Content)
}

func TestTrimTrimsBashResultStdoutAndStderr(t *testing.T) {
	doc := &state.AgentState{
		PreviousResults: []state.ResultBatch{{
			ProducedByPhase: "tool",
			Pairs: []state.ResultPair{{
				Request: operations.BashRequest{},
				Result: operations.BashResult{
					Output: operations.BashOutput{
						Stdout: strings.Repeat("o", 50_000),
						Stderr: strings.Repeat("e", 50_000),
					},
				},
			}},
		}},
	}
	store.Trim(doc, 1_000)
	res := doc.PreviousResults[0].Pairs[0].Result.(operations.BashResult)
	require.LessOrEqual(t, len(res.Output.Stdout), 1_000)
	require.LessOrEqual(t, len(res.Output.Stderr), 1_000)
}

func TestSnapshotWritesFile(t *testing.T) {
	fs := store.NewFileStore(t.TempDir())
	ctx := context.Background()
	path, err := fs.Snapshot(ctx, "s1", &state.AgentState{ID: "s1"})
	require.NoError(t, err)
	require.FileExists(t, path)
}
