package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/tokenizer"
)

func TestCountTokensNonEmptyText(t *testing.T) {
	tk := tokenizer.NewDefault()
	n, err := tk.CountTokens("hello world", "claude-3-5-sonnet")
	require.NoError(t, err)
	require.Greater(t, n, 0)
}

func TestCountTokensEmptyTextIsZero(t *testing.T) {
	tk := tokenizer.NewDefault()
	n, err := tk.CountTokens("", "anthropic-family")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestCountTokensEncodingSelectionIsCaseInsensitive(t *testing.T) {
	tk := tokenizer.NewDefault()
	a, err := tk.CountTokens("some sample text", "Anthropic-Claude")
	require.NoError(t, err)
	b, err := tk.CountTokens("some sample text", "gpt-4o")
	require.NoError(t, err)
	require.Greater(t, a, 0)
	require.Greater(t, b, 0)
}
