package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// anthropicEncoding is the BPE selected for anthropic-family hints. Anthropic
// does not publish a tiktoken-compatible encoding, so cl100k_base — the
// encoding shared by recent OpenAI chat models — stands in as the nearest
// available approximation (spec §4.I only requires the hint to select
// *some* consistent encoding, not provider-exact counts).
const anthropicEncoding = "cl100k_base"

// defaultEncoding is selected for any hint that isn't anthropic-family.
const defaultEncoding = "o200k_base"

// Default is the stock Tokenizer implementation; flockd places one in every
// handler Deps bundle (spec §4.I "default implementation").
type Default struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

// NewDefault constructs a Default tokenizer.
func NewDefault() *Default {
	return &Default{cache: make(map[string]*tiktoken.Tiktoken)}
}

// Compile-time assertion that Default satisfies Tokenizer.
var _ Tokenizer = (*Default)(nil)

// CountTokens implements Tokenizer. encodingHint is matched case-insensitive
// against "anthropic" as a substring — any model name or family label that
// contains it selects anthropicEncoding, everything else selects
// defaultEncoding.
func (d *Default) CountTokens(text, encodingHint string) (int, error) {
	name := defaultEncoding
	if strings.Contains(strings.ToLower(encodingHint), "anthropic") {
		name = anthropicEncoding
	}

	enc, err := d.encoding(name)
	if err != nil {
		return 0, fmt.Errorf("tokenizer: load encoding %s: %w", name, err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (d *Default) encoding(name string) (*tiktoken.Tiktoken, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if enc, ok := d.cache[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	d.cache[name] = enc
	return enc, nil
}
