package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Tiktoken wraps tiktoken for OpenAI-family models.
type Tiktoken struct {
	model    string
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// modelEncodings maps model names to their tiktoken encoding.
var modelEncodings = map[string]string{
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-3.5-turbo": "cl100k_base",
}

// NewTiktoken creates a tiktoken-backed tokenizer for the given model.
// Versioned names resolve through the longest matching prefix, so
// "gpt-4o-2024-11-20" gets gpt-4o's encoding, not gpt-4's. Unknown models
// fall back to cl100k_base.
func NewTiktoken(model string) *Tiktoken {
	encoding, ok := modelEncodings[model]
	if !ok {
		bestLen := 0
		for prefix, e := range modelEncodings {
			if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
				encoding, bestLen = e, len(prefix)
				ok = true
			}
		}
	}
	if !ok {
		encoding = "cl100k_base"
	}

	return &Tiktoken{
		model:    model,
		encoding: encoding,
	}
}

// init lazily initializes the tiktoken encoding (may download vocabulary
// data on first use).
func (t *Tiktoken) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *Tiktoken) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) Encode(text string) ([]int, error) {
	if err := t.init(); err != nil {
		return nil, err
	}
	return t.enc.Encode(text, nil, nil), nil
}

func (t *Tiktoken) Decode(tokens []int) (string, error) {
	if err := t.init(); err != nil {
		return "", err
	}
	return t.enc.Decode(tokens), nil
}

func (t *Tiktoken) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// RegisterOpenAITokenizers registers tokenizers for all known OpenAI models.
func RegisterOpenAITokenizers() {
	for model := range modelEncodings {
		Register(model, NewTiktoken(model))
	}
}
