package tokenizer

import (
	"fmt"
	"strings"
	"sync"
)

// Tokenizer measures and transforms text in model tokens.
type Tokenizer interface {
	// CountTokens returns the number of tokens in the given text.
	CountTokens(text string) (int, error)

	// Encode converts text into a list of token IDs.
	Encode(text string) ([]int, error)

	// Decode converts token IDs back into text. Implementations must
	// guarantee that Decode(Encode(s)) == s so that callers can trim
	// trailing tokens and reconstruct a valid prefix.
	Decode(tokens []int) (string, error)

	// Name returns the tokenizer's name.
	Name() string
}

// Global tokenizer registry keyed by model name.
var (
	modelTokenizers   = make(map[string]Tokenizer)
	modelTokenizersMu sync.RWMutex
)

// Register registers a tokenizer for the given model name.
func Register(model string, t Tokenizer) {
	modelTokenizersMu.Lock()
	defer modelTokenizersMu.Unlock()
	modelTokenizers[model] = t
}

// ForModel returns the tokenizer registered for the given model. Prefix
// matches are accepted (e.g. "gpt-4o" matches "gpt-4o-2024-11-20"); when
// several prefixes match, the longest one wins, so "gpt-4o-..." resolves
// to "gpt-4o" rather than "gpt-4".
func ForModel(model string) (Tokenizer, error) {
	modelTokenizersMu.RLock()
	defer modelTokenizersMu.RUnlock()

	if t, ok := modelTokenizers[model]; ok {
		return t, nil
	}

	var (
		best    Tokenizer
		bestLen int
	)
	for prefix, t := range modelTokenizers {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best, bestLen = t, len(prefix)
		}
	}
	if best != nil {
		return best, nil
	}

	return nil, fmt.Errorf("no tokenizer registered for model: %s", model)
}

// ForModelOrEstimator returns the registered tokenizer for the model,
// falling back to the generic estimator when none is registered.
func ForModelOrEstimator(model string) Tokenizer {
	t, err := ForModel(model)
	if err != nil {
		return NewEstimator(model)
	}
	return t
}
