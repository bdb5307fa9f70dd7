package tokenizer

import (
	"context"

	"github.com/browserpilot/browserpilot/internal/pool"
)

// Counter counts tokens for a text span. Both Tokenizer and AsyncCounter
// satisfy it, so callers can swap the blocking and offloaded paths.
type Counter interface {
	Count(ctx context.Context, text string) (int, error)
}

// Blocking adapts a Tokenizer to the Counter interface; counting runs on
// the caller's goroutine.
type Blocking struct {
	Tokenizer Tokenizer
}

func (b Blocking) Count(_ context.Context, text string) (int, error) {
	return b.Tokenizer.CountTokens(text)
}

// AsyncCounter offloads token counting to a bounded worker pool so that
// CPU-bound tokenization of large text does not stall the caller's
// scheduling. Results are identical to the blocking path.
type AsyncCounter struct {
	tok  Tokenizer
	pool *pool.WorkerPool
}

// NewAsyncCounter creates a counter backed by the given number of workers.
func NewAsyncCounter(tok Tokenizer, workers int) *AsyncCounter {
	return &AsyncCounter{
		tok:  tok,
		pool: pool.New(workers, 0),
	}
}

// Count submits the counting work to the pool and waits for the result.
// Submitted work always runs to completion even if ctx is cancelled while
// waiting.
func (a *AsyncCounter) Count(ctx context.Context, text string) (int, error) {
	var n int
	err := a.pool.SubmitWait(ctx, func() error {
		var err error
		n, err = a.tok.CountTokens(text)
		return err
	})
	return n, err
}

// Close releases the worker pool.
func (a *AsyncCounter) Close() {
	a.pool.Close()
}
