package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitWaitRunsTask(t *testing.T) {
	p := New(2, 0)
	defer p.Close()

	var ran atomic.Bool
	err := p.SubmitWait(context.Background(), func() error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestSubmitWaitPropagatesError(t *testing.T) {
	p := New(1, 0)
	defer p.Close()

	want := errors.New("task failed")
	err := p.SubmitWait(context.Background(), func() error { return want })
	assert.ErrorIs(t, err, want)
}

func TestSubmitWaitRecoversPanic(t *testing.T) {
	p := New(1, 0)
	defer p.Close()

	err := p.SubmitWait(context.Background(), func() error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The worker survives the panic.
	assert.NoError(t, p.SubmitWait(context.Background(), func() error { return nil }))
}

func TestSubmitWaitContextCancelledWhileQueued(t *testing.T) {
	p := New(1, 1)
	defer p.Close()

	block := make(chan struct{})
	var wg sync.WaitGroup
	// Occupy the single worker and fill the queue.
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.SubmitWait(context.Background(), func() error {
				<-block
				return nil
			})
		}()
	}
	// Give the occupying tasks time to be picked up and queued.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.SubmitWait(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	wg.Wait()
}

func TestSubmitWaitAfterClose(t *testing.T) {
	p := New(1, 0)
	p.Close()

	err := p.SubmitWait(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestCloseIdempotentAndWaits(t *testing.T) {
	p := New(2, 0)

	var done atomic.Int64
	for i := 0; i < 10; i++ {
		go p.SubmitWait(context.Background(), func() error {
			time.Sleep(5 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}
	time.Sleep(20 * time.Millisecond)

	p.Close()
	p.Close() // second close is a no-op

	finished := done.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, finished, done.Load(), "no work may run after Close returns")
}

func TestStats(t *testing.T) {
	p := New(2, 0)
	defer p.Close()

	for i := 0; i < 5; i++ {
		p.SubmitWait(context.Background(), func() error { return nil })
	}
	p.SubmitWait(context.Background(), func() error { return errors.New("x") })

	stats := p.Stats()
	assert.Equal(t, int64(6), stats.Submitted)
	assert.Equal(t, int64(5), stats.Completed)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, 0, stats.Queued)
}

func TestConcurrentSubmitters(t *testing.T) {
	p := New(4, 0)
	defer p.Close()

	var sum atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.SubmitWait(context.Background(), func() error {
				sum.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), sum.Load())
}
