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

func TestPool_SubmitRunsTasks(t *testing.T) {
	p := New(Config{MaxWorkers: 3, QueueSize: 8})
	defer p.Close()

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.Equal(t, int64(20), ran.Load())
	stats := p.Stats()
	assert.Equal(t, int64(20), stats.Submitted)
	assert.LessOrEqual(t, stats.Workers, 3)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New(Config{MaxWorkers: 2, QueueSize: 32})
	defer p.Close()

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return nil
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestPool_SubmitWaitReturnsTaskError(t *testing.T) {
	p := New(Config{MaxWorkers: 1, QueueSize: 1})
	defer p.Close()

	wantErr := errors.New("probe failed")
	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	err = p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Completed)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := New(Config{MaxWorkers: 1, QueueSize: 1})
	p.Close()

	err := p.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_RecoversPanics(t *testing.T) {
	var recovered atomic.Value
	p := New(Config{MaxWorkers: 1, QueueSize: 1, PanicHandler: func(v any) {
		recovered.Store(v)
	}})
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, "boom", recovered.Load())
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	p := New(Config{MaxWorkers: 1, QueueSize: 1})
	defer p.Close()

	block := make(chan struct{})
	var wg sync.WaitGroup
	// One running task plus one queued task saturate the pool.
	for i := 0; i < 2; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) error {
			defer wg.Done()
			<-block
			return nil
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	wg.Wait()
}
