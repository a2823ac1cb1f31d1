//go:build !integration

package worker

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPool_SubmitAndRun(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(2, &logger)
	pool.Start(ctx)
	defer pool.Stop()

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		if err := pool.Submit(func(ctx context.Context) error {
			defer wg.Done()
			atomic.AddInt32(&ran, 1)
			return nil
		}); err != nil {
			wg.Done()
			t.Fatalf("submit: %v", err)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not drain in time")
	}
	if got := atomic.LoadInt32(&ran); got != 8 {
		t.Errorf("expected 8 tasks to run, got %d", got)
	}
}

func TestPool_RejectsNilTask(t *testing.T) {
	logger := zerolog.New(io.Discard)
	pool := NewPool(1, &logger)
	if err := pool.Submit(nil); err == nil {
		t.Error("expected an error for a nil task")
	}
}

func TestPool_RejectsWhenSaturated(t *testing.T) {
	logger := zerolog.New(io.Discard)
	pool := NewPool(1, &logger)
	// Not started: the queue fills and Submit must fail fast.
	blocked := func(ctx context.Context) error { return nil }
	var rejected bool
	for i := 0; i < 16; i++ {
		if err := pool.Submit(blocked); err != nil {
			rejected = true
			break
		}
	}
	if !rejected {
		t.Error("expected Submit to reject once the queue is full")
	}
}
