package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestBoundedPoolCapsConcurrency(t *testing.T) {
	pool := NewBoundedPool(2)
	var running int32
	var maxObserved int32
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		go func() {
			_ = pool.Run(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					cur := atomic.LoadInt32(&maxObserved)
					if n <= cur || atomic.CompareAndSwapInt32(&maxObserved, cur, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	if maxObserved > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, observed %d", maxObserved)
	}
}

func TestBoundedPoolRespectsCancellation(t *testing.T) {
	pool := NewBoundedPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Run(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestUnboundedPoolRecoversPanic(t *testing.T) {
	pool := NewUnboundedPool()
	err := pool.Run(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}

func TestUnboundedPoolReturnsFnError(t *testing.T) {
	pool := NewUnboundedPool()
	want := errors.New("fn failed")
	err := pool.Run(context.Background(), func(ctx context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
