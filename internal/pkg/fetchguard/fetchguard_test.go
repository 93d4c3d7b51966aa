package fetchguard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGuard_ConcurrentCallersShareOneFetch(t *testing.T) {
	var g Guard[string]
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	fetch := func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "value", nil
	}

	results := make([]string, 3)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = g.Do(context.Background(), "u1", fetch)
	}()
	<-started

	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.Do(context.Background(), "u1", fetch)
		}(i)
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
	for i, r := range results {
		if r != "value" {
			t.Errorf("caller %d got %q", i, r)
		}
	}
	if g.State("u1") != Loaded {
		t.Errorf("expected loaded state, got %s", g.State("u1"))
	}
}

func TestGuard_LoadedValueIsReused(t *testing.T) {
	var g Guard[int]
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := g.Do(context.Background(), "k", fetch)
		if err != nil || v != 42 {
			t.Fatalf("unexpected result %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if v, ok := g.Peek("k"); !ok || v != 42 {
		t.Fatalf("peek: %d %v", v, ok)
	}
}

func TestGuard_FailureIsRetried(t *testing.T) {
	var g Guard[int]
	boom := errors.New("boom")
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := g.Do(context.Background(), "k", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if g.State("k") != Failed {
		t.Fatalf("expected failed state, got %s", g.State("k"))
	}
	v, err := g.Do(context.Background(), "k", fetch)
	if err != nil || v != 7 {
		t.Fatalf("retry: %d %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGuard_ForgetForcesRefetch(t *testing.T) {
	var g Guard[int]
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	_, _ = g.Do(context.Background(), "k", fetch)
	g.Forget("k")
	if g.State("k") != Idle {
		t.Fatalf("expected idle after forget")
	}
	v, _ := g.Do(context.Background(), "k", fetch)
	if v != 2 {
		t.Fatalf("expected refetched value 2, got %d", v)
	}
}

func TestGuard_ForgetDuringFlightDiscardsResult(t *testing.T) {
	var g Guard[int]
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)

	go func() {
		v, _ := g.Do(context.Background(), "k", func(context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()
	<-started
	g.Forget("k")
	close(release)

	if v := <-done; v != 1 {
		t.Fatalf("waiter should still receive the in-flight result, got %d", v)
	}
	if _, ok := g.Peek("k"); ok {
		t.Fatalf("result of a forgotten flight must not be stored")
	}
}

func TestGuard_CallerCancellationDoesNotFailOthers(t *testing.T) {
	var g Guard[int]
	release := make(chan struct{})
	started := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 5, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, "k", fetch)
		errc <- err
	}()
	<-started
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	v, err := g.Do(context.Background(), "k", fetch)
	if err != nil || v != 5 {
		t.Fatalf("expected 5 from detached flight, got %d %v", v, err)
	}
}
