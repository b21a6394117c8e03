package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCachesWithinWindow(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }

	var calls atomic.Int32
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("v"), nil
	}

	ctx := context.Background()
	for range 3 {
		if _, err := c.Get(ctx, "s1 /stock/", ListTTL, fetch); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 fetch within window, got %d", calls.Load())
	}

	now = now.Add(ListTTL)
	if _, err := c.Get(ctx, "s1 /stock/", ListTTL, fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected refetch after window, got %d fetches", calls.Load())
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New()
	var calls atomic.Int32
	boom := errors.New("boom")
	fetch := func(context.Context) ([]byte, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return []byte("ok"), nil
	}

	if _, err := c.Get(context.Background(), "k", ListTTL, fetch); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	data, err := c.Get(context.Background(), "k", ListTTL, fetch)
	if err != nil || string(data) != "ok" {
		t.Fatalf("expected ok after failure, got %q %v", data, err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 fetches, got %d", calls.Load())
	}
}

func TestConcurrentFetchesAreCoalesced(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), "k", ListTTL, fetch); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected 1 coalesced fetch, got %d", calls.Load())
	}
}

func TestInvalidatePrefix(t *testing.T) {
	c := New()
	ctx := context.Background()
	val := func(s string) FetchFunc {
		return func(context.Context) ([]byte, error) { return []byte(s), nil }
	}

	c.Get(ctx, Key("s1", "/stock/", "page=1"), ListTTL, val("a"))
	c.Get(ctx, Key("s1", "/stock/7/", ""), ListTTL, val("b"))
	c.Get(ctx, Key("s1", "/transfers/", ""), ListTTL, val("c"))
	c.Get(ctx, Key("s2", "/stock/", "page=1"), ListTTL, val("d"))

	c.InvalidatePrefix(Key("s1", "/stock/", ""))
	if c.Len() != 2 {
		t.Errorf("expected 2 entries after invalidation, got %d", c.Len())
	}

	c.Purge("s2")
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after purge, got %d", c.Len())
	}
}

func TestInvalidationDuringFetchIsNotStored(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) ([]byte, error) {
		close(started)
		<-release
		return []byte("stale"), nil
	}

	done := make(chan []byte)
	go func() {
		data, _ := c.Get(context.Background(), "s1 /stock/", ListTTL, stale)
		done <- data
	}()

	<-started
	c.InvalidatePrefix("s1 /stock/")

	fresh := func(context.Context) ([]byte, error) { return []byte("fresh"), nil }
	data, err := c.Get(context.Background(), "s1 /stock/", ListTTL, fresh)
	if err != nil || string(data) != "fresh" {
		t.Fatalf("expected a new fetch after invalidation, got %q %v", data, err)
	}

	close(release)
	if got := <-done; string(got) != "stale" {
		t.Errorf("expected the original caller to get its own result, got %q", got)
	}

	data, _ = c.Get(context.Background(), "s1 /stock/", ListTTL, stale)
	if string(data) != "fresh" {
		t.Errorf("expected cached fresh value, got %q", data)
	}
}

func TestCallerCancellation(t *testing.T) {
	c := New()
	release := make(chan struct{})
	defer close(release)
	fetch := func(context.Context) ([]byte, error) {
		<-release
		return []byte("v"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "k", ListTTL, fetch); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	c := New()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Get(context.Background(), "a", time.Second, func(context.Context) ([]byte, error) { return []byte("1"), nil })
	c.Get(context.Background(), "b", time.Hour, func(context.Context) ([]byte, error) { return []byte("2"), nil })

	now = now.Add(time.Minute)
	c.Sweep()
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after sweep, got %d", c.Len())
	}
}
