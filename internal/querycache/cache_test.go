package querycache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

func TestReadRequiresCredential(t *testing.T) {
	c := New()
	key := NewKey("detections", nil, "")

	_, err := c.Read(context.Background(), key, func(ctx context.Context) (any, error) {
		t.Fatal("fetch must not run without a credential")
		return nil, nil
	})
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("err = %v, want ErrNoCredential", err)
	}
}

func TestReadCachesPerKey(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := NewKey("cases", nil, "tok")

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "v1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Read(ctx, key, fetch)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if v != "v1" {
			t.Errorf("v = %v", v)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestChangedKeyNeverServesOtherKeysData(t *testing.T) {
	c := New()
	ctx := context.Background()

	fetchVal := func(v string) func(ctx context.Context) (any, error) {
		return func(ctx context.Context) (any, error) { return v, nil }
	}

	p1 := url.Values{"kind": {"brute_force"}}
	p2 := url.Values{"kind": {"geo_rare"}}

	v, _ := c.Read(ctx, NewKey("detections", p1, "tok"), fetchVal("bf"))
	if v != "bf" {
		t.Fatalf("v = %v", v)
	}

	// Different filters, different credential, different resource:
	// each must fetch its own data.
	v, _ = c.Read(ctx, NewKey("detections", p2, "tok"), fetchVal("geo"))
	if v != "geo" {
		t.Errorf("different params served %v", v)
	}
	v, _ = c.Read(ctx, NewKey("detections", p1, "tok2"), fetchVal("other-user"))
	if v != "other-user" {
		t.Errorf("different credential served %v", v)
	}
	v, _ = c.Read(ctx, NewKey("cases", p1, "tok"), fetchVal("cases"))
	if v != "cases" {
		t.Errorf("different resource served %v", v)
	}
}

func TestParamOrderDoesNotSplitKeys(t *testing.T) {
	a := url.Values{}
	a.Set("kind", "brute_force")
	a.Set("limit", "50")
	b := url.Values{}
	b.Set("limit", "50")
	b.Set("kind", "brute_force")

	if NewKey("detections", a, "t") != NewKey("detections", b, "t") {
		t.Error("equal filter sets must produce equal keys")
	}
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c := New()
	key := NewKey("metrics", nil, "tok")

	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const readers = 16
	var wg sync.WaitGroup
	results := make([]any, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Read(context.Background(), key, fetch)
			if err != nil {
				t.Errorf("reader %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}

	// Let the goroutines pile onto the in-flight fetch, then release.
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("remote calls = %d, want 1", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("reader %d got %v", i, v)
		}
	}
}

func TestMutateInvalidatesMatchingResource(t *testing.T) {
	c := New()
	ctx := context.Background()

	listKey := NewKey("cases", nil, "tok")
	detailKey := NewKey("cases", url.Values{"id": {"5"}}, "tok")
	otherKey := NewKey("blocks", nil, "tok")

	version := int32(1)
	fetch := func(ctx context.Context) (any, error) {
		return atomic.LoadInt32(&version), nil
	}

	for _, k := range []Key{listKey, detailKey, otherKey} {
		if _, err := c.Read(ctx, k, fetch); err != nil {
			t.Fatalf("prime %v: %v", k.Resource, err)
		}
	}

	err := c.Mutate(ctx, func(ctx context.Context) error {
		atomic.StoreInt32(&version, 2)
		return nil
	}, "cases")
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	// Reads issued after the acknowledged write observe the new state
	// for every key of the mutated resource.
	for _, k := range []Key{listKey, detailKey} {
		v, err := c.Read(ctx, k, fetch)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if v != int32(2) {
			t.Errorf("%v params=%q: v = %v, want 2 (stale after mutation)", k.Resource, k.Params, v)
		}
	}

	// Unrelated resources keep their cached value.
	v, _ := c.Read(ctx, otherKey, fetch)
	if v != int32(1) {
		t.Errorf("blocks: v = %v, want cached 1", v)
	}
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := NewKey("cases", nil, "tok")

	var calls int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "before", nil
	}

	if _, err := c.Read(ctx, key, fetch); err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("server rejected")
	err := c.Mutate(ctx, func(ctx context.Context) error { return wantErr }, "cases")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Mutate err = %v", err)
	}

	v, err := c.Read(ctx, key, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if v != "before" {
		t.Errorf("v = %v, want cached value", v)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("fetches = %d, want 1 (failed mutation must not invalidate)", n)
	}
}

func TestFetchFailureIsNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := NewKey("events", nil, "tok")

	var calls int32
	boom := errors.New("boom")
	if _, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("v=%v err=%v", v, err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("calls = %d, want 2 (errors are not cached)", n)
	}
}

func TestLateReaderDoesNotJoinPreMutationFetch(t *testing.T) {
	c := New()
	key := NewKey("cases", nil, "tok")

	inFetch := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	// Slow fetch started before the mutation.
	go func() {
		defer close(done)
		c.Read(context.Background(), key, func(ctx context.Context) (any, error) {
			close(inFetch)
			<-release
			return "pre-mutation", nil
		})
	}()

	<-inFetch
	if err := c.Mutate(context.Background(), func(ctx context.Context) error { return nil }, "cases"); err != nil {
		t.Fatal(err)
	}

	// A read issued strictly after the acknowledged mutation must not
	// share the older in-flight call.
	got := make(chan any, 1)
	go func() {
		v, err := c.Read(context.Background(), key, func(ctx context.Context) (any, error) {
			return "post-mutation", nil
		})
		if err != nil {
			t.Errorf("late read: %v", err)
		}
		got <- v
	}()

	if v := <-got; v != "post-mutation" {
		t.Errorf("late reader got %v, want post-mutation", v)
	}

	close(release)
	<-done
}

func TestFetchTypedHelper(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := NewKey("detections", nil, "tok")

	v, err := Fetch(ctx, c, key, func(ctx context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("v = %v", v)
	}
}
