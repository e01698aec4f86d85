package cache

import (
	"errors"
	"testing"
	"time"
)

func TestNewLRU_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewLRU[string, int](capacity); err == nil {
			t.Errorf("capacity %d: expected error, got nil", capacity)
		}
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[string, int](3)
	if err != nil {
		t.Fatal(err)
	}

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// touching a makes b the eviction candidate
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}

	c.Set("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be present", key)
		}
	}
}

func TestLRU_UpdateDoesNotGrow(t *testing.T) {
	c, _ := NewLRU[string, int](2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if got := c.Len(); got != 2 {
		t.Fatalf("len = %d, want 2", got)
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("a = %d, want 10", v)
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c, _ := NewLRU[string, int](10)

	c.SetWithTTL("short", 1, time.Nanosecond)
	c.Set("forever", 2)

	time.Sleep(time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry should be evicted on read")
	}
	if got := c.Len(); got != 1 {
		t.Errorf("len = %d, want 1 after lazy eviction", got)
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry without TTL should never expire")
	}
}

func TestLRU_Delete(t *testing.T) {
	c, _ := NewLRU[string, int](2)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Error("delete of existing key should report true")
	}
	if c.Delete("a") {
		t.Error("delete of missing key should report false")
	}
}

func TestLRU_GetOrCompute(t *testing.T) {
	c, _ := NewLRU[string, int](2)

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", 0, compute)
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	wantErr := errors.New("boom")
	_, err := c.GetOrCompute("bad", 0, func() (int, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed compute must not cache")
	}
}

func TestLRU_Stats(t *testing.T) {
	c, _ := NewLRU[string, int](2)
	c.Set("a", 1)

	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = (%d, %d), want (1, 1)", hits, misses)
	}
}
