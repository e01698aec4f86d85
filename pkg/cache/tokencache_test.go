package cache

import "testing"

func TestTokenCache_Memoizes(t *testing.T) {
	calls := 0
	tc, err := NewTokenCache(16, func(text string) int {
		calls++
		return len(text)
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if n := tc.Count("hello world"); n != 11 {
			t.Fatalf("count = %d, want 11", n)
		}
	}
	if calls != 1 {
		t.Errorf("counter ran %d times, want 1", calls)
	}

	// identical content, regardless of who asks, shares the entry
	tc.Count("hello world")
	hits, _ := tc.Stats()
	if hits < 3 {
		t.Errorf("hits = %d, want >= 3", hits)
	}
}

func TestHashContents_OrderIndependent(t *testing.T) {
	a := HashContents([]string{"one", "two", "three"})
	b := HashContents([]string{"three", "one", "two"})
	if a != b {
		t.Error("same content set must hash identically regardless of order")
	}

	c := HashContents([]string{"one", "two"})
	if a == c {
		t.Error("different content sets should not collide")
	}
}

func TestTokenCache_CountAll(t *testing.T) {
	tc, _ := NewTokenCache(16, func(text string) int { return len(text) })

	got := tc.CountAll([]string{"ab", "cde"})
	if got != 5 {
		t.Errorf("total = %d, want 5", got)
	}
}
