package common

import "testing"

func TestHashCacheAddAndContains(t *testing.T) {
	c := NewHashCache(4)
	h := HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")

	if c.Contains(h) {
		t.Error("expected a fresh cache not to contain anything")
	}
	c.Add(h)
	if !c.Contains(h) {
		t.Error("expected the cache to contain a hash just added")
	}
}

func TestHashCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewHashCache(2)
	h1 := HexToHash("0x0000000000000000000000000000000000000000000000000000000000000001")
	h2 := HexToHash("0x0000000000000000000000000000000000000000000000000000000000000002")
	h3 := HexToHash("0x0000000000000000000000000000000000000000000000000000000000000003")

	c.Add(h1)
	c.Add(h2)
	c.Add(h3) // capacity 2: evicts h1

	if c.Contains(h1) {
		t.Error("expected the least recently used hash to be evicted")
	}
	if !c.Contains(h2) || !c.Contains(h3) {
		t.Error("expected the two most recently added hashes to remain")
	}
}

func TestNewHashCachePanicsOnNonPositiveSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a non-positive size to panic")
		}
	}()
	NewHashCache(0)
}
