package common

import (
	"sort"
	"testing"
)

func TestHexToHashRoundTrip(t *testing.T) {
	want := "0x0000000000000000000000000000000000000000000000000000000000000001"
	h := HexToHash(want)
	if h.Hex() != want {
		t.Errorf("got %s, want %s", h.Hex(), want)
	}
}

func TestBytesToHashPadsShortInput(t *testing.T) {
	h := BytesToHash([]byte{0xAB})
	if h[HashLength-1] != 0xAB {
		t.Errorf("expected last byte 0xAB, got %x", h[HashLength-1])
	}
	for i := 0; i < HashLength-1; i++ {
		if h[i] != 0 {
			t.Fatalf("expected left-padding with zero bytes, byte %d was %x", i, h[i])
		}
	}
}

func TestHashCmpAndLessOrEqual(t *testing.T) {
	low := BytesToHash([]byte{0x01})
	high := BytesToHash([]byte{0x02})
	if !low.LessOrEqual(high) {
		t.Error("expected low <= high")
	}
	if high.LessOrEqual(low) {
		t.Error("expected high > low")
	}
	if !low.LessOrEqual(low) {
		t.Error("expected a hash to be <= itself")
	}
}

func TestIsZero(t *testing.T) {
	if !(Hash{}).IsZero() {
		t.Error("expected zero-value Hash to report IsZero")
	}
	if BytesToHash([]byte{1}).IsZero() {
		t.Error("expected non-zero Hash to report !IsZero")
	}
}

func TestAddressListSortsAscending(t *testing.T) {
	addrs := AddressList{
		HexToAddress("0x0000000000000000000000000000000000000002"),
		HexToAddress("0x0000000000000000000000000000000000000001"),
	}
	sort.Sort(addrs)
	if addrs[0] != HexToAddress("0x0000000000000000000000000000000000000001") {
		t.Error("expected AddressList to sort ascending")
	}
}
