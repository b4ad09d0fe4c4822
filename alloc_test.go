// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "testing"

func TestAllocatorAllocFreeRoundTrip(t *testing.T) {
	a := NewAllocator(0, 1<<20)
	p1, ok := a.Alloc(128, 8)
	if !ok {
		t.Fatal("first alloc failed")
	}
	if !a.Free(p1) {
		t.Fatal("free of live hunk failed")
	}
	p2, ok := a.Alloc(128, 8)
	if !ok {
		t.Fatal("second alloc failed")
	}
	if p1 != p2 {
		t.Fatalf("expected same region back after free, got %d then %d", p1, p2)
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	a := NewAllocator(0, 256)
	if _, ok := a.Alloc(1<<40, 8); ok {
		t.Fatal("expected allocation larger than segment to fail")
	}
	stats := a.Stats()
	if stats.Used != 0 || stats.Free != 256 {
		t.Fatalf("unexpected stats after failed alloc: %+v", stats)
	}
}

func TestAllocatorNoPartialAllocation(t *testing.T) {
	a := NewAllocator(0, 1024)
	// drain the segment with many small allocations
	var ptrs []uint64
	for {
		p, ok := a.Alloc(64, 8)
		if !ok {
			break
		}
		ptrs = append(ptrs, p)
	}
	if len(ptrs) == 0 {
		t.Fatal("expected at least one successful allocation")
	}
	// every further allocation must fail cleanly, not partially
	if _, ok := a.Alloc(64, 8); ok {
		t.Fatal("expected exhaustion, allocator still had room")
	}
}

func TestAllocatorCoalescesAdjacentFrees(t *testing.T) {
	a := NewAllocator(0, 4096)
	p1, _ := a.Alloc(256, 8)
	p2, _ := a.Alloc(256, 8)
	p3, _ := a.Alloc(256, 8)
	a.Free(p1)
	a.Free(p2)
	a.Free(p3)

	// after freeing three adjacent hunks, the whole range should be one
	// hole again and a single allocation spanning all three should
	// succeed at p1.
	p4, ok := a.Alloc(700, 8)
	if !ok {
		t.Fatal("expected coalesced hole to satisfy a larger allocation")
	}
	if p4 != p1 {
		t.Fatalf("expected coalesced hole to start at %d, got %d", p1, p4)
	}
}

func TestAllocatorBestFitPrefersLowestAddressOnTie(t *testing.T) {
	a := NewAllocator(0, 4096)
	p1, _ := a.Alloc(64, 8)
	_, _ = a.Alloc(64, 8) // keep p1's and p2's holes apart so they stay two equal-sized holes
	p2, _ := a.Alloc(64, 8)
	_, _ = a.Alloc(64, 8) // keep p2's hole apart from the trailing free space
	a.Free(p2)
	a.Free(p1)

	got, ok := a.Alloc(64, 8)
	if !ok {
		t.Fatal("alloc failed")
	}
	if got != p1 {
		t.Fatalf("expected best-fit to prefer lowest address %d, got %d", p1, got)
	}
}

func TestAllocatorAlignment(t *testing.T) {
	a := NewAllocator(0, 1<<16)
	_, _ = a.Alloc(3, 1) // padSize rounds this up to 64 bytes
	p, ok := a.Alloc(64, 64)
	if !ok {
		t.Fatal("aligned alloc failed")
	}
	if p%64 != 0 {
		t.Fatalf("expected 64-byte aligned address, got %d", p)
	}
}

func TestAllocatorFreeUnknownAddrIsNoop(t *testing.T) {
	a := NewAllocator(0, 1024)
	if a.Free(12345) {
		t.Fatal("expected Free of unknown address to report false")
	}
}
