// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "sort"

// blockKind distinguishes a free hole from an allocated hunk in the
// segment's block list.
type blockKind uint8

const (
	blockHole blockKind = iota
	blockHunk
)

// block is one node of the segment's doubly-linked list of alternating
// hole/hunk ranges. Metadata lives out-of-band here (a separate Go
// struct) — there is no embedded header inside the byte range itself
// the way a C allocator might do it.
type block struct {
	begin, size uint64
	kind        blockKind
	prev, next  *block
}

// Allocator is a best-fit sub-allocator over a contiguous byte range
// [base, base+size). It is not internally locked; callers serialize
// access themselves — in this runtime, that's the master-persona-active
// invariant.
type Allocator struct {
	base, size uint64

	first *block // head of the begin-ordered block list

	// holes is kept sorted by (size, begin) for best-fit-with-first-fit
	// tiebreak: within equal-sized holes, prefer the lowest address.
	holes []*block
	// hunksByBegin gives O(1) dealloc lookup.
	hunksByBegin map[uint64]*block
}

// NewAllocator creates an allocator over [base, base+size), initially one
// single hole spanning the whole range.
func NewAllocator(base, size uint64) *Allocator {
	root := &block{begin: base, size: size, kind: blockHole}
	a := &Allocator{
		base:         base,
		size:         size,
		first:        root,
		hunksByBegin: make(map[uint64]*block),
	}
	a.insertHole(root)
	return a
}

// padSize rounds size up by fixed alignment thresholds (64, 4096) to
// limit fragmentation from many similarly-sized small allocations.
func padSize(size uint64) uint64 {
	if size == 0 {
		return 0
	}
	if size <= 4096 {
		return alignUp(size, 64)
	}
	return alignUp(size, 4096)
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// holeLess orders holes by (size, begin) ascending.
func holeLess(a, b *block) bool {
	if a.size != b.size {
		return a.size < b.size
	}
	return a.begin < b.begin
}

func (a *Allocator) insertHole(b *block) {
	i := sort.Search(len(a.holes), func(i int) bool { return !holeLess(a.holes[i], b) })
	a.holes = append(a.holes, nil)
	copy(a.holes[i+1:], a.holes[i:])
	a.holes[i] = b
}

func (a *Allocator) removeHole(b *block) {
	i := sort.Search(len(a.holes), func(i int) bool { return !holeLess(a.holes[i], b) })
	for i < len(a.holes) && a.holes[i] != b {
		i++
	}
	if i == len(a.holes) {
		return
	}
	a.holes = append(a.holes[:i], a.holes[i+1:]...)
}

// Alloc locates the smallest hole able to hold size bytes at the
// requested alignment and carves it out, splitting the hole's leading
// and trailing remainders back into the free list. Returns (0, false) on
// exhaustion — Alloc never panics and never returns a partial range.
func (a *Allocator) Alloc(size, align uint64) (addr uint64, ok bool) {
	if size == 0 {
		return 0, false
	}
	if align == 0 {
		align = 1
	}
	padded := padSize(size)

	for _, h := range a.holes {
		start := alignUp(h.begin, align)
		leadPad := start - h.begin
		if start+padded > h.begin+h.size {
			continue
		}
		a.carve(h, leadPad, padded)
		return start, true
	}
	return 0, false
}

// carve splits hole h into an optional leading fragment, an allocated
// hunk of `size` bytes starting at h.begin+leadPad, and an optional
// trailing fragment, applying the small-fragment fold heuristic: if the
// candidate fragment is <= 1/16 of its neighbour, fold it into the
// neighbouring hunk instead of keeping it as a separate hole.
func (a *Allocator) carve(h *block, leadPad, size uint64) {
	a.removeHole(h)

	before, after := h.prev, h.next // the list neighbours h used to have
	hunkBegin := h.begin + leadPad
	hunk := &block{begin: hunkBegin, size: size, kind: blockHunk}

	// leftNode is whatever block ends up immediately before hunk: either
	// `before` itself (folded or no lead fragment) or a freshly made lead
	// hole block.
	leftNode := before
	if leadPad > 0 {
		if before != nil && before.kind == blockHunk && leadPad <= before.size/16 {
			before.size += leadPad // fold into the preceding hunk
		} else {
			lead := &block{begin: h.begin, size: leadPad, kind: blockHole}
			lead.prev = before
			if before != nil {
				before.next = lead
			}
			a.insertHole(lead)
			leftNode = lead
		}
	}

	trailSize := h.size - leadPad - size
	rightNode := after
	if trailSize > 0 {
		trailBegin := hunkBegin + size
		if after != nil && after.kind == blockHunk && trailSize <= after.size/16 {
			after.size += trailSize
			after.begin = trailBegin
			rightNode = after
		} else {
			trail := &block{begin: trailBegin, size: trailSize, kind: blockHole}
			trail.next = after
			if after != nil {
				after.prev = trail
			}
			a.insertHole(trail)
			rightNode = trail
		}
	}

	hunk.prev, hunk.next = leftNode, rightNode
	if leftNode != nil {
		leftNode.next = hunk
	}
	if before == nil {
		// h used to be the head of the list; whatever now sits
		// left-most (a fresh lead hole, or hunk itself) is the new head.
		if leftNode != nil {
			a.first = leftNode
		} else {
			a.first = hunk
		}
	}
	if rightNode != nil {
		rightNode.prev = hunk
	}

	a.hunksByBegin[hunk.begin] = hunk
}

// Free releases the hunk beginning at addr, coalescing with adjacent
// holes on both sides if they are free. Freeing an address that is not
// a live hunk is a no-op
// reporting false — callers that mis-free are expected to have already
// been caught by a higher-level precondition assertion.
func (a *Allocator) Free(addr uint64) bool {
	hunk, ok := a.hunksByBegin[addr]
	if !ok {
		return false
	}
	delete(a.hunksByBegin, addr)

	merged := hunk
	merged.kind = blockHole

	if left := merged.prev; left != nil && left.kind == blockHole {
		a.removeHole(left)
		left.size += merged.size
		left.next = merged.next
		if merged.next != nil {
			merged.next.prev = left
		}
		merged = left
	} else if merged.prev == nil {
		a.first = merged
	}

	if right := merged.next; right != nil && right.kind == blockHole {
		a.removeHole(right)
		merged.size += right.size
		merged.next = right.next
		if right.next != nil {
			right.next.prev = merged
		}
	}

	a.insertHole(merged)
	return true
}

// Stats reports the allocator's current free/used byte totals, computed
// by walking the block list.
type AllocStats struct {
	Free, Used uint64
}

func (a *Allocator) Stats() AllocStats {
	var s AllocStats
	for b := a.first; b != nil; b = b.next {
		if b.kind == blockHole {
			s.Free += b.size
		} else {
			s.Used += b.size
		}
	}
	return s
}
