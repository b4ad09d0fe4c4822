// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "unsafe"

// NewNoThrow allocates space for one T out of rt.Heap, constructs it by
// copying v's bytes into the freshly carved range (a loopback put to
// this rank's own segment — [Allocator] only tracks address ranges, not
// backing storage, so writing the initial value still goes through the
// transport like any other store into shared memory), and returns the
// resulting [GlobalPtr]. Reports a genuine [AllocError] on shared-heap
// exhaustion instead of panicking, for callers prepared to catch and
// report it.
func NewNoThrow[T any](rt *Runtime, v T) (GlobalPtr, error) {
	var zero T
	size, align := uint64(unsafe.Sizeof(zero)), uint64(unsafe.Alignof(zero))
	addr, ok := rt.Heap.Alloc(size, align)
	if !ok {
		return NilGlobalPtr, &AllocError{
			Rank: rt.RankMe(), Where: "New", NBytes: size,
			Reason: "no hole large enough remains in the shared heap",
		}
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&v)), size)
	rt.Transport.RMAPutBlocking(rt.World.Handle(), rt.RankMe(), addr, buf, size)
	return newGlobalPtr(rt.RankMe(), addr), nil
}

// New is [NewNoThrow]'s panicking counterpart: exhaustion is fatal,
// matching upc++'s default new_ behavior (the nothrow spelling is the
// exception, not the rule).
func New[T any](rt *Runtime, v T) GlobalPtr {
	g, err := NewNoThrow(rt, v)
	if err != nil {
		fatal(rt.RankMe(), err.Error())
	}
	return g
}

// NewArrayNoThrow allocates space for n contiguous Ts out of rt.Heap and
// copies each of vs (which must have length n) into the freshly carved
// range, returning a [GlobalPtr] to the first element. With a nil vs
// nothing is written: the range keeps whatever bytes the segment already
// held.
func NewArrayNoThrow[T any](rt *Runtime, n uint64, vs []T) (GlobalPtr, error) {
	var zero T
	elemSize, align := uint64(unsafe.Sizeof(zero)), uint64(unsafe.Alignof(zero))
	total := elemSize * n
	addr, ok := rt.Heap.Alloc(total, align)
	if !ok {
		return NilGlobalPtr, &AllocError{
			Rank: rt.RankMe(), Where: "NewArray", NBytes: total,
			Reason: "no hole large enough remains in the shared heap",
		}
	}
	if vs != nil {
		assertf(rt.RankMe(), uint64(len(vs)) == n, "pgas: NewArray given %d initializers for an array of %d", len(vs), n)
		buf := make([]byte, total)
		for i := range vs {
			elem := unsafe.Slice((*byte)(unsafe.Pointer(&vs[i])), elemSize)
			copy(buf[uint64(i)*elemSize:], elem)
		}
		rt.Transport.RMAPutBlocking(rt.World.Handle(), rt.RankMe(), addr, buf, total)
	}
	return newGlobalPtr(rt.RankMe(), addr), nil
}

// NewArray is [NewArrayNoThrow]'s panicking counterpart.
func NewArray[T any](rt *Runtime, n uint64, vs []T) GlobalPtr {
	g, err := NewArrayNoThrow(rt, n, vs)
	if err != nil {
		fatal(rt.RankMe(), err.Error())
	}
	return g
}
