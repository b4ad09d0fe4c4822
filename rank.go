// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// Rank is an SPMD process index in [0, RankN()).
type Rank int32

// DeviceKind distinguishes the memory kind a GlobalPtr addresses.
// Non-host device memory kinds (GPU allocations) are deliberately out
// of scope and represented only as an opaque discriminant here; the
// core never dereferences a non-Host pointer itself.
type DeviceKind uint8

const (
	// DeviceHost is ordinary host-addressable shared-segment memory.
	DeviceHost DeviceKind = iota
	// DeviceRemote is any non-host device kind reachable only through
	// the transport's device-memory collaborator (out of scope here).
	DeviceRemote
)

// nullAddr is the sentinel raw address representing a null GlobalPtr.
const nullAddr = ^uint64(0)

// GlobalPtr is a cross-rank pointer: (owning rank, device kind, device
// id, raw address). Arithmetic is defined on the raw address within a
// single allocation; GlobalPtr itself does not validate that the result
// still lies within the allocation (callers must not walk off the end).
type GlobalPtr struct {
	rank     Rank
	device   DeviceKind
	deviceID uint32
	addr     uint64
}

// NilGlobalPtr is the null GlobalPtr: no rank, no device, sentinel
// address.
var NilGlobalPtr = GlobalPtr{addr: nullAddr}

func newGlobalPtr(rank Rank, addr uint64) GlobalPtr {
	return GlobalPtr{rank: rank, device: DeviceHost, addr: addr}
}

// IsNull reports whether g is the null pointer.
func (g GlobalPtr) IsNull() bool { return g.addr == nullAddr }

// Rank returns the owning rank of g. Meaningless on a null pointer.
func (g GlobalPtr) Rank() Rank { return g.rank }

// Device returns the device kind g addresses.
func (g GlobalPtr) Device() DeviceKind { return g.device }

// Add returns a GlobalPtr offset by n*elemSize bytes within the same
// allocation. It is the caller's responsibility to stay within the
// bounds of the segment g was allocated from.
func (g GlobalPtr) Add(n int64, elemSize uint64) GlobalPtr {
	if g.IsNull() {
		return g
	}
	out := g
	out.addr = uint64(int64(g.addr) + n*int64(elemSize))
	return out
}

// IsLocal reports whether g is local to the calling rank's process: its
// owning rank is a member of the local team, so its segment is directly
// addressable through that peer's local_minus_remote offset.
func (g GlobalPtr) IsLocal(lt *LocalTeam) bool {
	if g.IsNull() {
		return false
	}
	return lt.Contains(g.rank)
}

// LocalTeam tracks which ranks share this process's shared-memory node
// and the per-peer address-translation offset used to localise a
// GlobalPtr owned by one of them.
type LocalTeam struct {
	members map[Rank]int64 // rank -> local_minus_remote offset
}

// NewLocalTeam builds a LocalTeam from a rank->offset map, typically
// populated from the transport's shared_segment()/offset-array query at
// Init time.
func NewLocalTeam(offsets map[Rank]int64) *LocalTeam {
	lt := &LocalTeam{members: make(map[Rank]int64, len(offsets))}
	for r, off := range offsets {
		lt.members[r] = off
	}
	return lt
}

// Contains reports whether r is a member of the local team.
func (lt *LocalTeam) Contains(r Rank) bool {
	_, ok := lt.members[r]
	return ok
}

// Localize translates g's raw address into this process's virtual
// address space, returning the raw uintptr-equivalent offset and true
// iff g is local. Calling Localize on a non-local pointer is a
// precondition violation at call sites, not here: this function is pure
// and merely reports ok=false.
func (lt *LocalTeam) Localize(g GlobalPtr) (addr uint64, ok bool) {
	off, present := lt.members[g.rank]
	if !present || g.IsNull() {
		return 0, false
	}
	return uint64(int64(g.addr) + off), true
}
