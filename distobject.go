// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// DistObject is a per-rank instance registered under a shared identity.
// Every rank that constructs a DistObject with the same id can later
// [Fetch] any other rank's value by id.
type DistObject[T any] struct {
	id    Digest
	team  *Team
	value T
}

var (
	distObjGuard    atomix.Bool
	distObjRegistry = make(map[Digest]any) // Digest -> *DistObject[T], type-erased
	distObjWaiters  = make(map[Digest][]func(any))
)

func distObjLock() {
	sw := spin.Wait{}
	for !distObjGuard.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}
func distObjUnlock() { distObjGuard.StoreRelease(false) }

// NewDistObject registers (id -> this) and, if a remote [WhenHere] call
// raced ahead of the constructor, fulfils its waiting promise-of-self.
func NewDistObject[T any](team *Team, id Digest, value T) *DistObject[T] {
	do := &DistObject[T]{id: id, team: team, value: value}

	distObjLock()
	distObjRegistry[id] = do
	waiters := distObjWaiters[id]
	delete(distObjWaiters, id)
	distObjUnlock()

	for _, w := range waiters {
		w(do)
	}
	return do
}

// Destroy removes do from the local registry. Pending [WhenHere] waiters
// for its id are left in place.
func (do *DistObject[T]) Destroy() {
	distObjLock()
	delete(distObjRegistry, do.id)
	distObjUnlock()
}

// Value returns this rank's locally held value.
func (do *DistObject[T]) Value() T { return do.value }

// WhenHere returns a future of the local DistObject registered under id,
// resolving immediately if it already exists, or once a matching
// [NewDistObject] call runs locally.
func WhenHere[T any](id Digest) Future[*DistObject[T]] {
	pr := NewPromise[*DistObject[T]](1)
	fut := pr.GetFuture()

	distObjLock()
	if existing, ok := distObjRegistry[id]; ok {
		distObjUnlock()
		pr.FulfillResult(existing.(*DistObject[T]))
		return fut
	}
	distObjWaiters[id] = append(distObjWaiters[id], func(v any) {
		pr.FulfillResult(v.(*DistObject[T]))
	})
	distObjUnlock()
	return fut
}

// Fetch is sugar for an RPC that returns the value held at rank. name
// must be unique per DistObject[T] call site and identical on every
// rank, exactly as [RPC] requires of its own name parameter.
//
// The callee looks do.id up in its local registry synchronously; it
// requires the object to already be registered on the target rank (a
// fatal precondition violation otherwise) — see DESIGN.md for why a
// blocking-on-registration variant was not used instead.
func (do *DistObject[T]) Fetch(tr Transport, p *Persona, rank Rank, name string) Future[T] {
	cx := NewCxBundle[T]()
	fut := cx.AsFuture(OperationCx)
	RPC(tr, p, do.team.handle, rank, name, func(_ Rank, _ struct{}) T {
		distObjLock()
		obj, ok := distObjRegistry[do.id]
		distObjUnlock()
		assertf(0, ok, "pgas: DistObject.Fetch: id %s not registered on target rank", do.id.String())
		return obj.(*DistObject[T]).value
	}, struct{}{}, cx)
	return fut
}
