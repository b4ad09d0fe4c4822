// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// reduceUserContribMsg is the wire body a non-coordinating member sends
// to the rank accumulating a user-combine reduction: id is the
// correlation digest every member derives identically from
// Team.nextCollectiveID, Contrib is this rank's marshaled value, and
// ReturnTo is the dormant address the coordinator scatters the combined
// result back to — zero if this member doesn't need the result back
// (ReduceToOneUser's non-root members).
type reduceUserContribMsg struct {
	ID       Digest
	Contrib  []byte
	ReturnTo DormantAddr
}

// reduceUserScatterMsg carries the finished combine result back to one
// waiting member.
type reduceUserScatterMsg struct {
	ReturnTo DormantAddr
	Result   []byte
}

// reduceUserScatterTarget records one member awaiting the combined
// result: its dormant address, and the rank to send the scatter AM to
// once the gather completes (self included — an AM addressed to one's
// own rank round-trips through the same dispatch path as any other).
type reduceUserScatterTarget struct {
	rank Rank
	addr DormantAddr
}

// reduceUserState accumulates one correlation id's contributions as they
// arrive, in whatever order the AMs happen to be delivered — the entry
// is created lazily by whichever contribution (local or remote) touches
// it first, so no participant needs to "go first."
type reduceUserState struct {
	acc     []byte
	got     int
	want    int
	targets []reduceUserScatterTarget
}

var (
	reduceUserGuard atomix.Bool
	reduceUserTable = make(map[Digest]*reduceUserState)
)

func reduceUserLock() {
	sw := spin.Wait{}
	for !reduceUserGuard.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}
func reduceUserUnlock() { reduceUserGuard.StoreRelease(false) }

// reduceUserScatterID is the single, type-agnostic executor that
// delivers a finished combine result to a waiting dormant; unlike the
// gather executor (registered per call site, since it must close over a
// type-specific combine function), this one only ever moves bytes.
var reduceUserScatterID = registerExecutor("pgas.team.reduceUserScatter", func(_ Rank, body []byte) {
	var msg reduceUserScatterMsg
	unmarshal(body, &msg)
	FireDormant(msg.ReturnTo, msg.Result)
})

// reduceUserMerge folds contrib into id's running accumulator (combine
// on every call past the first), records target as a recipient of the
// eventual result unless target.addr is the zero sentinel, and reports
// the combined result once every expected contribution (want of them)
// has arrived.
func reduceUserMerge(id Digest, want int, contrib []byte, combine func(a, b []byte) []byte, target reduceUserScatterTarget) (result []byte, targets []reduceUserScatterTarget, done bool) {
	reduceUserLock()
	defer reduceUserUnlock()

	st, ok := reduceUserTable[id]
	if !ok {
		st = &reduceUserState{acc: contrib, got: 1, want: want}
		reduceUserTable[id] = st
	} else {
		st.acc = combine(st.acc, contrib)
		st.got++
	}
	if target.addr != 0 {
		st.targets = append(st.targets, target)
	}
	if st.got == st.want {
		result, targets, done = st.acc, st.targets, true
		delete(reduceUserTable, id)
	}
	return
}

// reduceUserFinish delivers result to every recorded target by AM. A
// target naming this same rank still round-trips through
// reduceUserScatterID rather than firing its dormant directly — one
// code path for every target, local or not.
func reduceUserFinish(tr Transport, tm TeamHandle, result []byte, targets []reduceUserScatterTarget) {
	for _, target := range targets {
		tr.AMMaster(tm, target.rank, encodeCommand(reduceUserScatterID, reduceUserScatterMsg{ReturnTo: target.addr, Result: result}))
	}
}

// byteCombine lifts a typed combine function to the untyped shape
// reduceUserMerge's shared accumulator needs, since the accumulator
// itself is type-erased (one process-wide map cannot hold a Go generic
// type parameter as part of its key or value).
func byteCombineOf[T any](combine func(a, b T) T) func(a, b []byte) []byte {
	return func(a, b []byte) []byte {
		var av, bv T
		unmarshal(a, &av)
		unmarshal(b, &bv)
		return marshal(combine(av, bv))
	}
}

// ReduceToOneUser reduces v across every member of tm using a
// caller-supplied combine function rather than one of the built-in
// op-ids, delivering the result only on root. name identifies this call
// site's wire executor and must be identical (and distinct from any
// other RPC/reduce-user name) on every rank, exactly as [RPC]'s name
// parameter does. combine must be associative; contributions combine in
// AM-arrival order, not team-rank order.
//
// Non-root members get back an immediately-ready future holding T's zero
// value — mirroring [ReduceToOne]'s own non-root future, whose value is
// likewise unspecified.
func ReduceToOneUser[T any](p *Persona, tm *Team, root Rank, name string, v T, combine func(a, b T) T) Future[T] {
	byteCombine := byteCombineOf(combine)
	id := tm.nextCollectiveID()

	gatherID := registerExecutor(name, func(from Rank, body []byte) {
		var msg reduceUserContribMsg
		unmarshal(body, &msg)
		result, targets, done := reduceUserMerge(msg.ID, tm.Size(), msg.Contrib, byteCombine, reduceUserScatterTarget{rank: from, addr: msg.ReturnTo})
		if done {
			reduceUserFinish(tm.tr, tm.handle, result, targets)
		}
	})

	contrib := marshal(v)
	if tm.Rank() == root {
		pr := NewPromise[T](1)
		fut := pr.GetFuture()
		addr := NewDormantForFunc(p, func(result T) { pr.FulfillResult(result) })
		result, targets, done := reduceUserMerge(id, tm.Size(), contrib, byteCombine, reduceUserScatterTarget{rank: root, addr: addr})
		if done {
			reduceUserFinish(tm.tr, tm.handle, result, targets)
		}
		return fut
	}

	tm.tr.AMMaster(tm.handle, root, encodeCommand(gatherID, reduceUserContribMsg{ID: id, Contrib: contrib}))
	pr := NewPromise[T](1)
	var zero T
	pr.FulfillResult(zero)
	return pr.GetFuture()
}

// reduceUserAllCoordinator is the fixed team-relative rank ReduceToAllUser
// gathers contributions to before scattering the combined result back
// out to every member.
const reduceUserAllCoordinator Rank = 0

// ReduceToAllUser is [ReduceToOneUser]'s all-to-all counterpart: every
// member, including the coordinator, gets the combined result back.
func ReduceToAllUser[T any](p *Persona, tm *Team, name string, v T, combine func(a, b T) T) Future[T] {
	byteCombine := byteCombineOf(combine)
	id := tm.nextCollectiveID()

	gatherID := registerExecutor(name, func(from Rank, body []byte) {
		var msg reduceUserContribMsg
		unmarshal(body, &msg)
		result, targets, done := reduceUserMerge(msg.ID, tm.Size(), msg.Contrib, byteCombine, reduceUserScatterTarget{rank: from, addr: msg.ReturnTo})
		if done {
			reduceUserFinish(tm.tr, tm.handle, result, targets)
		}
	})

	contrib := marshal(v)
	pr := NewPromise[T](1)
	fut := pr.GetFuture()
	addr := NewDormantForFunc(p, func(result T) { pr.FulfillResult(result) })

	if tm.Rank() == reduceUserAllCoordinator {
		result, targets, done := reduceUserMerge(id, tm.Size(), contrib, byteCombine, reduceUserScatterTarget{rank: reduceUserAllCoordinator, addr: addr})
		if done {
			reduceUserFinish(tm.tr, tm.handle, result, targets)
		}
		return fut
	}

	tm.tr.AMMaster(tm.handle, reduceUserAllCoordinator, encodeCommand(gatherID, reduceUserContribMsg{ID: id, Contrib: contrib, ReturnTo: addr}))
	return fut
}
