// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"

	"code.hybscloud.com/atomix"
)

// Team wraps a transport team handle with a monotonic per-team
// collective-id counter: each team maintains its own counter to derive
// sub-ids for nested collectives, so that messages from parallel
// collectives cannot collide in the registry.
type Team struct {
	id          Digest
	handle      TeamHandle
	tr          Transport
	collCounter atomix.Uint64
}

// NewWorldTeam wraps the transport's job-wide team with the root
// collective-id digest.
func NewWorldTeam(tr Transport) *Team {
	return &Team{id: ZeroDigest, handle: tr.WorldTeam(), tr: tr}
}

// Handle returns t's transport-level team handle, for passing directly
// to the package-level RMA/RPC functions that take a TeamHandle.
func (t *Team) Handle() TeamHandle { return t.handle }

// Rank returns the calling process's rank within t.
func (t *Team) Rank() Rank { return t.handle.RankOf() }

// Size returns t's member count.
func (t *Team) Size() int { return t.handle.SizeOf() }

// nextCollectiveID derives this collective invocation's sub-id so
// concurrent collectives on the same team can't collide in any
// registry keyed by it.
func (t *Team) nextCollectiveID() Digest {
	n := t.collCounter.AddAcqRel(1)
	return t.id.Eat(n, 0)
}

// Split is collective over t: every member calls it with its own
// (color, key); members sharing a color form one child team, and the
// result id is parent.nextCollectiveID().Eat(color, 0). Must be called
// with the master persona active on the caller.
func (t *Team) Split(p *Persona, stack *ActivationStack, color, key int) *Team {
	assertf(0, p.IsMaster() && p.ActiveWithCaller(stack), "pgas: Team.Split requires the master persona active on the calling goroutine")
	childHandle := t.tr.SplitTeam(t.handle, color, key)
	childID := t.nextCollectiveID().Eat(uint64(color), 0)
	return &Team{id: childID, handle: childHandle, tr: t.tr}
}

// BarrierAsync submits a non-blocking team barrier, returning a future
// signalled when the transport's handle completes.
func (t *Team) BarrierAsync(p *Persona) Future[struct{}] {
	pr := NewPromise[struct{}](1)
	fut := pr.GetFuture()
	h := t.tr.CollBarrierNB(t.handle)
	submitHCB(p, h, func() { pr.FulfillResult(struct{}{}) }, false)
	return fut
}

// Barrier blocks the calling goroutine (driving p's progress) until
// every team member has reached this call.
func (t *Team) Barrier(ctx context.Context, p *Persona, stack *ActivationStack) error {
	_, err := t.BarrierAsync(p).Wait(ctx, p, stack)
	return err
}

// Broadcast is collective: root's v is delivered to every member,
// returned as the future's value on every rank including root.
// Implemented as two sequential transport broadcasts — a length header,
// then the payload — since an arbitrary Go T has no compile-time-
// computable wire size; this collapses a trivial-byte-size vs.
// AM-fan-out distinction into one uniform path (see DESIGN.md).
func Broadcast[T any](p *Persona, tm *Team, root, myRank Rank, v T) Future[T] {
	pr := NewPromise[T](1)
	fut := pr.GetFuture()

	var lenBuf [8]byte
	var payload []byte
	if myRank == root {
		payload = marshal(v)
		putUint64(lenBuf[:], uint64(len(payload)))
	}
	h1 := tm.tr.CollBroadcastNB(tm.handle, root, lenBuf[:])
	submitHCB(p, h1, func() {
		n := getUint64(lenBuf[:])
		if myRank != root {
			payload = make([]byte, n)
		}
		h2 := tm.tr.CollBroadcastNB(tm.handle, root, payload)
		submitHCB(p, h2, func() {
			out := v
			if myRank != root {
				unmarshal(payload, &out)
			}
			pr.FulfillResult(out)
		}, false)
	}, false)
	return fut
}

// Numeric constrains the types [ReduceToOne]/[ReduceToAll] operate on —
// the transport's built-in reduce op-ids are only defined over
// signed/unsigned 32- and 64-bit integers and float/double.
type Numeric interface {
	~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// ReduceToOne reduces src across every team member using op, delivering
// the result only on root.
func ReduceToOne[T Numeric](p *Persona, tm *Team, root Rank, src T, dt DataType, op ReduceOp) Future[T] {
	pr := NewPromise[T](1)
	fut := pr.GetFuture()
	srcBuf := numericBytes(src)
	dstBuf := make([]byte, len(srcBuf))
	h := tm.tr.CollReduceToOneNB(tm.handle, root, dstBuf, srcBuf, dt, op)
	submitHCB(p, h, func() {
		pr.FulfillResult(bytesToNumeric[T](dstBuf))
	}, false)
	return fut
}

// ReduceToAll reduces src across every team member, delivering the
// result to every rank.
func ReduceToAll[T Numeric](p *Persona, tm *Team, src T, dt DataType, op ReduceOp) Future[T] {
	pr := NewPromise[T](1)
	fut := pr.GetFuture()
	srcBuf := numericBytes(src)
	dstBuf := make([]byte, len(srcBuf))
	h := tm.tr.CollReduceToAllNB(tm.handle, dstBuf, srcBuf, dt, op)
	submitHCB(p, h, func() {
		pr.FulfillResult(bytesToNumeric[T](dstBuf))
	}, false)
	return fut
}
