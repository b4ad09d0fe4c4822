// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "fmt"

// typeName gives a stable string for T, used to derive per-type executor
// registration names (e.g. for [CxBundle.AsRPC]).
func typeName[T any](zero T) string {
	return fmt.Sprintf("%T", zero)
}

// CxEvent names one of the three completion events a bundle can attach
// sinks to.
type CxEvent uint8

const (
	// SourceCx fires once the caller's local buffer is safe to reuse.
	SourceCx CxEvent = iota
	// OperationCx fires once the operation is observably complete from
	// the initiator's point of view.
	OperationCx
	// RemoteCx fires once the operation is observably complete from the
	// remote side's point of view (for RMA: the target's memory holds
	// the data; confirmed back to the initiator over an AM).
	RemoteCx
)

// CxSink is one attached reaction to an event firing with value v.
type CxSink[T any] func(v T)

// CxBundle is a compile-time-ish heterogeneous record of (event, sink)
// pairs. It is split at submission time into a here-state (source
// + operation sinks, fired locally) and a remote-state (remote sinks,
// fired once the far side's confirmation arrives) — see rma.go/rpc.go.
type CxBundle[T any] struct {
	source    []CxSink[T]
	operation []CxSink[T]
	remote    []CxSink[T]
}

// NewCxBundle returns an empty bundle. Callers chain On* calls to attach
// sinks before submitting the operation the bundle describes.
func NewCxBundle[T any]() *CxBundle[T] { return &CxBundle[T]{} }

func (b *CxBundle[T]) On(event CxEvent, sink CxSink[T]) *CxBundle[T] {
	switch event {
	case SourceCx:
		b.source = append(b.source, sink)
	case OperationCx:
		b.operation = append(b.operation, sink)
	default:
		b.remote = append(b.remote, sink)
	}
	return b
}

// AsFuture attaches a sink to event that fulfils a freshly created
// promise, returning the future half for the caller to observe. Go
// callers simply take the Future[T] this returns directly, since Go has
// no anonymous-tuple-of-futures type to bundle multiple AsFuture calls
// into.
func (b *CxBundle[T]) AsFuture(event CxEvent) Future[T] {
	pr := NewPromise[T](1)
	fut := pr.GetFuture()
	b.On(event, func(v T) { pr.FulfillResult(v) })
	return fut
}

// AsPromise attaches a sink to event that fulfils the caller-supplied
// promise.
func (b *CxBundle[T]) AsPromise(event CxEvent, pr *Promise[T]) *CxBundle[T] {
	return b.On(event, func(v T) { pr.FulfillResult(v) })
}

// AsLPC attaches a sink to event that enqueues fn(v) on persona p at user
// level.
func (b *CxBundle[T]) AsLPC(event CxEvent, p *Persona, stack *ActivationStack, fn func(T)) *CxBundle[T] {
	return b.On(event, func(v T) {
		p.Schedule(stack, LevelUser, &funcRecord{fn: func() { fn(v) }})
	})
}

// AsRPC attaches a RemoteCx-only sink that, on firing, sends an AM to
// (tm, rank) invoking fn with the sender's rank and the attached value.
// It applies only to RemoteCx.
func (b *CxBundle[T]) AsRPC(tr Transport, tm TeamHandle, rank Rank, fn func(from Rank, v T)) *CxBundle[T] {
	name := rpcSinkExecutorName[T]()
	id := registerExecutor(name, func(from Rank, body []byte) {
		var v T
		unmarshal(body, &v)
		fn(from, v)
	})
	return b.On(RemoteCx, func(v T) {
		tr.AMMaster(tm, rank, encodeCommand(id, v))
	})
}

// rpcSinkExecutorName derives a stable registration name from T's zero
// value's type name; distinct T instantiations of AsRPC must be called
// in the same order on every rank for executorID to line up (the same
// SPMD-identical-binary assumption registerExecutor already documents).
func rpcSinkExecutorName[T any]() string {
	var zero T
	return "cxbundle.AsRPC:" + typeName(zero)
}

// fireSource/fireOperation/fireRemote run every attached sink for their
// event, in attachment order.
func (b *CxBundle[T]) fireSource(v T) {
	for _, s := range b.source {
		s(v)
	}
}
func (b *CxBundle[T]) fireOperation(v T) {
	for _, s := range b.operation {
		s(v)
	}
}
func (b *CxBundle[T]) fireRemote(v T) {
	for _, s := range b.remote {
		s(v)
	}
}

// hasRemote reports whether firing RemoteCx matters for this bundle —
// submission protocol step 3 only increments the undischarged counter
// when it does.
func (b *CxBundle[T]) hasRemote() bool { return len(b.remote) > 0 }
