// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// headerKind distinguishes the four future-header shapes. Go's type
// system can express each shape as its own struct, but callers deal only
// in the opaque [Future] value — the kind is recorded on each header for
// bookkeeping; no code branches on it.
type headerKind uint8

const (
	headerResult headerKind = iota
	headerPromise
	headerDependent
	headerNil
)

// neverFreed is the ref-count sentinel that retain and release skip:
// a header whose ref count is -1 is never freed. No header constructor
// in this file sets it.
const neverFreed = -1

// header is the shared backing object of every Future[T]/Promise[T].
// A spinlock (guard) — the same CAS-retry-with-backoff idiom component C
// uses for its overflow paths — protects the continuation list and the
// proxy link; the status word and ref count are independently atomic so
// the hot paths (IsReady, Retain, Release) never touch the lock.
type header[T any] struct {
	kind  headerKind
	refN  atomix.Int64
	ready atomix.Bool

	value T

	guard  atomix.Bool
	conts  []func(T)
	proxy  *header[T] // non-nil while kind == headerDependent and proxying

	countdown atomix.Int64 // promise headers only
	finalized atomix.Bool  // promise headers only
}

func newHeader[T any](kind headerKind) *header[T] {
	h := &header[T]{kind: kind}
	h.refN.StoreRelaxed(1)
	return h
}

func (h *header[T]) lock() {
	sw := spin.Wait{}
	for !h.guard.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}

func (h *header[T]) unlock() { h.guard.StoreRelease(false) }

func (h *header[T]) retain() {
	if h.refN.LoadRelaxed() == neverFreed {
		return
	}
	h.refN.AddAcqRel(1)
}

func (h *header[T]) release() {
	if h.refN.LoadRelaxed() == neverFreed {
		return
	}
	if h.refN.AddAcqRel(-1) == 0 {
		var zero T
		h.value = zero
	}
}

// complete publishes v as h's result and fires every attached
// continuation. Proxy chains are compressed by [compressProxy] when a
// proxy is set up, not here.
func (h *header[T]) complete(v T) {
	h.lock()
	h.value = v
	conts := h.conts
	h.conts = nil
	h.unlock()
	h.ready.StoreRelease(true)
	for _, c := range conts {
		c(v)
	}
}

// onReady runs fn(value) now if h is already ready, else attaches it to
// run when complete() fires. A dependent header's countdown reaching
// zero walks its successor list this way, triggering each one in turn.
func (h *header[T]) onReady(fn func(T)) {
	h.lock()
	if h.ready.LoadAcquire() {
		h.unlock()
		fn(h.value)
		return
	}
	h.conts = append(h.conts, fn)
	h.unlock()
}

// Future is a read handle on a value that becomes available at most
// once. The zero value is not usable; obtain one from [Promise.GetFuture]
// or a combinator such as [Then].
type Future[T any] struct {
	h *header[T]
}

// AlwaysReady returns a future already holding v, backed by a fresh
// ref-counted result header. Every trivially-ready value gets its
// own lightweight header rather than sharing one process-wide singleton
// per T, which Go's type system can't express without reflection.
func AlwaysReady[T any](v T) Future[T] {
	h := newHeader[T](headerResult)
	h.value = v
	h.ready.StoreRelease(true)
	return Future[T]{h: h}
}

// IsReady reports whether f's value has already been published. A
// static "trivially ready" classification for already-published futures
// degenerates to this dynamic check here since Go futures are built
// uniformly, without a separate compile-time-ready specialization.
func (f Future[T]) IsReady() bool {
	return f.h != nil && f.h.ready.LoadAcquire()
}

// Wait blocks the calling goroutine, driving persona p's progress engine
// until f is ready, then returns its value. ctx is an additive
// Go-idiom safety valve: the underlying UPC++-style operation has no
// cancellation, but a caller that wants one can back out via ctx.Err()
// without changing f's own completion.
func (f Future[T]) Wait(ctx context.Context, p *Persona, stack *ActivationStack) (T, error) {
	var zero T
	if f.h == nil {
		return zero, ErrWouldBlock
	}
	for !f.h.ready.LoadAcquire() {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		p.progress(stack, LevelUser)
	}
	return f.h.value, nil
}

// Then attaches fn to run, on persona p at user level, once f is ready,
// lifting fn's return into the returned future.
func Then[T, U any](f Future[T], p *Persona, stack *ActivationStack, fn func(T) U) Future[U] {
	out := newHeader[U](headerDependent)
	fut := Future[U]{h: out}
	f.h.onReady(func(v T) {
		p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
			out.complete(fn(v))
		}})
	})
	return fut
}

// ThenFuture is Then's future-returning shape: fn itself produces a
// future, and the dependent proxies it rather than wrapping it a second
// time.
func ThenFuture[T, U any](f Future[T], p *Persona, stack *ActivationStack, fn func(T) Future[U]) Future[U] {
	out := newHeader[U](headerDependent)
	fut := Future[U]{h: out}
	f.h.onReady(func(v T) {
		p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
			inner := fn(v)
			compressProxy(out, inner.h)
		}})
	})
	return fut
}

// ThenPure attaches fn to run inline, on whichever goroutine observes f
// ready (the caller's, if f is already ready; otherwise whatever
// goroutine eventually calls f's completing complete()) — unlike [Then],
// it never schedules onto a persona's LPC queue. fn runs once, as soon
// as f is ready; its evaluation is not deferred until the result is
// read. fn must be a pure, persona-agnostic transform of the value, not
// code that touches persona or transport state, since it may run
// outside any activation.
func ThenPure[T, U any](f Future[T], fn func(T) U) Future[U] {
	out := newHeader[U](headerDependent)
	fut := Future[U]{h: out}
	f.h.onReady(func(v T) {
		out.complete(fn(v))
	})
	return fut
}

// compressProxy rewires dependent `out` to complete when `target`
// completes. If target is itself proxying, out is pointed directly at
// target's ultimate target instead of chaining through it.
func compressProxy[T any](out, target *header[T]) {
	target.lock()
	real := target
	for real.proxy != nil {
		real = real.proxy
	}
	target.unlock()
	out.lock()
	out.proxy = real
	out.unlock()
	real.onReady(func(v T) {
		out.complete(v)
	})
}

// Promise is the write side of a future: a countdown-gated result slot.
type Promise[T any] struct {
	h *header[T]
}

// NewPromise constructs a promise with n outstanding anonymous
// dependencies.
func NewPromise[T any](n int64) *Promise[T] {
	h := newHeader[T](headerPromise)
	h.countdown.StoreRelaxed(n)
	return &Promise[T]{h: h}
}

// RequireAnonymous registers k additional anonymous dependencies. Valid
// only before the countdown has reached zero.
func (pr *Promise[T]) RequireAnonymous(k int64) {
	assertf(0, pr.h.countdown.LoadAcquire() > 0, "pgas: Promise.RequireAnonymous after countdown reached zero")
	pr.h.countdown.AddAcqRel(k)
}

// FulfillAnonymous discharges k anonymous dependencies.
func (pr *Promise[T]) FulfillAnonymous(k int64) {
	pr.decrement(k)
}

// FulfillResult constructs the result tuple and discharges one
// dependency. It must be called at most once per promise.
func (pr *Promise[T]) FulfillResult(v T) {
	pr.h.lock()
	pr.h.value = v
	pr.h.unlock()
	pr.decrement(1)
}

func (pr *Promise[T]) decrement(k int64) {
	if pr.h.countdown.AddAcqRel(-k) == 0 {
		pr.h.complete(pr.h.value)
	}
}

// Finalize delivers the promise's own implicit dependency and returns
// its future; after Finalize the promise may not be re-required.
func (pr *Promise[T]) Finalize() Future[T] {
	pr.h.finalized.StoreRelease(true)
	pr.decrement(1)
	return Future[T]{h: pr.h}
}

// GetFuture returns a shared-ref future observing pr without discharging
// a dependency; multiple distinct futures may observe the same promise.
func (pr *Promise[T]) GetFuture() Future[T] {
	pr.h.retain()
	return Future[T]{h: pr.h}
}

// Pair and Triple back WhenAll2/WhenAll3: Go has no variadic generics, so
// fixed-arity tuples stand in for a `when_all(futures...)`-style
// combinator that accepts any number of futures at once.
type Pair[A, B any] struct {
	First  A
	Second B
}

type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// WhenAll2 is ready once both f1 and f2 are ready, concatenating their
// results.
func WhenAll2[A, B any](f1 Future[A], f2 Future[B], p *Persona, stack *ActivationStack) Future[Pair[A, B]] {
	out := newHeader[Pair[A, B]](headerDependent)
	fut := Future[Pair[A, B]]{h: out}
	var remaining atomix.Int64
	remaining.StoreRelaxed(2)
	var a A
	var b B
	finish := func() {
		if remaining.AddAcqRel(-1) == 0 {
			p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
				out.complete(Pair[A, B]{First: a, Second: b})
			}})
		}
	}
	f1.h.onReady(func(v A) { a = v; finish() })
	f2.h.onReady(func(v B) { b = v; finish() })
	return fut
}

// WhenAll3 is WhenAll2's three-future counterpart.
func WhenAll3[A, B, C any](f1 Future[A], f2 Future[B], f3 Future[C], p *Persona, stack *ActivationStack) Future[Triple[A, B, C]] {
	out := newHeader[Triple[A, B, C]](headerDependent)
	fut := Future[Triple[A, B, C]]{h: out}
	var remaining atomix.Int64
	remaining.StoreRelaxed(3)
	var a A
	var b B
	var c C
	finish := func() {
		if remaining.AddAcqRel(-1) == 0 {
			p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
				out.complete(Triple[A, B, C]{First: a, Second: b, Third: c})
			}})
		}
	}
	f1.h.onReady(func(v A) { a = v; finish() })
	f2.h.onReady(func(v B) { b = v; finish() })
	f3.h.onReady(func(v C) { c = v; finish() })
	return fut
}

// AnyFuture erases a Future[T]'s type, letting a caller collect a
// heterogeneous slice for [WhenAllAny] — a fully-variadic combinator for
// arities WhenAll2/WhenAll3 don't cover (e.g. one future per rank in a
// barrier fan-out).
type AnyFuture interface {
	anyOnReady(fn func(any))
}

func (f Future[T]) anyOnReady(fn func(any)) {
	f.h.onReady(func(v T) { fn(v) })
}

// WhenAllAny is ready once every future in fs is ready, collecting their
// values in argument order.
func WhenAllAny(fs []AnyFuture, p *Persona, stack *ActivationStack) Future[[]any] {
	out := newHeader[[]any](headerDependent)
	fut := Future[[]any]{h: out}
	results := make([]any, len(fs))
	var remaining atomix.Int64
	remaining.StoreRelaxed(int64(len(fs)))
	if len(fs) == 0 {
		out.complete(results)
		return fut
	}
	for i, f := range fs {
		i := i
		f.anyOnReady(func(v any) {
			results[i] = v
			if remaining.AddAcqRel(-1) == 0 {
				p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
					out.complete(results)
				}})
			}
		})
	}
	return fut
}
