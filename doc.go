// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pgas is a partitioned-global-address-space runtime: ranks
// cooperate over one-sided RMA and active-message RPC, organised into
// teams, with a future/promise graph driving completion.
//
// # Quick Start
//
//	rt := pgas.Init(transport)
//	defer rt.Finalize()
//
//	me := rt.RankMe()
//	heapAddr, ok := rt.Heap.Alloc(64, 8)
//
// # Core Concepts
//
//   - [GlobalPtr]: a cross-rank pointer (rank, device, address). Created
//     by allocating from a [Runtime.Heap] and wrapping the result with
//     the owning rank — or, for a typed value, via [New]/[NewArray] (or
//     their nothrow counterparts [NewNoThrow]/[NewArrayNoThrow]).
//   - [Persona]: a cooperative execution context. Exactly one goroutine
//     may have a persona active at a time ([ActivationStack.Activate]);
//     other goroutines may enqueue work onto it but never run it.
//   - [Future] / [Promise]: a single-assignment value and its write side.
//     [Progress] (or a persona-scoped [Future.Wait]) drains LPC queues
//     and fires ready continuations.
//   - [Team]: a collective scope. The world team comes from [NewWorldTeam];
//     [Team.Split] derives sub-teams collectively.
//
// # RMA
//
//	cx := pgas.NewCxBundle[struct{}]()
//	fut := cx.AsFuture(pgas.OperationCx)
//	pgas.RGet(tr, rt.Master, rt.World.Handle(), src, dst, n, cx)
//	_, err := fut.Wait(ctx, rt.Master, rt.Stack)
//
// By-value variants return the fetched value directly:
//
//	cx := pgas.NewCxBundle[int64]()
//	fut := cx.AsFuture(pgas.OperationCx)
//	pgas.RGetValue[int64](tr, rt.Master, rt.World.Handle(), src, cx)
//	v, err := fut.Wait(ctx, rt.Master, rt.Stack)
//
// # RPC
//
//	cx := pgas.NewCxBundle[int]()
//	fut := cx.AsFuture(pgas.OperationCx)
//	pgas.RPC(tr, rt.Master, rt.World.Handle(), targetRank, "compute.square",
//		func(from pgas.Rank, n int) int { return n * n },
//		7, cx)
//	result, err := fut.Wait(ctx, rt.Master, rt.Stack)
//
// name must be identical on every rank: it stands in for an
// anchor-relative function-pointer id, and only lines up across ranks
// because every rank runs the same binary and calls [RPC] the same
// number of times in the same order (see [RPCFireAndForget] for the
// no-return variant).
//
// # Collectives
//
//	err := rt.World.Barrier(ctx, rt.Master, rt.Stack)
//	sum, err := pgas.ReduceToAll[int64](rt.Master, rt.World, localValue, pgas.DataInt64, pgas.ReduceAdd).
//		Wait(ctx, rt.Master, rt.Stack)
//
// # Error Handling
//
// Precondition violations (calling a collective without the master
// persona active, touching a finalized team, a null [GlobalPtr] into a
// non-null op) are fatal: they print a banner naming rank, host,
// call site, and cause, then terminate the process. This is deliberate —
// the core never silently swallows one. Contrast [AllocError], a genuine
// Go error value returned by [NewNoThrow] and [NewArrayNoThrow] on
// shared-heap exhaustion, which callers are expected to catch and
// report; [New] and [NewArray] are their panicking counterparts, for
// call sites that would rather treat exhaustion as fatal too.
//
//	v, err := someFuture.Wait(ctx, persona, stack)
//	if pgas.IsWouldBlock(err) {
//		// returned by Wait only for a zero-value Future; otherwise Wait
//		// loops internally until the future is ready or ctx is done.
//	}
//
// # Concurrency Model
//
// Exactly one goroutine drives a given persona at a time. Futures
// created inside an LPC body may become ready and fire their own
// dependents before the enclosing [Progress] call returns — LPCs run
// synchronously from within progress() and may enqueue further LPCs
// observed in the same drain pass.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomics with
// explicit memory ordering, [code.hybscloud.com/spin] for CPU-pause
// backoff, [code.hybscloud.com/iox] for semantic would-block errors, and
// [github.com/rs/zerolog] for structured fatal/diagnostic logging.
// internal/simtransport provides an in-process loopback [Transport] for
// tests; production use supplies a real network transport instead.
package pgas
