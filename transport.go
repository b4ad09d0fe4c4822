// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// This file names the transport-facing interface the core package
// assumes as an external collaborator: a real network transport
// (GASNet-EX and friends) implements it; the core package never embeds
// one directly. internal/simtransport provides an in-process loopback
// implementation for tests, playing the same "substitutable backend"
// role internal/asm plays for a queue package's fast paths.

// DataType names a wire-level scalar type for collectives and atomic
// domains.
type DataType uint8

const (
	DataInt32 DataType = iota
	DataInt64
	DataUint32
	DataUint64
	DataFloat32
	DataFloat64
)

// ReduceOp names a built-in associative reduction operator. ReduceUser
// marks a user-supplied combine function instead; a Go function value
// has no representation this enum (or the Transport interface) can
// carry, so that path bypasses Transport.CollReduceToOneNB/ToAllNB
// entirely — see [ReduceToOneUser] and [ReduceToAllUser], which gather
// and scatter over plain active messages instead.
type ReduceOp uint8

const (
	ReduceAdd ReduceOp = iota
	ReduceMul
	ReduceMin
	ReduceMax
	ReduceAnd
	ReduceOr
	ReduceXor
	ReduceUser
)

// AtomicOp names a permitted operation on an atomic domain.
type AtomicOp uint8

const (
	AtomicFetchAdd AtomicOp = iota
	AtomicCompareExchange
	AtomicLoad
	AtomicStore
)

// SrcCompletionMode governs an rput's four submission sub-modes.
type SrcCompletionMode uint8

const (
	SrcNow SrcCompletionMode = iota
	SrcCB
	SrcIntoOpCB
	OpNow
)

// TransportHandle is a single in-flight operation's completion token.
// The progress engine polls Ready(); once true it never reverts.
type TransportHandle interface {
	Ready() bool
}

// TeamHandle is the transport's opaque per-team resource (process group,
// communicator, whatever the real backend calls it).
type TeamHandle interface {
	RankOf() Rank
	SizeOf() int
}

// AtomicDomainHandle is the transport's opaque per-atomic-domain
// resource.
type AtomicDomainHandle interface{}

// AMHandler is invoked on the receiving rank's master persona when an
// active message arrives, with the raw payload the sender submitted via
// Transport.AMMaster. It runs at user level.
type AMHandler func(from Rank, payload []byte)

// Transport is the collaborator this runtime drives but never
// implements itself. Of the methods that return no TransportHandle,
// RMAPutBlocking and AMMaster are submissions that need no polling, and
// the rest are setup or query calls (SetAMHandler, AtomicDomainCreate,
// SharedSegment, LocalOffsets, WorldTeam, SplitTeam).
type Transport interface {
	// RMAGetNB fetches nbytes from (srcRank, srcAddr) into dst.
	RMAGetNB(tm TeamHandle, dst []byte, srcRank Rank, srcAddr uint64, nbytes uint64) TransportHandle
	// RMAPutNB pushes nbytes from src to (dstRank, dstAddr).
	RMAPutNB(tm TeamHandle, dstRank Rank, dstAddr uint64, src []byte, nbytes uint64, mode SrcCompletionMode) TransportHandle
	// RMAPutBlocking is the all-inline op_now sub-mode: it does not
	// return until both source and operation have completed.
	RMAPutBlocking(tm TeamHandle, dstRank Rank, dstAddr uint64, src []byte, nbytes uint64)

	// AMMaster delivers payload to rank's master persona.
	AMMaster(tm TeamHandle, rank Rank, payload []byte)
	// SetAMHandler installs the process-wide active-message dispatcher.
	// Called once, at Init.
	SetAMHandler(fn AMHandler)

	CollBarrierNB(tm TeamHandle) TransportHandle
	CollBroadcastNB(tm TeamHandle, root Rank, buf []byte) TransportHandle
	CollReduceToOneNB(tm TeamHandle, root Rank, dst, src []byte, dt DataType, op ReduceOp) TransportHandle
	CollReduceToAllNB(tm TeamHandle, dst, src []byte, dt DataType, op ReduceOp) TransportHandle

	AtomicDomainCreate(tm TeamHandle, dt DataType, ops []AtomicOp) AtomicDomainHandle
	AtomicOpNB(ad AtomicDomainHandle, op AtomicOp, targetRank Rank, targetAddr uint64, operand, compare uint64, result []byte) TransportHandle

	// SharedSegment returns the base address and size of rank's shared
	// heap segment, as seen from the calling process.
	SharedSegment(rank Rank) (base, size uint64)
	// LocalOffsets returns, for every rank sharing this process's node,
	// its local_minus_remote address-translation offset.
	LocalOffsets() map[Rank]int64

	// WorldTeam returns the job-wide team handle created at Init.
	WorldTeam() TeamHandle
	// SplitTeam is collective: every rank in parent calls it with its own
	// (color, key); ranks sharing a color form one child team, ordered by
	// key.
	SplitTeam(parent TeamHandle, color int, key int) TeamHandle
}
