// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package simtransport is an in-process loopback implementation of
// code.hybscloud.com/pgas's Transport collaborator. It simulates a
// whole SPMD job's ranks as goroutines inside a single process, so the
// core package's tests can exercise RMA, active messages, and
// collectives without a real network. It plays the same role internal
// assembly fast paths play for a queue package: a substitutable backend
// the core never imports directly, kept out of the public API by the
// leading "internal" segment.
package simtransport

import (
	"sync"

	"code.hybscloud.com/pgas"
)

// readyHandle is a TransportHandle that is already complete the instant
// it is returned: every simtransport operation runs synchronously on the
// calling goroutine, so there is never a pending handle to poll.
type readyHandle struct{}

func (readyHandle) Ready() bool { return true }

// Network is a simulated job of n ranks sharing one process. Create one
// with New, then call Rank(i) once per simulated rank to get that rank's
// Transport implementation.
type Network struct {
	mu    sync.Mutex
	ranks []*rankTransport
	bar   *barrier

	lastBroadcast     []byte
	broadcastArrivals int

	reduceContribs [][]byte
	reduceResult   []byte
}

type rankTransport struct {
	net     *Network
	rank    pgas.Rank
	segment []byte
	handler pgas.AMHandler
}

// worldTeam is the only team kind this simulator creates; SplitTeam
// returns the parent handle unchanged, so a "child" team has the
// parent's rank and size and shares its barriers and broadcasts. True
// sub-team membership is not tracked.
type worldTeam struct {
	net  *Network
	rank pgas.Rank
	size int
}

func (t *worldTeam) RankOf() pgas.Rank { return t.rank }
func (t *worldTeam) SizeOf() int       { return t.size }

// New builds a Network of n simulated ranks, each with a segHeapSize
// byte shared-heap segment.
func New(n int, segHeapSize uint64) *Network {
	net := &Network{bar: newBarrier(n)}
	net.ranks = make([]*rankTransport, n)
	for i := 0; i < n; i++ {
		net.ranks[i] = &rankTransport{
			net:     net,
			rank:    pgas.Rank(i),
			segment: make([]byte, segHeapSize),
		}
	}
	return net
}

// Size returns the simulated job's rank count.
func (net *Network) Size() int { return len(net.ranks) }

// Rank returns the pgas.Transport view for simulated rank i.
func (net *Network) Rank(i int) pgas.Transport { return net.ranks[i] }

func (rt *rankTransport) SetAMHandler(fn pgas.AMHandler) { rt.handler = fn }

func (rt *rankTransport) AMMaster(_ pgas.TeamHandle, rank pgas.Rank, payload []byte) {
	peer := rt.net.ranks[rank]
	cp := append([]byte(nil), payload...)
	// Delivered synchronously: the simulator has no separate network
	// thread, so the sender's goroutine runs the receiver's handler
	// directly. Real transports deliver on whichever thread is polling;
	// tests must keep their own progress loop in mind if they rely on
	// cross-goroutine delivery order.
	peer.handler(rt.rank, cp)
}

func (rt *rankTransport) RMAGetNB(_ pgas.TeamHandle, dst []byte, srcRank pgas.Rank, srcAddr uint64, nbytes uint64) pgas.TransportHandle {
	src := rt.net.ranks[srcRank]
	copy(dst, src.segment[srcAddr:srcAddr+nbytes])
	return readyHandle{}
}

func (rt *rankTransport) RMAPutNB(_ pgas.TeamHandle, dstRank pgas.Rank, dstAddr uint64, src []byte, nbytes uint64, _ pgas.SrcCompletionMode) pgas.TransportHandle {
	dst := rt.net.ranks[dstRank]
	copy(dst.segment[dstAddr:dstAddr+nbytes], src)
	return readyHandle{}
}

func (rt *rankTransport) RMAPutBlocking(_ pgas.TeamHandle, dstRank pgas.Rank, dstAddr uint64, src []byte, nbytes uint64) {
	dst := rt.net.ranks[dstRank]
	copy(dst.segment[dstAddr:dstAddr+nbytes], src)
}

func (rt *rankTransport) CollBarrierNB(_ pgas.TeamHandle) pgas.TransportHandle {
	rt.net.bar.arrive()
	return readyHandle{}
}

func (rt *rankTransport) CollBroadcastNB(_ pgas.TeamHandle, root pgas.Rank, buf []byte) pgas.TransportHandle {
	rt.net.mu.Lock()
	defer rt.net.mu.Unlock()
	if rt.rank == root {
		rt.net.lastBroadcast = append([]byte(nil), buf...)
	}
	rt.net.broadcastArrivals++
	if rt.net.broadcastArrivals == len(rt.net.ranks) {
		rt.net.broadcastArrivals = 0
	}
	copy(buf, rt.net.lastBroadcast)
	return readyHandle{}
}

func (rt *rankTransport) CollReduceToOneNB(_ pgas.TeamHandle, root pgas.Rank, dst, src []byte, dt pgas.DataType, op pgas.ReduceOp) pgas.TransportHandle {
	rt.net.mu.Lock()
	defer rt.net.mu.Unlock()
	rt.net.reduceContribs = append(rt.net.reduceContribs, append([]byte(nil), src...))
	if len(rt.net.reduceContribs) == len(rt.net.ranks) {
		result := reduceBytes(rt.net.reduceContribs, dt, op)
		rt.net.reduceResult = result
		rt.net.reduceContribs = nil
	}
	if rt.rank == root {
		copy(dst, rt.net.reduceResult)
	}
	return readyHandle{}
}

func (rt *rankTransport) CollReduceToAllNB(_ pgas.TeamHandle, dst, src []byte, dt pgas.DataType, op pgas.ReduceOp) pgas.TransportHandle {
	rt.net.mu.Lock()
	defer rt.net.mu.Unlock()
	rt.net.reduceContribs = append(rt.net.reduceContribs, append([]byte(nil), src...))
	if len(rt.net.reduceContribs) == len(rt.net.ranks) {
		result := reduceBytes(rt.net.reduceContribs, dt, op)
		rt.net.reduceResult = result
		rt.net.reduceContribs = nil
	}
	copy(dst, rt.net.reduceResult)
	return readyHandle{}
}

type simAtomicDomain struct {
	dt  pgas.DataType
	net *Network
}

func (rt *rankTransport) AtomicDomainCreate(_ pgas.TeamHandle, dt pgas.DataType, _ []pgas.AtomicOp) pgas.AtomicDomainHandle {
	return &simAtomicDomain{dt: dt, net: rt.net}
}

func (rt *rankTransport) AtomicOpNB(ad pgas.AtomicDomainHandle, op pgas.AtomicOp, targetRank pgas.Rank, targetAddr uint64, operand, compare uint64, result []byte) pgas.TransportHandle {
	rt.net.mu.Lock()
	defer rt.net.mu.Unlock()
	target := rt.net.ranks[targetRank]
	prior := getUint64(target.segment[targetAddr : targetAddr+8])
	switch op {
	case pgas.AtomicLoad:
	case pgas.AtomicStore:
		putUint64(target.segment[targetAddr:targetAddr+8], operand)
	case pgas.AtomicFetchAdd:
		putUint64(target.segment[targetAddr:targetAddr+8], prior+operand)
	case pgas.AtomicCompareExchange:
		if prior == compare {
			putUint64(target.segment[targetAddr:targetAddr+8], operand)
		}
	}
	putUint64(result, prior)
	return readyHandle{}
}

func (rt *rankTransport) SharedSegment(rank pgas.Rank) (base, size uint64) {
	seg := rt.net.ranks[rank].segment
	return 0, uint64(len(seg))
}

func (rt *rankTransport) LocalOffsets() map[pgas.Rank]int64 {
	offsets := make(map[pgas.Rank]int64, len(rt.net.ranks))
	for i := range rt.net.ranks {
		offsets[pgas.Rank(i)] = 0
	}
	return offsets
}

func (rt *rankTransport) WorldTeam() pgas.TeamHandle {
	return &worldTeam{net: rt.net, rank: rt.rank, size: len(rt.net.ranks)}
}

func (rt *rankTransport) SplitTeam(parent pgas.TeamHandle, _, _ int) pgas.TeamHandle {
	return parent
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
