// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "unsafe"

// submitHCB runs the five-step submission protocol:
//  1. (caller already obtained handle from the transport)
//  2. here-state/remote-state were already captured into onLocal/onRemote
//     closures by the caller
//  3. if hasRemote, bump persona p's undischarged counter; onRemote
//     itself is responsible for decrementing it when the remote
//     confirmation fires
//  4. register the handle on p's in-flight HCB list
//  5. if the transport already reports the op done, fire synchronously
//     instead of queueing
func submitHCB(p *Persona, handle TransportHandle, onLocal func(), hasRemote bool) {
	if hasRemote {
		p.incUndischarged()
	}
	if handle.Ready() {
		onLocal()
		return
	}
	p.addHCB(handle, &funcRecord{fn: onLocal})
}

// fireRemoteCxViaAM discharges an RMA operation's remote_cx obligation.
// Local completion (the transport handle going ready) only proves this
// rank's side of the transfer landed; it says nothing about the peer, so
// remote_cx cannot simply fire here the way operation_cx does. Instead an
// ack AM runs on peer's master persona, which immediately echoes back to
// the initiator — only that echo's arrival genuinely confirms the peer's
// side observed the operation, at which point cx's remote sinks fire and
// the undischarged obligation submitHCB counted is finally paid off. This
// mirrors the dormant/round-trip shape [RPC] uses for its return value,
// minus a payload.
func fireRemoteCxViaAM[T any](tr Transport, p *Persona, tm TeamHandle, peer Rank, v T, cx *CxBundle[T]) {
	echoID := registerExecutor("pgas.rma.remoteCxEcho", func(_ Rank, body []byte) {
		var addr DormantAddr
		unmarshal(body, &addr)
		FireDormant(addr, marshal(struct{}{}))
	})
	ackID := registerExecutor("pgas.rma.remoteCxAck", func(from Rank, body []byte) {
		var addr DormantAddr
		unmarshal(body, &addr)
		tr.AMMaster(tm, from, encodeCommand(echoID, addr))
	})
	addr := NewDormantForFunc(p, func(struct{}) {
		cx.fireRemote(v)
		p.decUndischarged()
	})
	tr.AMMaster(tm, peer, encodeCommand(ackID, addr))
}

// RGet performs a by-reference get: src_gptr's nbytes are fetched into
// dst.
func RGet(tr Transport, p *Persona, tm TeamHandle, src GlobalPtr, dst []byte, n uint64, cx *CxBundle[struct{}]) {
	assertf(0, !src.IsNull(), "pgas: RGet from a null GlobalPtr")
	hasRemote := cx.hasRemote()
	handle := tr.RMAGetNB(tm, dst, src.Rank(), src.addr, n)
	submitHCB(p, handle, func() {
		cx.fireOperation(struct{}{})
		if hasRemote {
			fireRemoteCxViaAM(tr, p, tm, src.Rank(), struct{}{}, cx)
		}
	}, hasRemote)
}

// RGetValue performs a by-value get, returning the fetched T as the
// operation-completion value. T must be a fixed-layout value type, the
// same implicit restriction a raw memcpy-style RMA transfer carries.
func RGetValue[T any](tr Transport, p *Persona, tm TeamHandle, src GlobalPtr, cx *CxBundle[T]) {
	assertf(0, !src.IsNull(), "pgas: RGetValue from a null GlobalPtr")
	hasRemote := cx.hasRemote()
	var out T
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&out)), unsafe.Sizeof(out))
	handle := tr.RMAGetNB(tm, buf, src.Rank(), src.addr, uint64(unsafe.Sizeof(out)))
	submitHCB(p, handle, func() {
		cx.fireOperation(out)
		if hasRemote {
			fireRemoteCxViaAM(tr, p, tm, src.Rank(), out, cx)
		}
	}, hasRemote)
}

// RPut performs a by-reference put of src into dst_gptr. mode selects
// which of the four
// source-completion sub-modes (src_cb / src_into_op_cb / src_now /
// op_now) the caller is using; op_now additionally blocks until the
// whole operation (not just the source buffer) is quiescent.
func RPut(tr Transport, p *Persona, tm TeamHandle, src []byte, dst GlobalPtr, n uint64, mode SrcCompletionMode, cx *CxBundle[struct{}]) {
	assertf(0, !dst.IsNull(), "pgas: RPut to a null GlobalPtr")
	hasRemote := cx.hasRemote()
	if mode == OpNow {
		tr.RMAPutBlocking(tm, dst.Rank(), dst.addr, src, n)
		cx.fireSource(struct{}{})
		cx.fireOperation(struct{}{})
		if hasRemote {
			p.incUndischarged()
			fireRemoteCxViaAM(tr, p, tm, dst.Rank(), struct{}{}, cx)
		}
		return
	}
	handle := tr.RMAPutNB(tm, dst.Rank(), dst.addr, src, n, mode)
	submitHCB(p, handle, func() {
		if mode == SrcCB || mode == SrcIntoOpCB {
			cx.fireSource(struct{}{})
		}
		cx.fireOperation(struct{}{})
		if hasRemote {
			fireRemoteCxViaAM(tr, p, tm, dst.Rank(), struct{}{}, cx)
		}
	}, hasRemote)
	if mode == SrcNow {
		cx.fireSource(struct{}{})
	}
}

// numericBytes views a Numeric value's bytes in place, for transport
// calls that move raw scalar payloads (reductions, atomic-domain
// operands).
func numericBytes[T Numeric](v T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
}

// bytesToNumeric is numericBytes's inverse.
func bytesToNumeric[T Numeric](b []byte) T {
	var v T
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), b)
	return v
}

// RPutValue is the inline by-value put: v lives in the HCB's own
// closure rather than a caller-owned buffer, so there is no separate
// source-completion event to fire.
func RPutValue[T any](tr Transport, p *Persona, tm TeamHandle, v T, dst GlobalPtr, cx *CxBundle[T]) {
	assertf(0, !dst.IsNull(), "pgas: RPutValue to a null GlobalPtr")
	hasRemote := cx.hasRemote()
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v))
	handle := tr.RMAPutNB(tm, dst.Rank(), dst.addr, buf, uint64(unsafe.Sizeof(v)), SrcNow)
	submitHCB(p, handle, func() {
		cx.fireOperation(v)
		if hasRemote {
			fireRemoteCxViaAM(tr, p, tm, dst.Rank(), v, cx)
		}
	}, hasRemote)
}
