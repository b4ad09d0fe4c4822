// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// RPCFireAndForget serializes a command naming fn's executor plus args
// and sends it to rank's master persona, not waiting for a result. name
// must be identical on every rank of the job — it stands in for "the
// same function, the same wire id," which here holds because every
// rank runs the same binary and registers the same names in the same
// order (see serialize.go).
func RPCFireAndForget[A any](tr Transport, tm TeamHandle, rank Rank, name string, fn func(from Rank, args A), args A) {
	id := registerExecutor(name, func(from Rank, body []byte) {
		var a A
		unmarshal(body, &a)
		fn(from, a)
	})
	tr.AMMaster(tm, rank, encodeCommand(id, args))
}

// rpcEnvelope is the wire body of an rpc (with-result) call: the
// caller's dormant-lpc address travels alongside the real arguments so
// the callee can echo it back unexamined — the dormant-lpc address is
// opaque on the wire.
type rpcEnvelope[A any] struct {
	ReturnTo DormantAddr
	Args     A
}

type rpcReturn[R any] struct {
	ReturnTo DormantAddr
	Result   R
}

// RPC serializes a command naming fn's executor plus args, sends it to
// rank's master persona, and arranges for the callee's return value to
// fulfil cx's operation/remote sinks once its return AM arrives back on
// the initiator. name must be identical on every rank, as with
// [RPCFireAndForget]; it is also used (with a suffix) to register the
// matching return-path executor.
func RPC[A, R any](tr Transport, p *Persona, tm TeamHandle, rank Rank, name string, fn func(from Rank, args A) R, args A, cx *CxBundle[R]) {
	retID := registerExecutor(name+"#return", func(_ Rank, body []byte) {
		var ret rpcReturn[R]
		unmarshal(body, &ret)
		FireDormant(ret.ReturnTo, marshal(ret.Result))
	})
	fwdID := registerExecutor(name, func(from Rank, body []byte) {
		var in rpcEnvelope[A]
		unmarshal(body, &in)
		result := fn(from, in.Args)
		tr.AMMaster(tm, from, encodeCommand(retID, rpcReturn[R]{ReturnTo: in.ReturnTo, Result: result}))
	})

	p.incUndischarged()
	returnAddr := NewDormantForFunc(p, func(v R) {
		cx.fireOperation(v)
		cx.fireRemote(v)
		p.decUndischarged()
	})
	tr.AMMaster(tm, rank, encodeCommand(fwdID, rpcEnvelope[A]{ReturnTo: returnAddr, Args: args}))
}

// dispatchIncomingAM is the process-wide AM handler installed on the
// transport at Init: it reads the command header and dispatches to the
// registered executor.
func dispatchIncomingAM(from Rank, payload []byte) {
	id, body := decodeCommandHeader(payload)
	dispatchExecutor(id, from, body)
}
