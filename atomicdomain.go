// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// AtomicDomain is a collectively-constructed handle carrying (opset,
// datatype, team); the set of permitted ops is fixed at construction.
type AtomicDomain struct {
	handle AtomicDomainHandle
	tr     Transport
	dt     DataType
	ops    map[AtomicOp]bool
}

// NewAtomicDomain is collective over team: every member must call it
// with the same dt/ops, with transport global state touched only while
// the master persona is active.
func NewAtomicDomain(p *Persona, stack *ActivationStack, team *Team, dt DataType, ops []AtomicOp) *AtomicDomain {
	assertf(0, p.IsMaster() && p.ActiveWithCaller(stack), "pgas: NewAtomicDomain requires the master persona active on the calling goroutine")
	allowed := make(map[AtomicOp]bool, len(ops))
	for _, op := range ops {
		allowed[op] = true
	}
	return &AtomicDomain{
		handle: team.tr.AtomicDomainCreate(team.handle, dt, ops),
		tr:     team.tr,
		dt:     dt,
		ops:    allowed,
	}
}

// Op submits op against (targetRank, targetAddr) with the given operand
// (and, for CompareExchange, compare value), returning a future of the
// op's prior/result value as the transport defines it for that op.
// Each op submission gets its own HCB and future.
func (ad *AtomicDomain) Op(p *Persona, op AtomicOp, targetRank Rank, targetAddr uint64, operand, compare uint64) Future[uint64] {
	assertf(0, ad.ops[op], "pgas: AtomicDomain.Op: op %d not permitted by this domain", op)
	pr := NewPromise[uint64](1)
	fut := pr.GetFuture()
	result := make([]byte, 8)
	h := ad.tr.AtomicOpNB(ad.handle, op, targetRank, targetAddr, operand, compare, result)
	submitHCB(p, h, func() {
		pr.FulfillResult(getUint64(result))
	}, false)
	return fut
}
