// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"
	"testing"

	"code.hybscloud.com/pgas/internal/simtransport"
)

func TestCxBundleOnFiresInAttachmentOrder(t *testing.T) {
	b := NewCxBundle[int]()
	var order []int
	b.On(OperationCx, func(v int) { order = append(order, v*10+1) })
	b.On(OperationCx, func(v int) { order = append(order, v*10+2) })
	b.fireOperation(7)
	if len(order) != 2 || order[0] != 71 || order[1] != 72 {
		t.Fatalf("order = %v, want [71 72]", order)
	}
}

func TestCxBundleAsFutureFulfillsOnFire(t *testing.T) {
	b := NewCxBundle[string]()
	fut := b.AsFuture(OperationCx)
	if fut.IsReady() {
		t.Fatal("future must not be ready before the sink fires")
	}
	b.fireOperation("done")
	if !fut.IsReady() {
		t.Fatal("expected future ready once the operation sink fired")
	}
	v, _ := fut.Wait(context.Background(), NewPersona(), NewActivationStack())
	if v != "done" {
		t.Fatalf("v = %q, want \"done\"", v)
	}
}

func TestCxBundleAsPromiseFulfillsCallerPromise(t *testing.T) {
	b := NewCxBundle[int]()
	pr := NewPromise[int](1)
	b.AsPromise(OperationCx, pr)
	b.fireOperation(3)
	fut := pr.GetFuture()
	if !fut.IsReady() {
		t.Fatal("expected caller-supplied promise fulfilled")
	}
}

func TestCxBundleAsLPCEnqueuesOnPersona(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	b := NewCxBundle[int]()
	var got int
	b.AsLPC(OperationCx, p, stack, func(v int) { got = v })
	b.fireOperation(9)
	if got != 0 {
		t.Fatal("AsLPC sink must not run synchronously, only once drained")
	}
	Progress(stack, LevelUser)
	if got != 9 {
		t.Fatalf("got = %d, want 9 after drain", got)
	}
}

func TestCxBundleHasRemoteReflectsAttachedSinks(t *testing.T) {
	b := NewCxBundle[struct{}]()
	if b.hasRemote() {
		t.Fatal("fresh bundle must report no remote sinks")
	}
	b.On(RemoteCx, func(struct{}) {})
	if !b.hasRemote() {
		t.Fatal("expected hasRemote true once a RemoteCx sink is attached")
	}
}

func TestCxBundleAsRPCDispatchesToPeerRank(t *testing.T) {
	net := simtransport.New(2, 4096)
	tr0 := net.Rank(0)
	tr1 := net.Rank(1)
	tr0.SetAMHandler(dispatchIncomingAM)
	tr1.SetAMHandler(dispatchIncomingAM)

	var gotFrom Rank
	var gotVal int
	b := NewCxBundle[int]()
	b.AsRPC(tr0, tr0.WorldTeam(), 1, func(from Rank, v int) {
		gotFrom = from
		gotVal = v
	})
	b.fireRemote(99)

	if gotFrom != 0 || gotVal != 99 {
		t.Fatalf("peer saw (from=%d, v=%d), want (0, 99)", gotFrom, gotVal)
	}
}
