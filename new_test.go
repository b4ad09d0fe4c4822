// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"
	"testing"

	"code.hybscloud.com/pgas/internal/simtransport"
)

func TestNewAllocatesAndInitializesAValue(t *testing.T) {
	net := simtransport.New(1, 4096)
	rt := Init(net.Rank(0))
	defer rt.Finalize()

	g := New(rt, int64(42))
	if g.IsNull() {
		t.Fatal("expected a non-null GlobalPtr")
	}

	dst := make([]byte, 8)
	cx := NewCxBundle[struct{}]()
	fut := cx.AsFuture(OperationCx)
	RGet(rt.Transport, rt.Master, rt.World.Handle(), g, dst, 8, cx)
	if _, err := fut.Wait(context.Background(), rt.Master, rt.Stack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bytesToNumeric[int64](dst); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestNewNoThrowReportsAllocErrorOnExhaustion(t *testing.T) {
	net := simtransport.New(1, 8)
	rt := Init(net.Rank(0))
	defer rt.Finalize()

	_, err := NewNoThrow(rt, [4096]byte{})
	if err == nil {
		t.Fatal("expected an AllocError from an oversized allocation")
	}
	allocErr, ok := err.(*AllocError)
	if !ok {
		t.Fatalf("expected *AllocError, got %T", err)
	}
	if allocErr.Rank != rt.RankMe() {
		t.Fatalf("AllocError.Rank = %d, want %d", allocErr.Rank, rt.RankMe())
	}
}

func TestNewArrayInitializesEveryElement(t *testing.T) {
	net := simtransport.New(1, 4096)
	rt := Init(net.Rank(0))
	defer rt.Finalize()

	g := NewArray(rt, 3, []int32{10, 20, 30})
	if g.IsNull() {
		t.Fatal("expected a non-null GlobalPtr")
	}

	dst := make([]byte, 12)
	cx := NewCxBundle[struct{}]()
	fut := cx.AsFuture(OperationCx)
	RGet(rt.Transport, rt.Master, rt.World.Handle(), g, dst, 12, cx)
	if _, err := fut.Wait(context.Background(), rt.Master, rt.Stack); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int32{10, 20, 30} {
		got := bytesToNumeric[int32](dst[i*4 : i*4+4])
		if got != want {
			t.Fatalf("element %d = %d, want %d", i, got, want)
		}
	}
}

func TestNewArrayNoThrowWithNilLeavesRangeUninitialized(t *testing.T) {
	net := simtransport.New(1, 4096)
	rt := Init(net.Rank(0))
	defer rt.Finalize()

	g, err := NewArrayNoThrow[int64](rt, 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.IsNull() {
		t.Fatal("expected a non-null GlobalPtr")
	}
}
