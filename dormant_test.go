// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"
	"testing"
)

func TestDormantForFuncFiresOnce(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	var got int
	addr := NewDormantForFunc(p, func(v int) { got = v })
	FireDormant(addr, marshal(55))

	Progress(stack, LevelUser)
	if got != 55 {
		t.Fatalf("got %d, want 55", got)
	}
}

func TestDormantForFuncSchedulesOnItsPersonaRatherThanFiringInline(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	var got int
	addr := NewDormantForFunc(p, func(v int) { got = v })
	FireDormant(addr, marshal(7))

	if got != 0 {
		t.Fatal("expected FireDormant to enqueue onto p rather than run inline")
	}
	Progress(stack, LevelUser)
	if got != 7 {
		t.Fatalf("got %d, want 7 after draining p's user queue", got)
	}
}

func TestDormantForPromiseFulfillsFuture(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	pr := NewPromise[string](1)
	addr := NewDormantForPromise(p, pr)
	fut := pr.GetFuture()

	FireDormant(addr, marshal("hi"))
	v, _ := fut.Wait(context.Background(), p, stack)
	if v != "hi" {
		t.Fatalf("v = %q, want \"hi\"", v)
	}
}

func TestChainDormantFiresEveryLinkInOrder(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	var order []int
	a := NewDormantForFunc(p, func(v int) { order = append(order, v*10+1) })
	b := NewDormantForFunc(p, func(v int) { order = append(order, v*10+2) })
	head := ChainDormant(a, b)

	FireDormant(head, marshal(4))
	Progress(stack, LevelUser)
	if len(order) != 2 || order[0] != 41 || order[1] != 42 {
		t.Fatalf("order = %v, want [41 42]", order)
	}
}
