// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "testing"

func TestProgressDrainsTopmostPersonaFirst(t *testing.T) {
	p1 := NewPersona()
	p2 := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p1)()
	defer stack.Activate(p2)()

	var order []int
	p1.LPCFireAndForget(stack, func() { order = append(order, 1) })
	p2.LPCFireAndForget(stack, func() { order = append(order, 2) })

	Progress(stack, LevelUser)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("order = %v, want [2 1] (topmost persona drains first)", order)
	}
}

func TestProgressReturnsFalseWhenNothingFired(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	if Progress(stack, LevelUser) {
		t.Fatal("expected no work fired on an idle stack")
	}
}

func TestProgressUserLevelAlsoDrainsInternalQueue(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	ran := false
	p.Schedule(stack, LevelInternal, &funcRecord{fn: func() { ran = true }})
	Progress(stack, LevelUser)
	if !ran {
		t.Fatal("expected progress(user) to also drain the internal queue")
	}
}

func TestProgressRequiredReflectsUndischargedObligations(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	if ProgressRequired(stack) {
		t.Fatal("fresh persona should report no progress required")
	}
	p.incUndischarged()
	if !ProgressRequired(stack) {
		t.Fatal("expected progress required with an outstanding remote obligation")
	}
	p.decUndischarged()
	if ProgressRequired(stack) {
		t.Fatal("expected progress not required once the obligation clears")
	}
}

func TestProgressRequiredScopedToNamedPersonas(t *testing.T) {
	p1 := NewPersona()
	p2 := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p1)()
	defer stack.Activate(p2)()

	p1.incUndischarged()
	if ProgressRequired(stack, p2) {
		t.Fatal("scoping to p2 must not see p1's obligation")
	}
	if !ProgressRequired(stack, p1) {
		t.Fatal("scoping to p1 must see its own obligation")
	}
}

func TestDischargeSpinsUntilObligationsClear(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	p.incUndischarged()
	p.Schedule(stack, LevelInternal, &funcRecord{fn: func() { p.decUndischarged() }})

	Discharge(stack, p)
	if ProgressRequired(stack, p) {
		t.Fatal("expected Discharge to leave no outstanding progress requirement")
	}
}
