// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"sync"
	"testing"
)

func TestPersonaLPCFireAndForgetRunsOnDrain(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	deactivate := stack.Activate(p)
	defer deactivate()

	ran := false
	p.LPCFireAndForget(stack, func() { ran = true })
	if ran {
		t.Fatal("lpc_ff must not run before a drain")
	}
	if !Progress(stack, LevelUser) {
		t.Fatal("expected progress to report work fired")
	}
	if !ran {
		t.Fatal("expected lpc_ff body to have run after progress")
	}
}

func TestPersonaLPCFutureSignalsOnReturn(t *testing.T) {
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	fut := p.LPC(stack, func() {})
	if fut.IsReady() {
		t.Fatal("future must not be ready before the lpc body runs")
	}
	Progress(stack, LevelUser)
	if !fut.IsReady() {
		t.Fatal("expected future ready after progress drained the lpc")
	}
}

func TestPersonaCrossThreadScheduleUsesMPSCPath(t *testing.T) {
	p := NewPersona()
	ownerStack := NewActivationStack()
	defer ownerStack.Activate(p)()

	var wg sync.WaitGroup
	var ran atomicFlag
	wg.Add(1)
	go func() {
		defer wg.Done()
		foreignStack := NewActivationStack() // a different goroutine, persona not active here
		p.LPCFireAndForget(foreignStack, func() { ran.set() })
	}()
	wg.Wait()

	if ran.get() {
		t.Fatal("cross-thread lpc must not execute on the foreign goroutine")
	}
	Progress(ownerStack, LevelUser)
	if !ran.get() {
		t.Fatal("expected the owner's progress pass to drain the cross-thread lpc")
	}
}

func TestActivationStackNesting(t *testing.T) {
	p1 := NewPersona()
	p2 := NewPersona()
	stack := NewActivationStack()

	d1 := stack.Activate(p1)
	if stack.Top() != p1 {
		t.Fatal("expected p1 on top")
	}
	d2 := stack.Activate(p2)
	if stack.Top() != p2 {
		t.Fatal("expected p2 on top after nested activate")
	}
	if !stack.Contains(p1) {
		t.Fatal("expected p1 still reachable via Contains")
	}
	d2()
	if stack.Top() != p1 {
		t.Fatal("expected p1 back on top after deactivating p2")
	}
	d1()
	if stack.Top() != nil {
		t.Fatal("expected empty stack")
	}
}

func TestPersonaHasPendingWorkReflectsHCBs(t *testing.T) {
	p := NewPersona()
	if p.hasPendingWork() {
		t.Fatal("fresh persona should have no pending work")
	}
	p.addHCB(readyHandleStub{ready: false}, &funcRecord{fn: func() {}})
	if !p.hasPendingWork() {
		t.Fatal("expected pending work with an outstanding HCB")
	}
}

type readyHandleStub struct{ ready bool }

func (h readyHandleStub) Ready() bool { return h.ready }

// atomicFlag avoids importing sync/atomic just for a one-off test bool.
type atomicFlag struct {
	mu sync.Mutex
	v  bool
}

func (f *atomicFlag) set()       { f.mu.Lock(); f.v = true; f.mu.Unlock() }
func (f *atomicFlag) get() bool  { f.mu.Lock(); defer f.mu.Unlock(); return f.v }
