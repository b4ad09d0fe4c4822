// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "code.hybscloud.com/atomix"

// Level selects which LPC queue an operation targets.
type Level uint8

const (
	// LevelInternal is drained by every progress() call, including
	// progress(internal) used by Discharge's spin.
	LevelInternal Level = iota
	// LevelUser is drained only by progress(user); user code and
	// completion sinks usually target this level.
	LevelUser
)

// hcbEntry pairs an in-flight transport handle with the continuation to
// run once it completes.
type hcbEntry struct {
	handle TransportHandle
	cb     Record
}

// Persona is an execution context: it owns the internal and user LPC
// queues and the in-flight HCB list, and may be active on at most one
// goroutine at a time.
//
// Go has no safe, portable thread-local storage, and this runtime's
// notion of "thread" maps most naturally onto "the one goroutine
// cooperatively driving this persona" — so instead of hidden TLS, the
// activation stack ([ActivationStack]) is an explicit value the driving
// goroutine owns and passes to every call that needs to know whether it
// is running on this persona's own goroutine (the fast, non-atomic path)
// or a foreign one (the MPSC cross-thread path).
type Persona struct {
	id uint64

	localInternal *singleWriterQueue
	localUser     *singleWriterQueue
	crossInternal *concurrentQueue
	crossUser     *concurrentQueue

	hcbs []hcbEntry // only ever touched by the owning goroutine

	undischarged atomix.Int64 // outstanding remote-completion obligations
	activeCount  atomix.Int64 // how many activation-stack frames reference this persona

	isMaster bool
}

var personaIDGen atomix.Uint64

// NewPersona creates a persona not yet active on any goroutine.
func NewPersona() *Persona {
	return &Persona{
		id:            personaIDGen.AddAcqRel(1),
		localInternal: newSingleWriterQueue(defaultQueueCapacity),
		localUser:     newSingleWriterQueue(defaultQueueCapacity),
		crossInternal: newConcurrentQueue(defaultQueueCapacity),
		crossUser:     newConcurrentQueue(defaultQueueCapacity),
	}
}

// ID returns a process-unique persona identifier, stable for the life of
// the persona.
func (p *Persona) ID() uint64 { return p.id }

// IsMaster reports whether p is the process's master persona: collective
// calls and transport-global-state operations require master active on
// the calling goroutine.
func (p *Persona) IsMaster() bool { return p.isMaster }

// ActivationStack is a goroutine's stack of active personas: the
// Go-native stand-in for an OS-thread-local persona stack. A goroutine
// that hands its ActivationStack
// to another goroutine is misusing the API, exactly as handing a raw
// OS thread-local to another OS thread would be — nothing here
// synchronizes concurrent use of one ActivationStack.
type ActivationStack struct {
	frames []*Persona
}

// NewActivationStack creates an empty activation stack for the calling
// goroutine to own.
func NewActivationStack() *ActivationStack {
	return &ActivationStack{}
}

// Activate pushes p onto the stack, making it the innermost persona that
// receives self-scheduled LPCs from this goroutine. The returned func
// deactivates p; callers typically `defer` it.
func (s *ActivationStack) Activate(p *Persona) func() {
	s.frames = append(s.frames, p)
	p.activeCount.AddAcqRel(1)
	return func() {
		if len(s.frames) == 0 || s.frames[len(s.frames)-1] != p {
			fatal(0, "pgas: persona activation scopes must nest (deactivate out of order)")
		}
		s.frames = s.frames[:len(s.frames)-1]
		p.activeCount.AddAcqRel(-1)
	}
}

// Top returns the innermost active persona, or nil if the stack is empty.
func (s *ActivationStack) Top() *Persona {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Contains reports whether p appears anywhere in the stack (not just at
// the top) — used by master-persona preconditions, which only require
// master to be active somewhere on the caller's stack.
func (s *ActivationStack) Contains(p *Persona) bool {
	for _, f := range s.frames {
		if f == p {
			return true
		}
	}
	return false
}

// ActiveWithCaller reports whether p is active anywhere on stack.
func (p *Persona) ActiveWithCaller(stack *ActivationStack) bool {
	return stack != nil && stack.Contains(p)
}

// Schedule enqueues r on p at level, choosing the non-atomic owner-path
// when stack's top is p and the cross-thread path otherwise.
func (p *Persona) Schedule(stack *ActivationStack, level Level, r Record) {
	sameThread := stack != nil && stack.Top() == p
	switch level {
	case LevelInternal:
		if sameThread {
			p.localInternal.Push(r)
		} else {
			p.crossInternal.Push(r)
		}
	default:
		if sameThread {
			p.localUser.Push(r)
		} else {
			p.crossUser.Push(r)
		}
	}
}

// LPC schedules fn to run on p at user level, returning a future signalled
// when fn returns.
func (p *Persona) LPC(stack *ActivationStack, fn func()) Future[struct{}] {
	pr := NewPromise[struct{}](1)
	fut := pr.GetFuture()
	p.Schedule(stack, LevelUser, &funcRecord{fn: func() {
		fn()
		pr.FulfillResult(struct{}{})
	}})
	return fut
}

// LPCFireAndForget schedules fn at user level without a completion future.
func (p *Persona) LPCFireAndForget(stack *ActivationStack, fn func()) {
	p.Schedule(stack, LevelUser, &funcRecord{fn: fn})
}

// funcRecord adapts a plain closure to the Record vtbl.
type funcRecord struct{ fn func() }

func (r *funcRecord) ExecuteAndDelete() { r.fn() }

// addHCB registers an in-flight transport handle with its continuation.
// Only the owning goroutine calls this (it's always called right after
// submitting to the transport from that same goroutine).
func (p *Persona) addHCB(h TransportHandle, cb Record) {
	p.hcbs = append(p.hcbs, hcbEntry{handle: h, cb: cb})
}

// incUndischarged / decUndischarged track outstanding remote-completion
// obligations this persona owes.
func (p *Persona) incUndischarged() { p.undischarged.AddAcqRel(1) }
func (p *Persona) decUndischarged() { p.undischarged.AddAcqRel(-1) }

// hasPendingWork reports whether p has anything a progress check should
// see: pending LPCs at either level, pending HCBs, or undischarged remote
// obligations — erring toward "true" when only source-completion events
// remain, which in this implementation are themselves HCBs and so
// already counted.
func (p *Persona) hasPendingWork() bool {
	if len(p.hcbs) > 0 {
		return true
	}
	if !p.localUser.Empty() || !p.crossUser.Empty() {
		return true
	}
	if !p.localInternal.Empty() || !p.crossInternal.Empty() {
		return true
	}
	return p.undischarged.Load() > 0
}
