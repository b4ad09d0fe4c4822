// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

// burstChunk bounds how many entries drainAll pulls from a queue per
// Burst call. drainAll keeps calling Burst until one returns zero, so a
// queue is still drained fully, including entries its own LPCs enqueue
// while it drains.
const burstChunk = 256

func drainAll(q interface{ Burst(int) int }) (fired bool) {
	for q.Burst(burstChunk) > 0 {
		fired = true
	}
	return fired
}

// drainStep runs one persona's share of a progress() pass: test its
// in-flight HCBs, then drain its internal LPC queue, then (if
// level == LevelUser) its user LPC queue.
func (p *Persona) drainStep(level Level) bool {
	fired := false

	if len(p.hcbs) > 0 {
		remaining := p.hcbs[:0]
		for _, e := range p.hcbs {
			if e.handle.Ready() {
				e.cb.ExecuteAndDelete()
				fired = true
			} else {
				remaining = append(remaining, e)
			}
		}
		p.hcbs = remaining
	}

	if drainAll(p.crossInternal) {
		fired = true
	}
	if drainAll(p.localInternal) {
		fired = true
	}
	if level == LevelUser {
		if drainAll(p.crossUser) {
			fired = true
		}
		if drainAll(p.localUser) {
			fired = true
		}
	}
	return fired
}

// progress drives just this persona's share of the progress engine — a
// convenience used by [Future.Wait], which only needs its own antecedent
// persona advanced. Use the package-level [Progress] to drive every
// active persona on this thread, top of stack down.
func (p *Persona) progress(stack *ActivationStack, level Level) bool {
	return p.drainStep(level)
}

// Progress performs one pass over every persona active on stack, topmost
// first, running each one's drainStep. It returns true iff something
// fired.
func Progress(stack *ActivationStack, level Level) bool {
	fired := false
	for i := len(stack.frames) - 1; i >= 0; i-- {
		if stack.frames[i].drainStep(level) {
			fired = true
		}
	}
	return fired
}

// ProgressRequired reports whether any persona in scope has pending
// LPCs (user or internal level), pending HCBs, or outstanding
// remote-completion obligations. An empty scope checks every persona on
// stack.
func ProgressRequired(stack *ActivationStack, scope ...*Persona) bool {
	personas := scope
	if len(personas) == 0 {
		personas = stack.frames
	}
	for _, p := range personas {
		if p.hasPendingWork() {
			return true
		}
	}
	return false
}

// Discharge spins progress(internal) until ProgressRequired(scope) is
// false, guaranteeing outgoing work has drained to the network and any
// remote completions this rank owes have been injected.
func Discharge(stack *ActivationStack, scope ...*Persona) {
	for ProgressRequired(stack, scope...) {
		Progress(stack, LevelInternal)
	}
}
