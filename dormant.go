// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// DormantAddr is an addressable suspended continuation, sendable across
// ranks. A native implementation embeds a raw pointer on the wire and
// dereferences it back on arrival; Go has no process-portable
// pointer-to-integer cast that would survive a network hop, so this
// module substitutes a generation-tagged handle into a process-local
// table — opaque on the wire, backed by a lookup instead of pointer
// arithmetic.
type DormantAddr uint64

// dormantSlot holds one fireable continuation plus its chain successor:
// multiple dormants may chain onto a single completion event via this
// intrusive next pointer. persona records where fire must run: firing
// always happens on whatever goroutine delivers the triggering AM, never
// persona's own goroutine, so FireDormant always takes the cross-thread
// scheduling path.
type dormantSlot struct {
	fire    func(result []byte)
	persona *Persona
	next    DormantAddr
}

var (
	dormantGuard atomix.Bool
	dormantNext  atomix.Uint64
	dormantTable = make(map[DormantAddr]*dormantSlot)
)

func dormantLock() {
	sw := spin.Wait{}
	for !dormantGuard.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}
}
func dormantUnlock() { dormantGuard.StoreRelease(false) }

// registerDormant allocates a fresh address for fire and returns it. p is
// the persona fire must be scheduled onto when the dormant fires.
func registerDormant(p *Persona, fire func(result []byte)) DormantAddr {
	addr := DormantAddr(dormantNext.AddAcqRel(1))
	dormantLock()
	dormantTable[addr] = &dormantSlot{fire: fire, persona: p}
	dormantUnlock()
	return addr
}

// NewDormantForFunc builds the plain-function dormant shape: on fire,
// fn is invoked with the deserialized result on p's user LPC queue.
func NewDormantForFunc[T any](p *Persona, fn func(T)) DormantAddr {
	return registerDormant(p, func(result []byte) {
		var v T
		unmarshal(result, &v)
		fn(v)
	})
}

// NewDormantForPromise builds the quiesced-promise dormant shape: on
// fire, the deserialized result fulfills pr on p's user LPC queue.
func NewDormantForPromise[T any](p *Persona, pr *Promise[T]) DormantAddr {
	return registerDormant(p, func(result []byte) {
		var v T
		unmarshal(result, &v)
		pr.FulfillResult(v)
	})
}

// ChainDormant appends next onto head's chain, returning head, so
// multiple continuations can be chained onto a single completion event.
func ChainDormant(head, next DormantAddr) DormantAddr {
	dormantLock()
	slot := dormantTable[head]
	for slot.next != 0 {
		slot = dormantTable[slot.next]
	}
	slot.next = next
	dormantUnlock()
	return head
}

// FireDormant fires addr and every element chained onto it. A
// move-vs-copy distinction for the last link is unobservable under Go's
// GC, so every element is handed the same result byte slice and decodes
// its own value from it.
//
// Each link's continuation is enqueued on its recorded persona's user LPC
// queue rather than run inline: FireDormant always runs on whatever
// goroutine delivered the triggering AM, never on the persona's own
// driving goroutine, so it always takes the cross-thread Schedule path
// (passing a nil stack forces that path regardless of what the calling
// goroutine's own activation stack happens to look like).
func FireDormant(addr DormantAddr, result []byte) {
	dormantLock()
	slot, ok := dormantTable[addr]
	if ok {
		delete(dormantTable, addr)
	}
	dormantUnlock()
	assertf(0, ok, "pgas: fired unknown or already-fired dormant lpc %d", addr)

	cur := slot
	for {
		fire, persona, res := cur.fire, cur.persona, result
		persona.Schedule(nil, LevelUser, &funcRecord{fn: func() { fire(res) }})
		if cur.next == 0 {
			return
		}
		dormantLock()
		next, nok := dormantTable[cur.next]
		if nok {
			delete(dormantTable, cur.next)
		}
		dormantUnlock()
		assertf(0, nok, "pgas: dormant chain referenced unknown successor %d", cur.next)
		cur = next
	}
}
