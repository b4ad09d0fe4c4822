// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import "code.hybscloud.com/atomix"

// Runtime bundles everything Init produces: the master persona, the
// world team, the shared-heap allocator, and the calling process's
// local-team address translation.
type Runtime struct {
	Master    *Persona
	Stack     *ActivationStack
	World     *Team
	Heap      *Allocator
	LocalTeam *LocalTeam
	Transport Transport

	cfg Config
}

var (
	initialized atomix.Bool
	current     *Runtime
)

// Init is collective: every rank in the job must call it. It wires the
// process-wide AM dispatcher, builds the master persona and its
// activation stack, creates the world team, and carves the shared heap
// out of the transport's segment for this rank. Multiple init/finalize
// cycles are supported.
func Init(tr Transport) *Runtime {
	assertf(0, !initialized.LoadAcquire(), "pgas: Init called while already initialized (call Finalize first)")

	cfg := configFromEnv()
	if cfg.Noise {
		EnableNoise()
	}

	tr.SetAMHandler(dispatchIncomingAM)

	master := NewPersona()
	master.isMaster = true
	stack := NewActivationStack()
	stack.Activate(master)

	world := NewWorldTeam(tr)
	base, size := tr.SharedSegment(world.Rank())
	if size == 0 {
		size = cfg.SharedHeapSize
	}
	heap := NewAllocator(base, size)
	localTeam := NewLocalTeam(tr.LocalOffsets())

	rt := &Runtime{
		Master:    master,
		Stack:     stack,
		World:     world,
		Heap:      heap,
		LocalTeam: localTeam,
		Transport: tr,
		cfg:       cfg,
	}
	current = rt
	initialized.StoreRelease(true)
	return rt
}

// Finalize is collective and must follow [Discharge] and the collective
// destruction of every team and atomic domain the program created. It
// clears every process-wide registry so a subsequent [Init] starts
// clean.
func (rt *Runtime) Finalize() {
	assertf(0, initialized.LoadAcquire(), "pgas: Finalize called without a matching Init")
	Discharge(rt.Stack, rt.Master)

	distObjLock()
	distObjRegistry = make(map[Digest]any)
	distObjWaiters = make(map[Digest][]func(any))
	distObjUnlock()

	dormantLock()
	dormantTable = make(map[DormantAddr]*dormantSlot)
	dormantUnlock()

	current = nil
	initialized.StoreRelease(false)
}

// RankMe returns the calling process's rank in the world team.
func (rt *Runtime) RankMe() Rank { return rt.World.Rank() }

// RankN returns the world team's size.
func (rt *Runtime) RankN() int { return rt.World.Size() }
