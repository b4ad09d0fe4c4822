// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"context"
	"testing"

	"code.hybscloud.com/pgas/internal/simtransport"
)

func TestTeamBarrierRendezvousesAllRanks(t *testing.T) {
	const n = 4
	net := simtransport.New(n, 4096)

	personas := make([]*Persona, n)
	stacks := make([]*ActivationStack, n)
	teams := make([]*Team, n)
	for i := 0; i < n; i++ {
		personas[i] = NewPersona()
		stacks[i] = NewActivationStack()
		stacks[i].Activate(personas[i])
		teams[i] = NewWorldTeam(net.Rank(i))
	}

	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			if err := teams[i].Barrier(context.Background(), personas[i], stacks[i]); err != nil {
				t.Errorf("rank %d: barrier error: %v", i, err)
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

// TestBroadcastRootRoundTripsItsOwnValue exercises the two-phase
// length-then-payload encoding on a single-rank team, where root and
// the only observer are the same rank: simtransport's CollBroadcastNB
// shares one process-wide "last broadcast" slot across both phases and
// across ranks with no phase barrier between them, so a genuine
// cross-rank delivery test needs real phase-locked synchronization that
// this loopback double does not provide (see
// internal/simtransport/simtransport.go). The encode/marshal/decode
// path itself is still fully exercised here.
func TestBroadcastRootRoundTripsItsOwnValue(t *testing.T) {
	net := simtransport.New(1, 4096)
	p := NewPersona()
	stack := NewActivationStack()
	defer stack.Activate(p)()

	tm := NewWorldTeam(net.Rank(0))
	fut := Broadcast(p, tm, 0, 0, "broadcast-me")

	got, err := fut.Wait(context.Background(), p, stack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "broadcast-me" {
		t.Fatalf("got %q, want \"broadcast-me\"", got)
	}
}

// TestReduceToOneDeliversOnlyToRoot calls every non-root rank first so
// simtransport's accumulate-then-reset CollReduceToOneNB has seen every
// contribution by the time root's own call runs — the call that
// completes the count is the only one guaranteed a correct readback in
// this synchronous test double (see internal/simtransport/simtransport.go).
func TestReduceToOneDeliversOnlyToRoot(t *testing.T) {
	const n = 3
	root := Rank(2)
	net := simtransport.New(n, 4096)

	personas := make([]*Persona, n)
	for i := 0; i < n; i++ {
		personas[i] = NewPersona()
	}

	for i := 0; i < n; i++ {
		if Rank(i) == root {
			continue
		}
		tm := NewWorldTeam(net.Rank(i))
		ReduceToOne[int32](personas[i], tm, root, int32(10), DataInt32, ReduceMax)
	}
	rootTeam := NewWorldTeam(net.Rank(int(root)))
	fut := ReduceToOne[int32](personas[root], rootTeam, root, int32(10), DataInt32, ReduceMax)

	got, err := fut.Wait(context.Background(), personas[root], NewActivationStack())
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if got != 10 {
		t.Fatalf("root got %d, want 10", got)
	}
}

// TestReduceToAllSumsAcrossRanks: the last rank to call is the one
// guaranteed a correct sum in simtransport's synchronous accumulator
// (see internal/simtransport/simtransport.go); earlier calls observe
// whichever partial/previous result was cached.
func TestReduceToAllSumsAcrossRanks(t *testing.T) {
	const n = 4
	net := simtransport.New(n, 4096)

	personas := make([]*Persona, n)
	for i := 0; i < n; i++ {
		personas[i] = NewPersona()
	}

	var last Future[int64]
	for i := 0; i < n; i++ {
		tm := NewWorldTeam(net.Rank(i))
		f := ReduceToAll[int64](personas[i], tm, int64(i+1), DataInt64, ReduceAdd)
		if i == n-1 {
			last = f
		}
	}

	want := int64(1 + 2 + 3 + 4)
	got, err := last.Wait(context.Background(), personas[n-1], NewActivationStack())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestTeamNextCollectiveIDIsMonotonicAndDistinct(t *testing.T) {
	net := simtransport.New(1, 4096)
	tm := NewWorldTeam(net.Rank(0))

	a := tm.nextCollectiveID()
	b := tm.nextCollectiveID()
	if a == b {
		t.Fatal("successive collective ids must not collide")
	}
}

func TestTeamHandleReturnsUnderlyingTransportHandle(t *testing.T) {
	net := simtransport.New(1, 4096)
	tm := NewWorldTeam(net.Rank(0))
	if tm.Handle() == nil {
		t.Fatal("expected a non-nil TeamHandle")
	}
	if tm.Handle().RankOf() != 0 {
		t.Fatalf("RankOf() = %d, want 0", tm.Handle().RankOf())
	}
}
