// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package simtransport

import "sync"

// barrier is a reusable (cyclic) rendezvous point for n goroutines,
// used to back CollBarrierNB: unlike every other simulated collective
// here, a real barrier has no data to copy past the sync point, so this
// is the one place the simulator must actually block the calling
// goroutine rather than completing in-line.
type barrier struct {
	n  int
	mu sync.Mutex
	count int
	ch chan struct{}
}

func newBarrier(n int) *barrier {
	return &barrier{n: n, ch: make(chan struct{})}
}

func (b *barrier) arrive() {
	b.mu.Lock()
	b.count++
	if b.count == b.n {
		b.count = 0
		ch := b.ch
		b.ch = make(chan struct{})
		b.mu.Unlock()
		close(ch)
		return
	}
	ch := b.ch
	b.mu.Unlock()
	<-ch
}
