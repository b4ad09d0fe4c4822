// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pgas

import (
	"sync"
	"testing"
)

// countingRecord appends its tag to a shared, mutex-guarded log when run.
type countingRecord struct {
	tag int
	log *[]int
	mu  *sync.Mutex
}

func (r countingRecord) ExecuteAndDelete() {
	r.mu.Lock()
	*r.log = append(*r.log, r.tag)
	r.mu.Unlock()
}

func TestSingleWriterQueuePushPopFIFO(t *testing.T) {
	q := newSingleWriterQueue(4)
	var log []int
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		q.Push(countingRecord{tag: i, log: &log, mu: &mu})
	}
	drained := q.Burst(10)
	if drained != 3 {
		t.Fatalf("drained = %d, want 3", drained)
	}
	for i, v := range []int{0, 1, 2} {
		if log[i] != v {
			t.Fatalf("log[%d] = %d, want %d", i, log[i], v)
		}
	}
	if !q.Empty() {
		t.Fatal("expected queue empty after full burst")
	}
}

func TestSingleWriterQueueOverflowAbsorbsBurstPastCapacity(t *testing.T) {
	q := newSingleWriterQueue(2)
	var log []int
	var mu sync.Mutex

	const n = 20
	for i := 0; i < n; i++ {
		q.Push(countingRecord{tag: i, log: &log, mu: &mu})
	}
	drained := q.Burst(n)
	if drained != n {
		t.Fatalf("drained = %d, want %d (Push must never fail)", drained, n)
	}
	if len(log) != n {
		t.Fatalf("len(log) = %d, want %d", len(log), n)
	}
}

func TestSingleWriterQueueBurstRespectsLimit(t *testing.T) {
	q := newSingleWriterQueue(8)
	var log []int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		q.Push(countingRecord{tag: i, log: &log, mu: &mu})
	}
	drained := q.Burst(2)
	if drained != 2 {
		t.Fatalf("drained = %d, want 2", drained)
	}
	if q.Empty() {
		t.Fatal("expected entries still pending after a partial burst")
	}
	drained = q.Burst(10)
	if drained != 3 {
		t.Fatalf("second burst drained = %d, want 3", drained)
	}
}

func TestConcurrentQueueCrossThreadPushSingleConsumerDrain(t *testing.T) {
	q := newConcurrentQueue(4)
	var log []int
	var mu sync.Mutex

	const producers = 8
	const perProducer = 50
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(countingRecord{tag: p*perProducer + i, log: &log, mu: &mu})
			}
		}(p)
	}
	wg.Wait()

	total := producers * perProducer
	drained := 0
	for drained < total {
		drained += q.Burst(total)
	}
	if len(log) != total {
		t.Fatalf("len(log) = %d, want %d", len(log), total)
	}
	if !q.Empty() {
		t.Fatal("expected queue empty after draining every pushed entry")
	}
}

func TestRoundToPow2(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 2}, {1, 2}, {2, 2}, {3, 4}, {4, 4}, {5, 8}, {1023, 1024}, {1024, 1024},
	}
	for _, c := range cases {
		if got := roundToPow2(c.in); got != c.want {
			t.Fatalf("roundToPow2(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
