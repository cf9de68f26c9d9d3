package bus

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestEnqueueDefaultsToSystemType(t *testing.T) {
	q := NewQueue()
	q.Enqueue("hello", "")

	events := q.Peek()
	if len(events) != 1 {
		t.Fatalf("len = %d, want 1", len(events))
	}
	if events[0].Type != EventSystem {
		t.Errorf("type = %s, want %s", events[0].Type, EventSystem)
	}
	if events[0].Timestamp.IsZero() {
		t.Errorf("timestamp not stamped at enqueue")
	}
}

func TestRingBoundDropsOldest(t *testing.T) {
	q := NewQueue()
	total := Capacity + 7
	for i := 0; i < total; i++ {
		q.Enqueue(fmt.Sprintf("e%d", i), EventCron)
	}

	events := q.Peek()
	if len(events) != Capacity {
		t.Fatalf("len = %d, want %d", len(events), Capacity)
	}
	// After K enqueues without drain the head is the (K-Capacity+1)-th.
	if want := fmt.Sprintf("e%d", total-Capacity); events[0].Text != want {
		t.Errorf("head = %s, want %s", events[0].Text, want)
	}
	if want := fmt.Sprintf("e%d", total-1); events[len(events)-1].Text != want {
		t.Errorf("tail = %s, want %s", events[len(events)-1].Text, want)
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	q := NewQueue()
	q.Enqueue("a", EventExec)
	q.Enqueue("b", EventCron)

	got := q.Drain()
	if len(got) != 2 || got[0].Text != "a" || got[1].Text != "b" {
		t.Fatalf("Drain = %+v", got)
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after drain: %d", q.Len())
	}
	if again := q.Drain(); len(again) != 0 {
		t.Errorf("second drain returned %d events", len(again))
	}
}

func TestPeekReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Enqueue("original", EventSystem)

	snap := q.Peek()
	snap[0].Text = "mutated"

	if got := q.Peek()[0].Text; got != "original" {
		t.Errorf("Peek exposed internal state: %s", got)
	}
}

func TestConcurrentEnqueueRespectsBound(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Enqueue(fmt.Sprintf("w%d-%d", n, j), EventExec)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("enqueues did not finish")
	}

	if got := q.Len(); got > Capacity {
		t.Errorf("queue grew past capacity: %d", got)
	}
}
