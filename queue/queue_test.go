package queue

import (
	"sync"
	"testing"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := New[int]()
	if !q.IsEmpty() {
		t.Fatalf("new queue should be empty")
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatalf("dequeue on empty queue should report false")
	}

	for i := 0; i < 5; i++ {
		q.Enqueue(i)
	}
	if q.Len() != 5 {
		t.Fatalf("expected len 5, got %d", q.Len())
	}
	if front, ok := q.Peek(); !ok || front != 0 {
		t.Fatalf("peek mismatch: %v %v", front, ok)
	}
	for i := 0; i < 5; i++ {
		v, ok := q.Dequeue()
		if !ok || v != i {
			t.Fatalf("dequeue %d: got %v %v", i, v, ok)
		}
	}
}

func TestQueue_Reset(t *testing.T) {
	q := New[string]()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Reset()
	if !q.IsEmpty() {
		t.Fatalf("expected empty queue after reset")
	}
}

func TestQueue_ConcurrentUse(t *testing.T) {
	q := New[int]()
	const n = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Enqueue(i)
		}
	}()
	go func() {
		defer wg.Done()
		got := 0
		for got < n {
			if _, ok := q.Dequeue(); ok {
				got++
			}
		}
	}()
	wg.Wait()
	if !q.IsEmpty() {
		t.Fatalf("expected drained queue, len=%d", q.Len())
	}
}
