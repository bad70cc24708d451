// Package event implements the simulator's global event queue: a
// min-heap of heterogeneous events ordered by (time, sequence number),
// with O(log n) removal by identity so a reassigned agent or resource can
// cancel its previously scheduled event.
package event

import (
	"container/heap"

	"dispatchsim/internal/ids"
	"dispatchsim/internal/resource"
)

// Kind distinguishes the two event variants the kernel schedules. Rather
// than a class hierarchy, this is a tagged struct: the queue stores plain
// values, and a dispatch function external to the queue (the simulator's
// trigger) decides what each event means.
type Kind int

const (
	KindAgent Kind = iota
	KindResource
)

// Event is a scheduled state transition on an agent or a resource. Seq
// breaks ties between events scheduled for the same Time and is assigned
// by the queue itself at Push time, so ordering is deterministic
// regardless of insertion order elsewhere.
type Event struct {
	Time       int64
	Seq        uint64
	Kind       Kind
	AgentID    ids.AgentID
	ResourceID ids.ResourceID
	Cause      resource.Cause // meaningful only when Kind == KindResource
}

// eventHeap is the container/heap.Interface implementation backing Queue.
// It keeps an auxiliary seq -> slice-index map so a pending event can be
// located and removed in O(log n) without a linear scan.
type eventHeap struct {
	items []Event
	index map[uint64]int
}

func (h eventHeap) Len() int { return len(h.items) }

func (h eventHeap) Less(i, j int) bool {
	if h.items[i].Time != h.items[j].Time {
		return h.items[i].Time < h.items[j].Time
	}
	return h.items[i].Seq < h.items[j].Seq
}

func (h *eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.index[h.items[i].Seq] = i
	h.index[h.items[j].Seq] = j
}

func (h *eventHeap) Push(x any) {
	e := x.(Event)
	h.index[e.Seq] = len(h.items)
	h.items = append(h.items, e)
}

func (h *eventHeap) Pop() any {
	old := h.items
	n := len(old)
	e := old[n-1]
	delete(h.index, e.Seq)
	h.items = old[:n-1]
	return e
}

// Queue is the public min-heap API used by the simulator's main loop.
type Queue struct {
	h       *eventHeap
	nextSeq uint64
}

// NewQueue creates an empty event queue.
func NewQueue() *Queue {
	return &Queue{h: &eventHeap{index: make(map[uint64]int)}}
}

// Push schedules e, assigning it the next sequence number, and returns
// that sequence number so the caller can remember it for cancellation.
func (q *Queue) Push(e Event) uint64 {
	e.Seq = q.nextSeq
	q.nextSeq++
	heap.Push(q.h, e)
	return e.Seq
}

// Peek returns the earliest scheduled event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if q.h.Len() == 0 {
		return Event{}, false
	}
	return q.h.items[0], true
}

// Pop removes and returns the earliest scheduled event.
func (q *Queue) Pop() (Event, bool) {
	if q.h.Len() == 0 {
		return Event{}, false
	}
	e := heap.Pop(q.h).(Event)
	return e, true
}

// Remove cancels the event previously scheduled with sequence number seq,
// if it is still pending. It is a no-op if seq has already fired or was
// never scheduled — the common case right after a match, when an agent or
// resource's outstanding event is cancelled defensively.
func (q *Queue) Remove(seq uint64) {
	i, ok := q.h.index[seq]
	if !ok {
		return
	}
	heap.Remove(q.h, i)
}

// Len reports the number of pending events.
func (q *Queue) Len() int { return q.h.Len() }
