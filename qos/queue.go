/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/table"
)

// QueueItem is a packet waiting for transmission on an outgoing link.
type QueueItem struct {
	Wire    []byte
	Kind    ndn.PacketKind
	InLink  uint64
	OutLink uint64
	// Entry is the pending request the packet belongs to. It may be nil for Nacks of
	// requests that never entered the PIT.
	Entry *table.PitEntry

	finishTag float64
}

// FinishTag returns the virtual finish time assigned at enqueue.
func (i *QueueItem) FinishTag() float64 {
	return i.finishTag
}

// PriorityQueue is a bounded FIFO of items of one priority class on one link.
type PriorityQueue struct {
	items  []*QueueItem
	head   int
	length int
	weight float64

	lastVirtualFinishTime float64
}

// NewPriorityQueue creates an empty queue holding at most capacity items.
func NewPriorityQueue(weight float64, capacity int) *PriorityQueue {
	return &PriorityQueue{items: make([]*QueueItem, capacity), weight: weight}
}

// Len returns the number of queued items.
func (q *PriorityQueue) Len() int {
	return q.length
}

// Cap returns the capacity of the queue.
func (q *PriorityQueue) Cap() int {
	return len(q.items)
}

// Weight returns the WFQ weight of the queue.
func (q *PriorityQueue) Weight() float64 {
	return q.weight
}

// LastVirtualFinishTime returns the finish tag of the most recently enqueued item.
func (q *PriorityQueue) LastVirtualFinishTime() float64 {
	return q.lastVirtualFinishTime
}

// Push appends an item, returning false if the queue is full.
func (q *PriorityQueue) Push(item *QueueItem) bool {
	if q.length == len(q.items) {
		return false
	}
	q.items[(q.head+q.length)%len(q.items)] = item
	q.length++
	return true
}

// Peek returns the head item, or nil if the queue is empty.
func (q *PriorityQueue) Peek() *QueueItem {
	if q.length == 0 {
		return nil
	}
	return q.items[q.head]
}

// Pop removes and returns the head item.
func (q *PriorityQueue) Pop() (*QueueItem, error) {
	if q.length == 0 {
		return nil, ErrEmptyQueue
	}
	item := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.length--
	return item, nil
}
