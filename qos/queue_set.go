/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"github.com/named-data/qosfwd/utils/comparison"
	"golang.org/x/exp/slices"
)

// linkQueues holds the per-class queues of one link and the link's virtual clock.
type linkQueues struct {
	queues []*PriorityQueue
	// virtualTime is the finish tag of the last item dequeued on the link.
	virtualTime float64
}

// QueueSet is the weighted fair queueing scheduler: for every outgoing link, one bounded
// FIFO per priority class. Links are created lazily on first enqueue.
type QueueSet struct {
	weights     []float64
	capacities  []int
	totalWeight float64
	cost        CostFunction
	packetSize  float64

	links map[uint64]*linkQueues
}

// NewQueueSet creates a scheduler for the classes described by opts.
func NewQueueSet(opts *Options) *QueueSet {
	s := &QueueSet{
		weights:    slices.Clone(opts.Weights),
		capacities: slices.Clone(opts.QueueCapacity),
		cost:       opts.WFQCost,
		packetSize: opts.PacketSize,
		links:      make(map[uint64]*linkQueues),
	}
	for _, w := range s.weights {
		s.totalWeight += w
	}
	return s
}

// NumClasses returns the number of priority classes.
func (s *QueueSet) NumClasses() int {
	return len(s.weights)
}

func (s *QueueSet) getOrCreate(link uint64) *linkQueues {
	lq, ok := s.links[link]
	if !ok {
		lq = &linkQueues{queues: make([]*PriorityQueue, len(s.weights))}
		for i := range lq.queues {
			lq.queues[i] = NewPriorityQueue(s.weights[i], s.capacities[i])
		}
		s.links[link] = lq
	}
	return lq
}

func (s *QueueSet) queue(link uint64, class int) *PriorityQueue {
	lq, ok := s.links[link]
	if !ok || class < 0 || class >= len(lq.queues) {
		return nil
	}
	return lq.queues[class]
}

// itemCost converts an item size into virtual time for a class.
func (s *QueueSet) itemCost(size float64, class int) float64 {
	switch s.cost {
	case CostComplement:
		return size * (1 - s.weights[class]/s.totalWeight)
	default:
		// size / (weight / totalWeight)
		return size * s.totalWeight / s.weights[class]
	}
}

// Enqueue adds an item to the class queue of link, stamping its virtual finish time. It returns
// false, leaving the queue unchanged, if the queue is full or the class does not exist.
func (s *QueueSet) Enqueue(link uint64, class int, item *QueueItem) bool {
	if class < 0 || class >= len(s.weights) {
		return false
	}
	lq := s.getOrCreate(link)
	q := lq.queues[class]
	if q.Len() == q.Cap() {
		return false
	}

	size := s.packetSize
	if size <= 0 {
		size = float64(len(item.Wire))
	}
	virtualStart := comparison.Max(lq.virtualTime, q.lastVirtualFinishTime)
	item.finishTag = virtualStart + s.itemCost(size, class)
	item.OutLink = link
	q.Push(item)
	q.lastVirtualFinishTime = item.finishTag
	return true
}

// SelectClassToSend returns the class whose head item has the smallest virtual finish time among
// non-empty classes for which available returns true. Ties go to the lowest class index.
func (s *QueueSet) SelectClassToSend(link uint64, available func(class int) bool) (int, bool) {
	lq, ok := s.links[link]
	if !ok {
		return 0, false
	}
	selected := -1
	var best float64
	for class, q := range lq.queues {
		head := q.Peek()
		if head == nil || (available != nil && !available(class)) {
			continue
		}
		if selected < 0 || head.finishTag < best {
			selected = class
			best = head.finishTag
		}
	}
	return selected, selected >= 0
}

// Dequeue removes the head item of the class queue of link.
func (s *QueueSet) Dequeue(link uint64, class int) (*QueueItem, error) {
	if class < 0 || class >= len(s.weights) {
		return nil, ErrClassOutOfRange
	}
	lq, ok := s.links[link]
	if !ok {
		return nil, ErrEmptyQueue
	}
	item, err := lq.queues[class].Pop()
	if err != nil {
		return nil, err
	}
	lq.virtualTime = comparison.Max(lq.virtualTime, item.finishTag)
	return item, nil
}

// IsEmpty returns whether the class queue of link holds no items.
func (s *QueueSet) IsEmpty(link uint64, class int) bool {
	return s.Len(link, class) == 0
}

// Len returns the number of items in the class queue of link.
func (s *QueueSet) Len(link uint64, class int) int {
	q := s.queue(link, class)
	if q == nil {
		return 0
	}
	return q.Len()
}

// LinkEmpty returns whether every class queue of link is empty.
func (s *QueueSet) LinkEmpty(link uint64) bool {
	lq, ok := s.links[link]
	if !ok {
		return true
	}
	for _, q := range lq.queues {
		if q.Len() > 0 {
			return false
		}
	}
	return true
}

// NonEmptyClasses returns the classes of link with queued items, in ascending order.
func (s *QueueSet) NonEmptyClasses(link uint64) []int {
	lq, ok := s.links[link]
	if !ok {
		return nil
	}
	classes := make([]int, 0, len(lq.queues))
	for class, q := range lq.queues {
		if q.Len() > 0 {
			classes = append(classes, class)
		}
	}
	return classes
}

// Links returns the links that have queues, in ascending order.
func (s *QueueSet) Links() []uint64 {
	links := make([]uint64, 0, len(s.links))
	for link := range s.links {
		links = append(links, link)
	}
	slices.Sort(links)
	return links
}

// Prune releases the queues of link if they are all empty, returning whether it did.
func (s *QueueSet) Prune(link uint64) bool {
	if _, ok := s.links[link]; !ok || !s.LinkEmpty(link) {
		return false
	}
	delete(s.links, link)
	return true
}

// Backlog returns the total number of queued items per class across all links.
func (s *QueueSet) Backlog() []int {
	backlog := make([]int, len(s.weights))
	for _, lq := range s.links {
		for class, q := range lq.queues {
			backlog[class] += q.Len()
		}
	}
	return backlog
}
