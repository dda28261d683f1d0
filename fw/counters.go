/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import "golang.org/x/exp/slices"

// Counters are the packet counters of a forwarding thread.
type Counters struct {
	NInRequests   uint64
	NInResponses  uint64
	NInNacks      uint64
	NOutRequests  uint64
	NOutResponses uint64
	NOutNacks     uint64

	NSatisfiedRequests   uint64
	NUnsatisfiedRequests uint64

	// NQueueDrops counts items refused by a full queue or discarded with their link.
	NQueueDrops uint64
	NStaleDrops uint64
	NSuppressed uint64
	NNoRoute    uint64
	NSendErrors uint64

	NSentPerClass []uint64
}

func (c *Counters) clone() Counters {
	clone := *c
	clone.NSentPerClass = slices.Clone(c.NSentPerClass)
	return clone
}

// Stats is a snapshot of the state of a forwarding thread.
type Stats struct {
	Counters
	ThreadID          int
	PitSize           int
	Ticks             uint64
	Backlog           []int
	EstimatorPrefixes int
	MonitoredPrefixes int
}
