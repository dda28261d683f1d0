/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
)

// Strategy picks the upstream links of a request and queues the request towards them.
type Strategy interface {
	String() string
	AfterReceiveRequest(entry *table.PitEntry, request *ndn.Packet, inLink uint64, cl qos.Classification, nexthops []table.FibNextHopEntry)
}

// StrategyBase provides common helper methods for strategies.
type StrategyBase struct {
	engine *Engine
	name   string
}

func (s *StrategyBase) String() string {
	return "Strategy-" + s.name
}

// eligibleNextHops returns the next hops a request may be sent to, in cost order.
func (s *StrategyBase) eligibleNextHops(request *ndn.Packet, inLink uint64, nexthops []table.FibNextHopEntry) []uint64 {
	eligible := make([]uint64, 0, len(nexthops))
	for _, nexthop := range nexthops {
		if s.engine.isEligible(nexthop.Nexthop, inLink, request.Interest) {
			eligible = append(eligible, nexthop.Nexthop)
		}
	}
	return eligible
}

// SendRequest queues the request towards nexthop. It returns false if the queue is full.
func (s *StrategyBase) SendRequest(entry *table.PitEntry, request *ndn.Packet, inLink uint64, nexthop uint64, class int) bool {
	return s.engine.enqueue(nexthop, class, &qos.QueueItem{
		Wire:   request.Wire,
		Kind:   ndn.KindRequest,
		InLink:  inLink,
		OutLink: nexthop,
		Entry:   entry,
	})
}

// SendNack queues a Nack towards a downstream link.
func (s *StrategyBase) SendNack(entry *table.PitEntry, downstream uint64, reason ndn.NackReason) {
	s.engine.sendNack(entry, downstream, reason)
}

// rejectNoRoute answers a request that has nowhere to go.
func (s *StrategyBase) rejectNoRoute(entry *table.PitEntry, inLink uint64) {
	s.engine.counters.NNoRoute++
	entry.Rejected = true
	s.SendNack(entry, inLink, ndn.NackReasonNoRoute)
}

// rejectCongestion answers a request whose queues are all full. The entry is rejected unless an
// earlier copy is still pending upstream.
func (s *StrategyBase) rejectCongestion(entry *table.PitEntry, inLink uint64) {
	if len(entry.PendingUpstreams(s.engine.clock.Now())) == 0 {
		entry.Rejected = true
	}
	s.SendNack(entry, inLink, ndn.NackReasonCongestion)
}
