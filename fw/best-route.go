/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
)

// BestRoute forwards a request to the lowest-cost eligible next hop, and retransmissions to a
// next hop not tried yet, subject to exponential suppression.
type BestRoute struct {
	StrategyBase
}

// NewBestRoute creates the BestRoute strategy of an engine.
func NewBestRoute(engine *Engine) *BestRoute {
	return &BestRoute{StrategyBase{engine: engine, name: "BestRoute"}}
}

// AfterReceiveRequest forwards a new or retransmitted request unless it is suppressed.
func (s *BestRoute) AfterReceiveRequest(entry *table.PitEntry, request *ndn.Packet, inLink uint64, cl qos.Classification, nexthops []table.FibNextHopEntry) {
	e := s.engine
	now := e.clock.Now()
	decision := e.suppressor.DecidePerRequest(entry, now)
	if decision == qos.DecisionSuppress {
		e.counters.NSuppressed++
		core.LogTrace(s, "Request ", entry.Name, " is suppressed")
		return
	}

	nexthop, ok := s.choose(entry, decision, s.eligibleNextHops(request, inLink, nexthops))
	if !ok {
		core.LogDebug(s, "No eligible next hop for ", entry.Name, " - NACK")
		s.rejectNoRoute(entry, inLink)
		return
	}

	if !s.SendRequest(entry, request, inLink, nexthop, cl.Class) {
		s.rejectCongestion(entry, inLink)
		return
	}
	core.LogTrace(s, "Forwarding ", decision, " request ", entry.Name, " to LinkID=", nexthop)
	entry.Rejected = false
	e.suppressor.AfterRequestDecision(entry, decision)
	e.suppressor.RecordForward(entry, nexthop, request.Interest.Nonce, request.Interest.Lifetime, now)
}

// choose returns the first eligible next hop for a new request. A retransmission goes to an
// eligible next hop without an out-record, else to the one used longest ago.
func (s *BestRoute) choose(entry *table.PitEntry, decision qos.SuppressionDecision, eligible []uint64) (uint64, bool) {
	if len(eligible) == 0 {
		return 0, false
	}
	if decision == qos.DecisionNew {
		return eligible[0], true
	}

	earliest := eligible[0]
	for _, link := range eligible {
		record, used := entry.OutRecords[link]
		if !used {
			return link, true
		}
		if earliestRecord, ok := entry.OutRecords[earliest]; ok && record.LastSent < earliestRecord.LastSent {
			earliest = link
		}
	}
	return earliest, true
}
