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

// FanOut forwards a request to as many next hops as needed for their estimated delivery
// probabilities to add up to the tier target. Each upstream is suppressed on its own.
type FanOut struct {
	StrategyBase
}

// NewFanOut creates the FanOut strategy of an engine.
func NewFanOut(engine *Engine) *FanOut {
	return &FanOut{StrategyBase{engine: engine, name: "FanOut"}}
}

// AfterReceiveRequest forwards a request to the next hops picked by the reliability estimator.
func (s *FanOut) AfterReceiveRequest(entry *table.PitEntry, request *ndn.Packet, inLink uint64, cl qos.Classification, nexthops []table.FibNextHopEntry) {
	e := s.engine
	now := e.clock.Now()
	e.estimator.CountPacket(cl.Prefix)

	candidates := make([]uint64, 0, len(nexthops))
	suppressed := 0
	for _, link := range s.eligibleNextHops(request, inLink, nexthops) {
		if e.suppressor.DecidePerUpstream(entry, link, now) == qos.DecisionSuppress {
			suppressed++
			continue
		}
		candidates = append(candidates, link)
	}

	chosen := e.estimator.SelectLinks(cl.Prefix, candidates, cl.Target, nil)
	if len(chosen) == 0 {
		if suppressed > 0 {
			e.counters.NSuppressed++
			core.LogTrace(s, "Request ", entry.Name, " is suppressed on all ", suppressed, " upstreams")
			return
		}
		core.LogDebug(s, "No eligible next hop for ", entry.Name, " - NACK")
		s.rejectNoRoute(entry, inLink)
		return
	}

	queued := 0
	for _, link := range chosen {
		if s.SendRequest(entry, request, inLink, link, cl.Class) {
			core.LogTrace(s, "Forwarding request ", entry.Name, " to LinkID=", link)
			e.suppressor.RecordForward(entry, link, request.Interest.Nonce, request.Interest.Lifetime, now)
			queued++
		}
	}
	if queued == 0 {
		core.LogDebug(s, "All queues towards ", len(chosen), " next hops of ", entry.Name, " are full - NACK")
		s.rejectCongestion(entry, inLink)
		return
	}
	entry.Rejected = false
}
