/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"math"
	"strconv"
	"time"

	"github.com/iti/evt/evtm"
	"github.com/iti/rngstream"
	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/face"
	"github.com/named-data/qosfwd/fw"
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
)

// Simulator runs a topology through one forwarding thread on virtual time.
type Simulator struct {
	topo   *Topology
	evtMgr *evtm.EventManager
	clock  *EventClock
	links  *face.Table
	fib    *table.Fib
	thread *fw.Thread
	rng    *rngstream.RngStream

	producers []*producer
	flows     []*flow
}

type producer struct {
	desc     LinkDesc
	link     *face.MemoryLink
	prefixes []ndn.Name
	rng      *rngstream.RngStream
}

type flow struct {
	desc     FlowDesc
	link     *face.MemoryLink
	prefix   ndn.Name
	lifetime time.Duration
	seq      uint64
	// Send time of each outstanding request, by name.
	pending map[string]time.Duration
	result  flowResult
}

type flowResult struct {
	sent, satisfied, nacked, timedOut int
	latencies                         []float64
}

// NewSimulator builds the links, routes and flows of a topology around a forwarding thread.
func NewSimulator(topo *Topology, opts qos.Options) (*Simulator, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	ctx, err := qos.NewContext(opts)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		topo:   topo,
		evtMgr: evtm.New(),
		links:  face.NewTable(),
		fib:    table.NewFib(),
		rng:    rngstream.New("consumers"),
	}
	s.clock = NewEventClock(s.evtMgr)
	s.thread = fw.NewThreadWithClock(0, ctx, s.links, s.fib, s.clock)

	byID := make(map[string]*face.MemoryLink, len(topo.Links))
	producers := make(map[string]*producer)
	for _, desc := range topo.Links {
		linkType := face.PointToPoint
		if desc.AdHoc {
			linkType = face.AdHoc
		}
		link := face.NewMemoryLink(desc.ID, face.ScopeNonLocal, linkType)
		s.links.Add(link)
		byID[desc.ID] = link
		if desc.Role == RoleProducer {
			p := &producer{desc: desc, link: link, rng: rngstream.New("producer-" + desc.ID)}
			link.OnSend = func(frame []byte) { s.onProducerFrame(p, frame) }
			producers[desc.ID] = p
			s.producers = append(s.producers, p)
		} else {
			link.OnSend = func(frame []byte) { s.onConsumerFrame(link, frame) }
		}
	}

	for _, route := range topo.Routes {
		prefix := ndn.MustNameFromString(route.Prefix)
		s.fib.InsertNextHop(prefix, byID[route.Link].ID(), route.Cost)
		if p, ok := producers[route.Link]; ok {
			p.prefixes = append(p.prefixes, prefix)
		}
	}

	for _, desc := range topo.Flows {
		s.flows = append(s.flows, &flow{
			desc:     desc,
			link:     byID[desc.Consumer],
			prefix:   ndn.MustNameFromString(desc.Prefix),
			lifetime: secondsToDuration(desc.Lifetime),
			pending:  make(map[string]time.Duration),
		})
	}
	return s, nil
}

func (s *Simulator) String() string {
	return "Simulator"
}

// Thread returns the simulated forwarding thread.
func (s *Simulator) Thread() *fw.Thread {
	return s.thread
}

// Run executes the scenario and returns the per-flow report. Flows stop at the topology
// duration; the simulation continues until their last requests are answered or expire.
func (s *Simulator) Run() *Report {
	end := secondsToDuration(s.topo.Duration)
	settle := 0.0
	for _, f := range s.flows {
		settle = math.Max(settle, f.desc.Lifetime)
		s.scheduleRequest(f, 0, end)
	}
	for _, p := range s.producers {
		settle = math.Max(settle, p.desc.Delay)
	}
	limit := secondsToDuration(s.topo.Duration + settle + s.topo.Tick)
	s.scheduleTick(secondsToDuration(s.topo.Tick), limit)

	core.LogInfo(s, "Running ", len(s.flows), " flows for ", s.topo.Duration, "s")
	s.evtMgr.Run(s.topo.Duration + settle + 2*s.topo.Tick)
	return s.report()
}

func (s *Simulator) scheduleTick(interval time.Duration, limit time.Duration) {
	s.clock.Schedule(interval, func() {
		s.thread.Tick()
		if s.clock.Now() < limit {
			s.scheduleTick(interval, limit)
		}
	})
}

// scheduleRequest schedules the request with sequence number seq at seq/rate.
func (s *Simulator) scheduleRequest(f *flow, seq uint64, end time.Duration) {
	at := secondsToDuration(float64(seq) / f.desc.Rate)
	if at >= end {
		return
	}
	s.clock.Schedule(at-s.clock.Now(), func() {
		s.sendRequest(f)
		s.scheduleRequest(f, seq+1, end)
	})
}

func (s *Simulator) sendRequest(f *flow) {
	name := make(ndn.Name, 0, len(f.prefix)+1)
	name = append(name, f.prefix...)
	name = append(name, ndn.NewGenericComponent(strconv.FormatUint(f.seq, 10)))
	f.seq++
	interest := &ndn.Interest{
		Name:     name,
		Nonce:    uint32(s.rng.RandU01() * math.MaxUint32),
		Lifetime: f.lifetime,
	}
	key := name.String()
	f.pending[key] = s.clock.Now()
	f.result.sent++

	s.clock.Schedule(f.lifetime, func() {
		if _, ok := f.pending[key]; ok {
			delete(f.pending, key)
			f.result.timedOut++
		}
	})
	s.thread.ProcessFrame(f.link, interest.Encode())
}

func (s *Simulator) onConsumerFrame(link *face.MemoryLink, frame []byte) {
	packet, err := ndn.DecodePacket(frame)
	if err != nil {
		core.LogWarn(s, "Undecodable frame to ", link, " (", err, ")")
		return
	}
	name := packet.Name()
	for _, f := range s.flows {
		if f.link != link || !f.prefix.PrefixOf(name) {
			continue
		}
		key := name.String()
		sentAt, ok := f.pending[key]
		if !ok {
			continue
		}
		delete(f.pending, key)
		switch packet.Kind {
		case ndn.KindResponse:
			f.result.satisfied++
			f.result.latencies = append(f.result.latencies, (s.clock.Now() - sentAt).Seconds())
		case ndn.KindNack:
			f.result.nacked++
		}
		return
	}
}

func (s *Simulator) onProducerFrame(p *producer, frame []byte) {
	packet, err := ndn.DecodePacket(frame)
	if err != nil || packet.Kind != ndn.KindRequest {
		return
	}
	name := packet.Interest.Name
	serves := false
	for _, prefix := range p.prefixes {
		if prefix.PrefixOf(name) {
			serves = true
			break
		}
	}
	if !serves || p.rng.RandU01() < p.desc.Loss {
		core.LogTrace(s, "Producer ", p.desc.ID, " drops ", name)
		return
	}

	data := &ndn.Data{Name: name, Content: []byte(p.desc.ID)}
	s.clock.Schedule(secondsToDuration(p.desc.Delay), func() {
		s.thread.ProcessFrame(p.link, data.Encode())
	})
}
