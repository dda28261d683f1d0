/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"golang.org/x/exp/slices"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/face"
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
)

// LinkTable resolves link IDs to links.
type LinkTable interface {
	Get(id uint64) face.Link
}

// NextHopTable returns the next hops of a name, lowest cost first.
type NextHopTable interface {
	FindNextHops(name ndn.Name) []table.FibNextHopEntry
}

// Engine makes the forwarding decisions of one thread. It classifies packets, picks upstream
// links, queues packets per link and class, and drains the queues as tokens allow.
type Engine struct {
	ctx   *qos.Context
	clock Clock
	links LinkTable
	fib   NextHopTable

	classifier *qos.Classifier
	monitor    *qos.FlowMonitor
	suppressor *qos.Suppressor
	estimator  *qos.ReliabilityEstimator

	bestRoute Strategy
	fanOut    Strategy

	// Links whose drain stopped on token starvation or a saturated send queue.
	blocked  map[uint64]struct{}
	counters Counters
}

// NewEngine creates an engine on a scheduler context.
func NewEngine(ctx *qos.Context, clock Clock, links LinkTable, fib NextHopTable) *Engine {
	opts := &ctx.Options
	e := &Engine{
		ctx:        ctx,
		clock:      clock,
		links:      links,
		fib:        fib,
		suppressor: qos.NewSuppressor(opts),
		estimator:  qos.NewReliabilityEstimator(opts),
		blocked:    make(map[uint64]struct{}),
	}
	if opts.Mitigation.Enabled {
		e.monitor = qos.NewFlowMonitor(opts)
	}
	e.classifier = qos.NewClassifier(opts, e.monitor)
	e.counters.NSentPerClass = make([]uint64, opts.NumClasses())
	e.bestRoute = NewBestRoute(e)
	e.fanOut = NewFanOut(e)
	return e
}

func (e *Engine) String() string {
	return "Engine"
}

// Context returns the scheduler context.
func (e *Engine) Context() *qos.Context {
	return e.ctx
}

// Estimator returns the reliability estimator.
func (e *Engine) Estimator() *qos.ReliabilityEstimator {
	return e.estimator
}

// Monitor returns the flow monitor, or nil when mitigation is disabled.
func (e *Engine) Monitor() *qos.FlowMonitor {
	return e.monitor
}

// Counters returns a copy of the counters.
func (e *Engine) Counters() Counters {
	return e.counters.clone()
}

// Stats fills the engine part of a thread snapshot.
func (e *Engine) Stats() Stats {
	stats := Stats{
		Counters:          e.counters.clone(),
		Ticks:             e.ctx.Ticks(),
		Backlog:           e.ctx.Queues.Backlog(),
		EstimatorPrefixes: e.estimator.Len(),
	}
	if e.monitor != nil {
		stats.MonitoredPrefixes = e.monitor.Len()
	}
	return stats
}

// OnRequestReceived forwards a request whose in-record has been inserted into entry.
func (e *Engine) OnRequestReceived(entry *table.PitEntry, request *ndn.Packet, inLink uint64) {
	name := request.Interest.Name
	cl := e.classifier.Classify(name)
	entry.Class = cl.Class
	entry.FanOut = cl.FanOut()

	strategy := e.bestRoute
	if cl.FanOut() {
		strategy = e.fanOut
	}
	core.LogTrace(e, "OnRequestReceived: ", name, ", LinkID=", inLink, ", Class=", cl.Class, ", Strategy=", strategy)
	strategy.AfterReceiveRequest(entry, request, inLink, cl, e.fib.FindNextHops(name))
	e.Drain()
}

// OnResponseReceived queues a response to the pending downstreams of entry and marks it satisfied.
func (e *Engine) OnResponseReceived(entry *table.PitEntry, response *ndn.Packet, inLink uint64) {
	now := e.clock.Now()
	name := response.Data.Name
	cl := e.classifier.Classify(name)
	core.LogTrace(e, "OnResponseReceived: ", name, ", LinkID=", inLink)

	if _, ok := entry.OutRecords[inLink]; ok {
		e.estimator.RecordSuccess(cl.Prefix, inLink, entry.DispatchedUpstreams(now, true))
	}

	adHoc := false
	if link := e.links.Get(inLink); link != nil {
		adHoc = link.LinkType() == face.AdHoc
	}
	for _, downstream := range entry.PendingDownstreams(now) {
		if downstream == inLink && !adHoc {
			continue
		}
		item := &qos.QueueItem{Wire: response.Wire, Kind: ndn.KindResponse, InLink: inLink}
		if e.enqueue(downstream, cl.Class, item) {
			e.counters.NSatisfiedRequests++
		}
	}
	entry.Satisfied = true
	if e.monitor != nil {
		e.monitor.Observe(cl.Prefix, false)
	}
	e.Drain()
}

// OnNegativeAckReceived records a Nack from an upstream. When no upstream remains pending, the
// Nack is queued to every pending downstream, the entry is rejected and true is returned.
func (e *Engine) OnNegativeAckReceived(entry *table.PitEntry, nack *ndn.Packet, inLink uint64) bool {
	now := e.clock.Now()
	record, ok := entry.OutRecords[inLink]
	if !ok || record.LatestNonce != nack.Interest.Nonce {
		core.LogDebug(e, "Nack for ", entry.Name, " from LinkID=", inLink, " does not match an out-record - DROP")
		return false
	}
	record.Nacked = true
	record.NackReason = nack.NackReason

	cl := e.classifier.Classify(entry.Name)
	e.estimator.RecordFailure(cl.Prefix, []uint64{inLink})
	if len(entry.PendingUpstreams(now)) > 0 {
		return false
	}

	core.LogDebug(e, "All upstreams of ", entry.Name, " nacked, last reason ", nack.NackReason)
	for _, downstream := range entry.PendingDownstreams(now) {
		e.sendNack(entry, downstream, nack.NackReason)
	}
	entry.Rejected = true
	if e.monitor != nil {
		e.monitor.Observe(cl.Prefix, true)
	}
	e.Drain()
	return true
}

// OnPendingRequestExpired counts the failure of every upstream an unanswered request was sent to.
func (e *Engine) OnPendingRequestExpired(entry *table.PitEntry) {
	if entry.Satisfied || entry.Rejected {
		return
	}
	cl := e.classifier.Classify(entry.Name)
	outstanding := entry.DispatchedUpstreams(e.clock.Now(), false)
	if len(outstanding) > 0 {
		e.estimator.RecordFailure(cl.Prefix, outstanding)
	}
	if e.monitor != nil {
		e.monitor.Observe(cl.Prefix, true)
	}
}

// Tick advances the logical clock and drains the links that gathered tokens or were blocked.
func (e *Engine) Tick() {
	ready := make([]uint64, 0, len(e.blocked))
	for link := range e.blocked {
		ready = append(ready, link)
	}
	for _, signal := range e.ctx.Tick() {
		ready = append(ready, signal.Link)
	}
	slices.Sort(ready)
	ready = slices.Compact(ready)
	for _, link := range ready {
		e.DrainLink(link)
	}
}

// Drain drains every link that has queued items.
func (e *Engine) Drain() {
	for _, link := range e.ctx.Queues.Links() {
		e.DrainLink(link)
	}
}

// DrainLink sends queued items of a link until its queues are empty, no class has tokens left
// or the link send queue is saturated.
func (e *Engine) DrainLink(id uint64) {
	link := e.links.Get(id)
	if link == nil {
		e.ForgetLink(id)
		return
	}

	queues := e.ctx.Queues
	buckets := e.ctx.Buckets
	for {
		if queues.LinkEmpty(id) {
			queues.Prune(id)
			delete(e.blocked, id)
			return
		}
		if e.isSaturated(link) {
			e.blocked[id] = struct{}{}
			return
		}

		class, ok := queues.SelectClassToSend(id, func(class int) bool {
			return buckets.Available(class, id)
		})
		if !ok {
			for _, waiting := range queues.NonEmptyClasses(id) {
				buckets.Bucket(waiting).SetNeed(id, qos.SendThreshold)
			}
			e.blocked[id] = struct{}{}
			return
		}

		bucket := buckets.Bucket(class)
		bucket.Consume(qos.SendThreshold, id)
		bucket.SetNeed(id, 0)
		item, err := queues.Dequeue(id, class)
		if err != nil {
			core.LogError(e, "Unable to dequeue class ", class, " of LinkID=", id, ": ", err)
			return
		}
		if item.Kind == ndn.KindRequest && item.Entry != nil && !item.Entry.IsPending() {
			e.counters.NStaleDrops++
			core.LogTrace(e, "Request ", item.Entry.Name, " no longer pending - DROP")
			continue
		}
		e.dispatch(link, class, item)
	}
}

// ForgetLink discards the queues and token state of a link.
func (e *Engine) ForgetLink(id uint64) {
	dropped := e.ctx.ForgetLink(id)
	delete(e.blocked, id)
	if len(dropped) > 0 {
		e.counters.NQueueDrops += uint64(len(dropped))
		core.LogDebug(e, "Discarded ", len(dropped), " queued items of LinkID=", id)
	}
}

func (e *Engine) dispatch(link face.Link, class int, item *qos.QueueItem) {
	if err := link.Send(item.Wire); err != nil {
		e.counters.NSendErrors++
		core.LogWarn(e, "Unable to send ", item.Kind, " on ", link, " (", err, ") - DROP")
		return
	}
	switch item.Kind {
	case ndn.KindRequest:
		e.counters.NOutRequests++
		if item.Entry != nil {
			if record, ok := item.Entry.OutRecords[link.ID()]; ok {
				record.Dispatched = true
			}
		}
	case ndn.KindResponse:
		e.counters.NOutResponses++
	case ndn.KindNack:
		e.counters.NOutNacks++
	}
	e.counters.NSentPerClass[class]++
}

func (e *Engine) enqueue(link uint64, class int, item *qos.QueueItem) bool {
	if !e.ctx.Queues.Enqueue(link, class, item) {
		e.counters.NQueueDrops++
		core.LogDebug(e, "Class ", class, " queue of LinkID=", link, " is full - DROP ", item.Kind)
		return false
	}
	return true
}

func (e *Engine) sendNack(entry *table.PitEntry, downstream uint64, reason ndn.NackReason) {
	record, ok := entry.InRecords[downstream]
	if !ok {
		return
	}
	item := &qos.QueueItem{
		Wire:   ndn.EncodeNack(record.LatestWire, reason),
		Kind:   ndn.KindNack,
		InLink: downstream,
	}
	e.enqueue(downstream, entry.Class, item)
}

// isEligible returns whether a request may be sent to the link.
func (e *Engine) isEligible(id uint64, inLink uint64, interest *ndn.Interest) bool {
	link := e.links.Get(id)
	if link == nil {
		return false
	}
	if id == inLink && link.LinkType() != face.AdHoc {
		return false
	}
	if face.WouldViolateScope(interest.Name, link) {
		return false
	}
	if interest.HopLimit != nil && *interest.HopLimit == 0 && link.Scope() == face.ScopeNonLocal {
		return false
	}
	return !e.isSaturated(link)
}

func (e *Engine) isSaturated(link face.Link) bool {
	limit := e.ctx.Options.OccupancyLimit
	if limit == 0 {
		return false
	}
	reporter, ok := link.(face.OccupancyReporter)
	if !ok {
		return false
	}
	size, ok := reporter.SendQueueSize()
	return ok && size >= limit
}
