/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"strconv"
	"time"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/face"
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
)

type incomingFrame struct {
	link face.Link
	wire []byte
}

// Thread Represents a forwarding thread. All PIT, queue and estimator state is owned by the
// goroutine that runs it; other goroutines reach it through QueueFrame, Post and RequestStats.
type Thread struct {
	threadID      int
	clock         Clock
	wall          *wallClock
	engine        *Engine
	pit           *table.Pit
	deadNonceList *table.DeadNonceList

	frames        chan incomingFrame
	tasks         chan func()
	statsRequests chan chan Stats
	shouldQuit    chan interface{}
	HasQuit       chan interface{}
}

// NewThread creates a forwarding thread that runs on the wall clock.
func NewThread(id int, ctx *qos.Context, links LinkTable, fib NextHopTable) *Thread {
	wall := newWallClock()
	t := NewThreadWithClock(id, ctx, links, fib, wall)
	t.wall = wall
	return t
}

// NewThreadWithClock creates a forwarding thread driven by clock. Such a thread is normally
// driven by calling ProcessFrame and Tick directly rather than by Run.
func NewThreadWithClock(id int, ctx *qos.Context, links LinkTable, fib NextHopTable, clock Clock) *Thread {
	return &Thread{
		threadID:      id,
		clock:         clock,
		engine:        NewEngine(ctx, clock, links, fib),
		pit:           table.NewPit(),
		deadNonceList: table.NewDeadNonceList(),
		frames:        make(chan incomingFrame, fwQueueSize),
		tasks:         make(chan func(), 16),
		statsRequests: make(chan chan Stats),
		shouldQuit:    make(chan interface{}, 1),
		HasQuit:       make(chan interface{}),
	}
}

func (t *Thread) String() string {
	return "FwThread-" + strconv.Itoa(t.threadID)
}

// GetID returns the ID of the forwarding thread
func (t *Thread) GetID() int {
	return t.threadID
}

// Engine returns the forwarding engine of the thread.
func (t *Thread) Engine() *Engine {
	return t.engine
}

// GetNumPitEntries returns the number of entries in this thread's PIT.
func (t *Thread) GetNumPitEntries() int {
	return t.pit.Size()
}

// TellToQuit tells the forwarding thread to quit
func (t *Thread) TellToQuit() {
	core.LogInfo(t, "Told to quit")
	t.shouldQuit <- true
}

// Run forwarding thread
func (t *Thread) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var fired chan uint64
	if t.wall != nil {
		fired = t.wall.fired
	}

	for {
		select {
		case frame := <-t.frames:
			t.ProcessFrame(frame.link, frame.wire)
		case id := <-fired:
			t.wall.fire(id)
		case <-ticker.C:
			t.Tick()
		case task := <-t.tasks:
			task()
		case reply := <-t.statsRequests:
			reply <- t.Stats()
		case <-t.shouldQuit:
			core.LogInfo(t, "Stopping thread")
			if t.wall != nil {
				t.wall.stop()
			}
			close(t.HasQuit)
			return
		}
	}
}

// QueueFrame queues a received frame for processing by this forwarding thread. It has the
// signature of face.FrameHandler.
func (t *Thread) QueueFrame(link face.Link, frame []byte) {
	select {
	case t.frames <- incomingFrame{link: link, wire: frame}:
	case <-t.HasQuit:
	}
}

// Post runs task on the forwarding thread.
func (t *Thread) Post(task func()) {
	select {
	case t.tasks <- task:
	case <-t.HasQuit:
	}
}

// RequestStats asks the running thread for a snapshot. ok is false if the thread has quit.
func (t *Thread) RequestStats() (stats Stats, ok bool) {
	reply := make(chan Stats, 1)
	select {
	case t.statsRequests <- reply:
	case <-t.HasQuit:
		return stats, false
	}
	select {
	case stats = <-reply:
		return stats, true
	case <-t.HasQuit:
		return stats, false
	}
}

// Stats returns a snapshot of the thread. It must be called on the forwarding thread.
func (t *Thread) Stats() Stats {
	stats := t.engine.Stats()
	stats.ThreadID = t.threadID
	stats.PitSize = t.pit.Size()
	return stats
}

// Tick advances the scheduler by one tick.
func (t *Thread) Tick() {
	t.engine.Tick()
}

// ForgetLink discards the queued packets of a removed link.
func (t *Thread) ForgetLink(id uint64) {
	core.LogDebug(t, "Forgetting LinkID=", id)
	t.engine.ForgetLink(id)
}

// ProcessFrame runs the incoming pipeline on a frame received from link.
func (t *Thread) ProcessFrame(link face.Link, wire []byte) {
	packet, err := ndn.DecodePacket(wire)
	if err != nil {
		core.LogInfo(t, "Unable to decode frame from ", link, " (", err, ") - DROP")
		return
	}

	switch packet.Kind {
	case ndn.KindRequest:
		t.processIncomingRequest(link, packet)
	case ndn.KindResponse:
		t.processIncomingResponse(link, packet)
	case ndn.KindNack:
		t.processIncomingNack(link, packet)
	}
}

func (t *Thread) processIncomingRequest(link face.Link, packet *ndn.Packet) {
	interest := packet.Interest
	core.LogTrace(t, "OnIncomingRequest: ", interest.Name, ", LinkID=", link.ID())

	// Drop if HopLimit present and is 0. Else, decrement by 1
	if interest.HopLimit != nil {
		if *interest.HopLimit == 0 {
			core.LogDebug(t, "Received request=", interest.Name, " with HopLimit=0 - DROP")
			return
		}
		*interest.HopLimit--
		packet.Wire = interest.Encode()
	}

	if face.WouldViolateScope(interest.Name, link) {
		core.LogWarn(t, "Request ", interest.Name, " from non-local LinkID=", link.ID(), " violates /localhost scope - DROP")
		return
	}

	t.engine.counters.NInRequests++
	now := t.clock.Now()

	if t.deadNonceList.Find(interest.Name, interest.Nonce, now) {
		core.LogTrace(t, "Request ", interest.Name, " matches Dead Nonce List - DROP")
		return
	}

	entry, isDuplicate := t.pit.FindOrInsert(interest, link.ID())
	if isDuplicate {
		core.LogInfo(t, "Request ", interest.Name, " is looping - DROP")
		return
	}

	entry.InsertInRecord(interest, packet.Wire, link.ID(), now)
	t.scheduleExpiry(entry, now)
	t.engine.OnRequestReceived(entry, packet, link.ID())
}

func (t *Thread) processIncomingResponse(link face.Link, packet *ndn.Packet) {
	data := packet.Data
	core.LogTrace(t, "OnIncomingResponse: ", data.Name, ", LinkID=", link.ID())
	t.engine.counters.NInResponses++

	if face.WouldViolateScope(data.Name, link) {
		core.LogWarn(t, "Response ", data.Name, " from non-local LinkID=", link.ID(), " violates /localhost scope - DROP")
		return
	}

	entry := t.pit.Find(data.Name)
	if entry == nil {
		core.LogDebug(t, "Unsolicited response ", data.Name, " - DROP")
		return
	}
	t.engine.OnResponseReceived(entry, packet, link.ID())
	t.finalizeRequest(entry)
}

func (t *Thread) processIncomingNack(link face.Link, packet *ndn.Packet) {
	name := packet.Interest.Name
	core.LogTrace(t, "OnIncomingNack: ", name, ", Reason=", packet.NackReason, ", LinkID=", link.ID())
	t.engine.counters.NInNacks++

	entry := t.pit.Find(name)
	if entry == nil {
		core.LogDebug(t, "Nack for ", name, " has no PIT entry - DROP")
		return
	}
	if t.engine.OnNegativeAckReceived(entry, packet, link.ID()) {
		t.finalizeRequest(entry)
	}
}

func (t *Thread) scheduleExpiry(entry *table.PitEntry, now time.Duration) {
	if entry.ExpiryTimer != 0 {
		t.clock.Cancel(entry.ExpiryTimer)
	}
	expiration := entry.UpdateExpirationTime()
	entry.ExpiryTimer = t.clock.Schedule(expiration-now, func() {
		entry.ExpiryTimer = 0
		core.LogTrace(t, "OnPendingRequestExpired: ", entry.Name)
		t.engine.OnPendingRequestExpired(entry)
		t.finalizeRequest(entry)
	})
}

func (t *Thread) finalizeRequest(entry *table.PitEntry) {
	now := t.clock.Now()
	for _, record := range entry.OutRecords {
		t.deadNonceList.Insert(entry.Name, record.LatestNonce, now)
	}
	if !entry.Satisfied {
		t.engine.counters.NUnsatisfiedRequests += uint64(len(entry.InRecords))
	}
	if entry.ExpiryTimer != 0 {
		t.clock.Cancel(entry.ExpiryTimer)
		entry.ExpiryTimer = 0
	}
	t.pit.Remove(entry)
}
