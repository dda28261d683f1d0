/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/named-data/qosfwd/face"
	"github.com/named-data/qosfwd/fw"
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock  *fw.ManualClock
	links  *face.Table
	fib    *table.Fib
	thread *fw.Thread
}

func newFixture(t *testing.T, mutate func(opts *qos.Options)) *fixture {
	opts := qos.DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	ctx, err := qos.NewContext(opts)
	require.NoError(t, err)
	f := &fixture{
		clock: fw.NewManualClock(),
		links: face.NewTable(),
		fib:   table.NewFib(),
	}
	f.thread = fw.NewThreadWithClock(0, ctx, f.links, f.fib, f.clock)
	return f
}

func (f *fixture) addLink(name string) *face.MemoryLink {
	link := face.NewMemoryLink(name, face.ScopeNonLocal, face.PointToPoint)
	f.links.Add(link)
	return link
}

func (f *fixture) route(prefix string, link face.Link, cost uint64) {
	f.fib.InsertNextHop(ndn.MustNameFromString(prefix), link.ID(), cost)
}

func singleToken(opts *qos.Options) {
	opts.BucketCapacity = []float64{1, 1, 1}
	opts.BucketRefill = []float64{1, 1, 1}
}

func request(name string, nonce uint32) []byte {
	interest := &ndn.Interest{Name: ndn.MustNameFromString(name), Nonce: nonce, Lifetime: ndn.DefaultInterestLifetime}
	return interest.Encode()
}

func response(name string) []byte {
	data := &ndn.Data{Name: ndn.MustNameFromString(name), Content: []byte("payload")}
	return data.Encode()
}

func decode(t *testing.T, wire []byte) *ndn.Packet {
	packet, err := ndn.DecodePacket(wire)
	require.NoError(t, err)
	return packet
}

func TestBestRouteLowestCost(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	p2 := f.addLink("p2")
	f.route("/app", p1, 10)
	f.route("/app", p2, 5)

	wire := request("/app/video/1", 1)
	f.thread.ProcessFrame(consumer, wire)
	assert.Empty(t, p1.Sent())
	require.Len(t, p2.Sent(), 1)
	assert.Equal(t, wire, p2.Sent()[0])
	assert.Equal(t, 1, f.thread.GetNumPitEntries())

	f.thread.ProcessFrame(p2, response("/app/video/1"))
	require.Len(t, consumer.Sent(), 1)
	assert.Equal(t, ndn.KindResponse, decode(t, consumer.Sent()[0]).Kind)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
	assert.Equal(t, 0, f.clock.Pending())

	stats := f.thread.Stats()
	assert.Equal(t, uint64(1), stats.NInRequests)
	assert.Equal(t, uint64(1), stats.NOutRequests)
	assert.Equal(t, uint64(1), stats.NInResponses)
	assert.Equal(t, uint64(1), stats.NOutResponses)
	assert.Equal(t, uint64(1), stats.NSatisfiedRequests)
	assert.Equal(t, []uint64{0, 0, 2}, stats.NSentPerClass)
}

func TestNoRouteNack(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	require.Len(t, consumer.Sent(), 1)
	nack := decode(t, consumer.Sent()[0])
	assert.Equal(t, ndn.KindNack, nack.Kind)
	assert.Equal(t, ndn.NackReasonNoRoute, nack.NackReason)
	assert.Equal(t, "/app/video/1", nack.Interest.Name.String())
	assert.Equal(t, uint64(1), f.thread.Stats().NNoRoute)

	f.clock.Advance(ndn.DefaultInterestLifetime)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
	assert.Equal(t, uint64(1), f.thread.Stats().NUnsatisfiedRequests)
	assert.Nil(t, f.thread.Engine().Estimator().Stats("/app/video"))
}

func TestNoRouteBackToInboundLink(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	f.route("/app", consumer, 0)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	require.Len(t, consumer.Sent(), 1)
	assert.Equal(t, ndn.NackReasonNoRoute, decode(t, consumer.Sent()[0]).NackReason)
}

func TestRetransmissionSuppression(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.clock.Advance(5 * time.Millisecond)
	f.thread.ProcessFrame(consumer, request("/app/video/1", 2))
	assert.Len(t, p1.Sent(), 1)
	assert.Equal(t, uint64(1), f.thread.Stats().NSuppressed)

	f.clock.Advance(5 * time.Millisecond)
	f.thread.ProcessFrame(consumer, request("/app/video/1", 3))
	require.Len(t, p1.Sent(), 2)
	assert.Equal(t, uint32(3), decode(t, p1.Sent()[1]).Interest.Nonce)
}

func TestRetransmissionTriesUnusedNextHop(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	p2 := f.addLink("p2")
	f.route("/app", p1, 1)
	f.route("/app", p2, 2)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.clock.Advance(10 * time.Millisecond)
	f.thread.ProcessFrame(consumer, request("/app/video/1", 2))
	assert.Len(t, p1.Sent(), 1)
	assert.Len(t, p2.Sent(), 1)
}

func TestFanOutBeforeBootstrapReachesAll(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	producers := []*face.MemoryLink{f.addLink("p1"), f.addLink("p2"), f.addLink("p3")}
	for i, p := range producers {
		f.route("/app", p, uint64(i))
	}

	f.thread.ProcessFrame(consumer, request("/app/typeI/1", 1))
	for _, p := range producers {
		assert.Len(t, p.Sent(), 1, p.String())
	}
	assert.Equal(t, []uint64{3, 0, 0}, f.thread.Stats().NSentPerClass)
}

func TestFanOutLearnsFromNacks(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	p2 := f.addLink("p2")
	f.route("/app", p1, 1)
	f.route("/app", p2, 2)

	for i := 1; i <= 2; i++ {
		name := "/app/typeI/" + strconv.Itoa(i)
		f.thread.ProcessFrame(consumer, request(name, uint32(i)))
		require.Len(t, p2.Sent(), i)
		f.thread.ProcessFrame(p2, ndn.EncodeNack(p2.Sent()[i-1], ndn.NackReasonCongestion))
		assert.Equal(t, 1, f.thread.GetNumPitEntries(), "p1 is still pending")
		f.thread.ProcessFrame(p1, response(name))
		assert.Equal(t, 0, f.thread.GetNumPitEntries())
	}
	stats := f.thread.Engine().Estimator().Stats("/app/typeI")
	require.NotNil(t, stats)
	assert.Greater(t, stats.AbsLoss[p2.ID()], 0.9)
	assert.Equal(t, 0.0, stats.AbsLoss[p1.ID()])

	f.thread.ProcessFrame(consumer, request("/app/typeI/3", 3))
	assert.Len(t, p1.Sent(), 3)
	assert.Len(t, p2.Sent(), 2)
	assert.Len(t, consumer.Sent(), 2)
}

func TestFullQueueAnswersCongestion(t *testing.T) {
	for _, tier := range []string{"video", "typeI"} {
		f := newFixture(t, func(opts *qos.Options) {
			singleToken(opts)
			opts.QueueCapacity = []int{1, 1, 1}
		})
		consumer := f.addLink("consumer")
		p1 := f.addLink("p1")
		f.route("/app", p1, 1)

		for i := 1; i <= 3; i++ {
			f.thread.ProcessFrame(consumer, request("/app/"+tier+"/"+strconv.Itoa(i), uint32(i)))
		}
		assert.Len(t, p1.Sent(), 1, tier)
		require.Len(t, consumer.Sent(), 1, tier)
		nack := decode(t, consumer.Sent()[0])
		assert.Equal(t, ndn.KindNack, nack.Kind, tier)
		assert.Equal(t, ndn.NackReasonCongestion, nack.NackReason, tier)
		assert.Equal(t, "/app/"+tier+"/3", nack.Interest.Name.String())
		assert.Equal(t, uint64(1), f.thread.Stats().NQueueDrops, tier)

		// Only the request that left on p1 counts against it
		f.clock.Advance(ndn.DefaultInterestLifetime)
		assert.Equal(t, 0, f.thread.GetNumPitEntries(), tier)
		stats := f.thread.Engine().Estimator().Stats("/app/" + tier)
		require.NotNil(t, stats, tier)
		assert.InDelta(t, 0.833, stats.AbsLoss[p1.ID()], 1e-9, tier)
	}
}

func TestFanOutQueuedCopyNotCharged(t *testing.T) {
	f := newFixture(t, singleToken)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	p2 := f.addLink("p2")
	f.route("/app", p1, 1)
	f.route("/app", p2, 2)
	f.route("/x", p2, 1)

	// Use up the class 0 token of p2
	f.thread.ProcessFrame(consumer, request("/x/typeI/1", 1))
	require.Len(t, p2.Sent(), 1)

	f.thread.ProcessFrame(consumer, request("/app/typeI/1", 2))
	require.Len(t, p1.Sent(), 1)
	assert.Len(t, p2.Sent(), 1)
	assert.Equal(t, []int{1, 0, 0}, f.thread.Stats().Backlog)

	f.thread.ProcessFrame(p1, response("/app/typeI/1"))
	require.Len(t, consumer.Sent(), 1)
	stats := f.thread.Engine().Estimator().Stats("/app/typeI")
	require.NotNil(t, stats)
	assert.Equal(t, 0.0, stats.RelLoss[p2.ID()])
	assert.Equal(t, 0.0, stats.AbsLoss[p2.ID()])

	f.thread.Tick()
	assert.Len(t, p2.Sent(), 1)
	assert.Equal(t, uint64(1), f.thread.Stats().NStaleDrops)
}

func TestResponseFromNonUpstreamNotCredited(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	other := f.addLink("other")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	require.Len(t, p1.Sent(), 1)
	f.thread.ProcessFrame(other, response("/app/video/1"))
	require.Len(t, consumer.Sent(), 1)
	assert.Equal(t, ndn.KindResponse, decode(t, consumer.Sent()[0]).Kind)
	assert.Nil(t, f.thread.Engine().Estimator().Stats("/app/video"))
}

func TestNackPropagatesWhenAllUpstreamsNacked(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	require.Len(t, p1.Sent(), 1)

	// A Nack for another nonce does not match the out-record
	f.thread.ProcessFrame(p1, ndn.EncodeNack(request("/app/video/1", 99), ndn.NackReasonCongestion))
	assert.Empty(t, consumer.Sent())

	f.thread.ProcessFrame(p1, ndn.EncodeNack(p1.Sent()[0], ndn.NackReasonCongestion))
	require.Len(t, consumer.Sent(), 1)
	nack := decode(t, consumer.Sent()[0])
	assert.Equal(t, ndn.KindNack, nack.Kind)
	assert.Equal(t, ndn.NackReasonCongestion, nack.NackReason)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
	assert.Equal(t, uint64(2), f.thread.Stats().NInNacks)
}

func TestTokenStarvationDefersToTick(t *testing.T) {
	f := newFixture(t, singleToken)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.thread.ProcessFrame(consumer, request("/app/video/2", 2))
	assert.Len(t, p1.Sent(), 1)
	assert.Equal(t, []int{0, 0, 1}, f.thread.Stats().Backlog)

	f.thread.Tick()
	require.Len(t, p1.Sent(), 2)
	assert.Equal(t, "/app/video/2", decode(t, p1.Sent()[1]).Interest.Name.String())
	assert.Equal(t, []int{0, 0, 0}, f.thread.Stats().Backlog)
	assert.Equal(t, uint64(1), f.thread.Stats().Ticks)
}

func TestOccupancyGate(t *testing.T) {
	f := newFixture(t, func(opts *qos.Options) {
		singleToken(opts)
		opts.OccupancyLimit = 2
	})
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.thread.ProcessFrame(consumer, request("/app/video/2", 2))
	p1.SetOccupancy(5)
	f.thread.Tick()
	assert.Len(t, p1.Sent(), 1)

	p1.SetOccupancy(0)
	f.thread.Tick()
	assert.Len(t, p1.Sent(), 2)
}

func TestSaturatedLinkIsNotEligible(t *testing.T) {
	f := newFixture(t, func(opts *qos.Options) { opts.OccupancyLimit = 2 })
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	p2 := f.addLink("p2")
	f.route("/app", p1, 1)
	f.route("/app", p2, 2)
	p1.SetOccupancy(2)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	assert.Empty(t, p1.Sent())
	assert.Len(t, p2.Sent(), 1)
}

func TestStaleRequestDropped(t *testing.T) {
	f := newFixture(t, singleToken)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.thread.ProcessFrame(consumer, request("/app/video/2", 2))
	f.clock.Advance(ndn.DefaultInterestLifetime)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())

	f.thread.Tick()
	assert.Len(t, p1.Sent(), 1)
	stats := f.thread.Stats()
	assert.Equal(t, uint64(1), stats.NStaleDrops)
	assert.Equal(t, uint64(2), stats.NUnsatisfiedRequests)
}

func TestRemovedLinkDiscardsQueue(t *testing.T) {
	f := newFixture(t, singleToken)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.thread.ProcessFrame(consumer, request("/app/video/2", 2))
	f.links.Remove(p1.ID())
	f.thread.Tick()
	assert.Equal(t, uint64(1), f.thread.Stats().NQueueDrops)
	assert.Equal(t, []int{0, 0, 0}, f.thread.Stats().Backlog)
}

func TestExpiryRecordsFailure(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 1))
	f.clock.Advance(ndn.DefaultInterestLifetime)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
	assert.Equal(t, 0, f.clock.Pending())
	stats := f.thread.Engine().Estimator().Stats("/app/video")
	require.NotNil(t, stats)
	assert.InDelta(t, 0.833, stats.AbsLoss[p1.ID()], 1e-9)
}

func TestHopLimit(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	zero := uint8(0)
	interest := &ndn.Interest{Name: ndn.MustNameFromString("/app/video/1"), Nonce: 1, HopLimit: &zero}
	f.thread.ProcessFrame(consumer, interest.Encode())
	assert.Empty(t, p1.Sent())
	assert.Equal(t, uint64(0), f.thread.Stats().NInRequests)

	three := uint8(3)
	interest = &ndn.Interest{Name: ndn.MustNameFromString("/app/video/2"), Nonce: 2, HopLimit: &three}
	f.thread.ProcessFrame(consumer, interest.Encode())
	require.Len(t, p1.Sent(), 1)
	forwarded := decode(t, p1.Sent()[0])
	require.NotNil(t, forwarded.Interest.HopLimit)
	assert.Equal(t, uint8(2), *forwarded.Interest.HopLimit)
}

func TestLocalhostScope(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/", p1, 1)

	f.thread.ProcessFrame(consumer, request("/localhost/status", 1))
	assert.Empty(t, p1.Sent())
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
}

func TestDeadNonceList(t *testing.T) {
	f := newFixture(t, nil)
	consumer := f.addLink("consumer")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(consumer, request("/app/video/1", 7))
	f.thread.ProcessFrame(p1, response("/app/video/1"))
	f.thread.ProcessFrame(consumer, request("/app/video/1", 7))
	assert.Len(t, p1.Sent(), 1)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
}

func TestLoopDetection(t *testing.T) {
	f := newFixture(t, nil)
	c1 := f.addLink("c1")
	c2 := f.addLink("c2")
	p1 := f.addLink("p1")
	f.route("/app", p1, 1)

	f.thread.ProcessFrame(c1, request("/app/video/1", 5))
	f.thread.ProcessFrame(c2, request("/app/video/1", 5))
	assert.Len(t, p1.Sent(), 1)
	assert.Empty(t, c2.Sent())

	f.thread.ProcessFrame(p1, response("/app/video/1"))
	assert.Len(t, c1.Sent(), 1)
	assert.Empty(t, c2.Sent())
}

func TestUnsolicitedResponse(t *testing.T) {
	f := newFixture(t, nil)
	p1 := f.addLink("p1")
	f.thread.ProcessFrame(p1, response("/app/video/1"))
	f.thread.ProcessFrame(p1, []byte{0xff, 0x01})
	assert.Equal(t, uint64(1), f.thread.Stats().NInResponses)
	assert.Equal(t, 0, f.thread.GetNumPitEntries())
}

func TestThreadRun(t *testing.T) {
	ctx, err := qos.NewContext(qos.DefaultOptions())
	require.NoError(t, err)
	links := face.NewTable()
	fib := table.NewFib()
	thread := fw.NewThread(1, ctx, links, fib)

	consumer := face.NewMemoryLink("consumer", face.ScopeLocal, face.PointToPoint)
	producer := face.NewMemoryLink("producer", face.ScopeNonLocal, face.PointToPoint)
	silent := face.NewMemoryLink("silent", face.ScopeNonLocal, face.PointToPoint)
	links.Add(consumer)
	links.Add(producer)
	links.Add(silent)
	fib.InsertNextHop(ndn.MustNameFromString("/app"), producer.ID(), 1)
	fib.InsertNextHop(ndn.MustNameFromString("/void"), silent.ID(), 1)
	producer.OnSend = func(frame []byte) {
		packet, err := ndn.DecodePacket(frame)
		if err == nil && packet.Kind == ndn.KindRequest {
			thread.QueueFrame(producer, response(packet.Interest.Name.String()))
		}
	}

	go thread.Run()
	thread.QueueFrame(consumer, request("/app/video/1", 1))
	assert.Eventually(t, func() bool { return len(consumer.Sent()) == 1 }, time.Second, time.Millisecond)

	lost := &ndn.Interest{Name: ndn.MustNameFromString("/void/1"), Nonce: 2, Lifetime: 20 * time.Millisecond}
	thread.QueueFrame(consumer, lost.Encode())
	assert.Eventually(t, func() bool {
		stats, ok := thread.RequestStats()
		return ok && stats.NUnsatisfiedRequests == 1 && stats.PitSize == 0
	}, time.Second, time.Millisecond)

	stats, ok := thread.RequestStats()
	require.True(t, ok)
	assert.Equal(t, 1, stats.ThreadID)
	assert.Equal(t, uint64(1), stats.NSatisfiedRequests)
	assert.NotZero(t, stats.Ticks)

	thread.TellToQuit()
	<-thread.HasQuit
	_, ok = thread.RequestStats()
	assert.False(t, ok)
}
