/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package metrics

import (
	"strconv"

	"github.com/named-data/qosfwd/fw"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qosfwd"

// StatsSource provides snapshots of a forwarding thread.
type StatsSource interface {
	RequestStats() (fw.Stats, bool)
}

// Collector exports forwarding thread snapshots as Prometheus metrics.
type Collector struct {
	sources []StatsSource

	packetsDesc     *prometheus.Desc
	satisfiedDesc   *prometheus.Desc
	unsatisfiedDesc *prometheus.Desc
	dropsDesc       *prometheus.Desc
	sentDesc        *prometheus.Desc
	backlogDesc     *prometheus.Desc
	pitDesc         *prometheus.Desc
	ticksDesc       *prometheus.Desc
	prefixesDesc    *prometheus.Desc
	monitoredDesc   *prometheus.Desc
}

// NewCollector creates a collector over the given threads.
func NewCollector(sources ...StatsSource) *Collector {
	desc := func(subsystem, name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help,
			append([]string{"thread"}, labels...), nil)
	}
	return &Collector{
		sources:         sources,
		packetsDesc:     desc("fw", "packets_total", "Packets handled by the forwarding thread", "direction", "kind"),
		satisfiedDesc:   desc("fw", "satisfied_total", "Downstreams answered with a response"),
		unsatisfiedDesc: desc("fw", "unsatisfied_total", "Downstreams of requests that expired or were rejected"),
		dropsDesc:       desc("fw", "drops_total", "Packets dropped or not forwarded", "reason"),
		sentDesc:        desc("qos", "sent_total", "Packets sent per priority class", "class"),
		backlogDesc:     desc("qos", "backlog", "Queued packets per priority class", "class"),
		pitDesc:         desc("fw", "pit_entries", "Pending Interest Table entries"),
		ticksDesc:       desc("qos", "ticks_total", "Scheduler ticks"),
		prefixesDesc:    desc("qos", "estimator_prefixes", "Prefixes tracked by the reliability estimator"),
		monitoredDesc:   desc("qos", "monitored_prefixes", "Prefixes watched by the flow monitor"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packetsDesc
	ch <- c.satisfiedDesc
	ch <- c.unsatisfiedDesc
	ch <- c.dropsDesc
	ch <- c.sentDesc
	ch <- c.backlogDesc
	ch <- c.pitDesc
	ch <- c.ticksDesc
	ch <- c.prefixesDesc
	ch <- c.monitoredDesc
}

// Collect implements prometheus.Collector. Threads that have quit are skipped.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, source := range c.sources {
		stats, ok := source.RequestStats()
		if !ok {
			continue
		}
		c.collectThread(ch, stats)
	}
}

func (c *Collector) collectThread(ch chan<- prometheus.Metric, s fw.Stats) {
	thread := strconv.Itoa(s.ThreadID)
	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), append([]string{thread}, labels...)...)
	}
	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, append([]string{thread}, labels...)...)
	}

	counter(c.packetsDesc, s.NInRequests, "in", "request")
	counter(c.packetsDesc, s.NInResponses, "in", "response")
	counter(c.packetsDesc, s.NInNacks, "in", "nack")
	counter(c.packetsDesc, s.NOutRequests, "out", "request")
	counter(c.packetsDesc, s.NOutResponses, "out", "response")
	counter(c.packetsDesc, s.NOutNacks, "out", "nack")
	counter(c.satisfiedDesc, s.NSatisfiedRequests)
	counter(c.unsatisfiedDesc, s.NUnsatisfiedRequests)

	counter(c.dropsDesc, s.NQueueDrops, "queue_full")
	counter(c.dropsDesc, s.NStaleDrops, "stale")
	counter(c.dropsDesc, s.NSuppressed, "suppressed")
	counter(c.dropsDesc, s.NNoRoute, "no_route")
	counter(c.dropsDesc, s.NSendErrors, "send_error")

	for class, sent := range s.NSentPerClass {
		counter(c.sentDesc, sent, strconv.Itoa(class))
	}
	for class, backlog := range s.Backlog {
		gauge(c.backlogDesc, float64(backlog), strconv.Itoa(class))
	}
	gauge(c.pitDesc, float64(s.PitSize))
	counter(c.ticksDesc, s.Ticks)
	gauge(c.prefixesDesc, float64(s.EstimatorPrefixes))
	gauge(c.monitoredDesc, float64(s.MonitoredPrefixes))
}
