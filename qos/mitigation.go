/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

// FlowMonitor watches the aggregate loss rate. When it is high, the prefix most frequent among
// recent outcomes becomes monitored, and a monitored prefix whose own loss rate is high is demoted.
type FlowMonitor struct {
	window          []string
	windowSize      int
	beta            float64
	lossThreshold   float64
	demoteThreshold float64

	totalLoss float64
	monitored map[string]float64
}

// NewFlowMonitor creates a monitor from the mitigation options.
func NewFlowMonitor(opts *Options) *FlowMonitor {
	return &FlowMonitor{
		window:          make([]string, 0, opts.Mitigation.Window),
		windowSize:      opts.Mitigation.Window,
		beta:            opts.ReliabilityBeta,
		lossThreshold:   opts.Mitigation.LossThreshold,
		demoteThreshold: opts.Mitigation.DemoteThreshold,
		monitored:       make(map[string]float64),
	}
}

// TotalLoss returns the aggregate loss estimate of unmonitored prefixes.
func (m *FlowMonitor) TotalLoss() float64 {
	return m.totalLoss
}

// Monitored returns the loss estimate of a prefix and whether it is monitored.
func (m *FlowMonitor) Monitored(prefix string) (float64, bool) {
	loss, ok := m.monitored[prefix]
	return loss, ok
}

// IsDemoted returns whether a prefix is monitored and losing more than the demotion threshold.
func (m *FlowMonitor) IsDemoted(prefix string) bool {
	loss, ok := m.monitored[prefix]
	return ok && loss > m.demoteThreshold
}

// Observe records the outcome of one request of a prefix.
func (m *FlowMonitor) Observe(prefix string, lost bool) {
	if len(m.window) == m.windowSize {
		copy(m.window, m.window[1:])
		m.window = m.window[:len(m.window)-1]
	}
	m.window = append(m.window, prefix)

	event := 0.0
	if lost {
		event = 1
	}
	if loss, ok := m.monitored[prefix]; ok {
		m.monitored[prefix] = m.beta*event + (1-m.beta)*loss
	} else {
		m.totalLoss = m.beta*event + (1-m.beta)*m.totalLoss
	}

	if lost && m.totalLoss > m.lossThreshold && len(m.window) == m.windowSize {
		m.monitorMostFrequent()
	}
}

// monitorMostFrequent starts monitoring the most frequent prefix of the window. Ties go to the prefix
// that first reached the highest count.
func (m *FlowMonitor) monitorMostFrequent() {
	counts := make(map[string]int, len(m.window))
	maxCount := 0
	mostFrequent := ""
	for _, prefix := range m.window {
		counts[prefix]++
		if counts[prefix] > maxCount {
			maxCount = counts[prefix]
			mostFrequent = prefix
		}
	}
	m.monitored[mostFrequent] = 0
	m.totalLoss = 0
	m.window = m.window[:0]
}

// Len returns the number of monitored prefixes.
func (m *FlowMonitor) Len() int {
	return len(m.monitored)
}
