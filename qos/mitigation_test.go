/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos_test

import (
	"testing"

	"github.com/named-data/qosfwd/qos"
	"github.com/stretchr/testify/assert"
)

func mitigationOptions(window int) qos.Options {
	opts := qos.DefaultOptions()
	opts.Mitigation.Enabled = true
	opts.Mitigation.Window = window
	return opts
}

func TestFlowMonitorPicksMostFrequent(t *testing.T) {
	opts := mitigationOptions(4)
	m := qos.NewFlowMonitor(&opts)

	m.Observe("/a", true)
	m.Observe("/b", true)
	m.Observe("/b", true)
	_, monitored := m.Monitored("/b")
	assert.False(t, monitored, "window not full yet")

	m.Observe("/a", true)
	loss, monitored := m.Monitored("/b")
	assert.True(t, monitored, "/b reached the highest count first")
	assert.Equal(t, 0.0, loss)
	assert.Equal(t, 0.0, m.TotalLoss())

	_, monitored = m.Monitored("/a")
	assert.False(t, monitored)
}

func TestFlowMonitorLowLossDoesNothing(t *testing.T) {
	opts := mitigationOptions(3)
	m := qos.NewFlowMonitor(&opts)
	for i := 0; i < 10; i++ {
		m.Observe("/a", false)
	}
	_, monitored := m.Monitored("/a")
	assert.False(t, monitored)
	assert.Equal(t, 0.0, m.TotalLoss())
}

func TestFlowMonitorDemotion(t *testing.T) {
	opts := mitigationOptions(2)
	m := qos.NewFlowMonitor(&opts)
	m.Observe("/a", true)
	m.Observe("/a", true)
	assert.False(t, m.IsDemoted("/a"))

	// Monitored prefixes no longer move the aggregate
	m.Observe("/a", true)
	assert.Equal(t, 0.0, m.TotalLoss())
	loss, _ := m.Monitored("/a")
	assert.InDelta(t, 0.833, loss, 1e-9)
	assert.True(t, m.IsDemoted("/a"))

	m.Observe("/a", false)
	assert.False(t, m.IsDemoted("/a"))
}
