/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos_test

import (
	"testing"

	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/qos"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTiers(t *testing.T) {
	opts := qos.DefaultOptions()
	c := qos.NewClassifier(&opts, nil)

	cl := c.Classify(ndn.MustNameFromString("/app/typeI/1"))
	assert.Equal(t, 0, cl.Class)
	assert.Equal(t, 1.0, cl.Target)
	assert.True(t, cl.FanOut())
	assert.Equal(t, "/app/typeI", cl.Prefix)

	cl = c.Classify(ndn.MustNameFromString("/app/typeII/1"))
	assert.Equal(t, 1, cl.Class)
	assert.Equal(t, 1.0, cl.Target)

	cl = c.Classify(ndn.MustNameFromString("/app/typeIII/seg/1"))
	assert.Equal(t, 2, cl.Class)
	assert.Equal(t, 0.4, cl.Target)
	assert.Equal(t, "/app/typeIII/seg", cl.Prefix)

	for _, name := range []string{"/app/video/1", "/app", "/", "/typeI/x"} {
		cl = c.Classify(ndn.MustNameFromString(name))
		assert.Equal(t, 2, cl.Class, name)
		assert.False(t, cl.FanOut(), name)
	}
}

func TestClassifyDemoted(t *testing.T) {
	opts := qos.DefaultOptions()
	opts.Mitigation.Enabled = true
	opts.Mitigation.Window = 2
	opts.Mitigation.Class = 1
	monitor := qos.NewFlowMonitor(&opts)
	c := qos.NewClassifier(&opts, monitor)

	name := ndn.MustNameFromString("/app/typeI/1")
	for i := 0; i < 2; i++ {
		monitor.Observe("/app/typeI", true)
	}
	_, monitored := monitor.Monitored("/app/typeI")
	assert.True(t, monitored)
	assert.False(t, c.Classify(name).Demoted)

	monitor.Observe("/app/typeI", true)
	cl := c.Classify(name)
	assert.True(t, cl.Demoted)
	assert.Equal(t, 1, cl.Class)
	assert.False(t, cl.FanOut())
}
