/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"time"

	"github.com/named-data/qosfwd/core"
)

// fwQueueSize is the maxmimum number of frames that can be buffered to be processed by a forwarding thread.
var fwQueueSize = 1024

// tickInterval is the wall-clock period of the scheduler tick.
var tickInterval = time.Millisecond

// Configure configures the forwarding system.
func Configure() {
	fwQueueSize = core.GetConfigIntDefault("fw.queue_size", 1024)
	tickInterval = time.Duration(core.GetConfigIntDefault("fw.tick_interval_ms", 1)) * time.Millisecond
	if tickInterval <= 0 {
		tickInterval = time.Millisecond
	}
}

// TickInterval returns the configured tick period.
func TickInterval() time.Duration {
	return tickInterval
}
