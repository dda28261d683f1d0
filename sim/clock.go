/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"time"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// EventClock is a forwarding clock on virtual time, driven by a discrete-event manager.
type EventClock struct {
	evtMgr    *evtm.EventManager
	nextID    uint64
	cancelled map[uint64]struct{}
}

type clockEvent struct {
	id       uint64
	callback func()
}

// NewEventClock creates a clock reading the virtual time of evtMgr.
func NewEventClock(evtMgr *evtm.EventManager) *EventClock {
	return &EventClock{evtMgr: evtMgr, cancelled: make(map[uint64]struct{})}
}

// Now returns the virtual time.
func (c *EventClock) Now() time.Duration {
	return secondsToDuration(c.evtMgr.CurrentSeconds())
}

// Schedule runs callback after delay of virtual time.
func (c *EventClock) Schedule(delay time.Duration, callback func()) uint64 {
	c.nextID++
	c.evtMgr.Schedule(c, clockEvent{id: c.nextID, callback: callback}, fireClockEvent, vrtime.SecondsToTime(delay.Seconds()))
	return c.nextID
}

// Cancel prevents a scheduled callback from running.
func (c *EventClock) Cancel(id uint64) {
	c.cancelled[id] = struct{}{}
}

func fireClockEvent(evtMgr *evtm.EventManager, context any, data any) any {
	c := context.(*EventClock)
	event := data.(clockEvent)
	if _, ok := c.cancelled[event.id]; ok {
		delete(c.cancelled, event.id)
		return nil
	}
	event.callback()
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
