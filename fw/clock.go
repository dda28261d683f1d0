/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"sync"
	"time"

	"golang.org/x/exp/slices"
)

// Clock is the time source of a forwarding thread. Times are offsets from the clock's epoch.
// Callbacks run on the forwarding thread, and a cancelled callback never runs.
type Clock interface {
	Now() time.Duration
	Schedule(delay time.Duration, callback func()) uint64
	Cancel(id uint64)
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	now    time.Duration
	nextID uint64
	timers []manualTimer
}

type manualTimer struct {
	id       uint64
	deadline time.Duration
	callback func()
}

// NewManualClock creates a ManualClock at time zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Now returns the current time.
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// Schedule runs callback once the clock has been advanced by delay.
func (c *ManualClock) Schedule(delay time.Duration, callback func()) uint64 {
	c.nextID++
	c.timers = append(c.timers, manualTimer{id: c.nextID, deadline: c.now + delay, callback: callback})
	return c.nextID
}

// Cancel removes a pending callback.
func (c *ManualClock) Cancel(id uint64) {
	c.timers = slices.DeleteFunc(c.timers, func(t manualTimer) bool { return t.id == id })
}

// Pending returns the number of scheduled callbacks.
func (c *ManualClock) Pending() int {
	return len(c.timers)
}

// Advance moves the clock forward by d, running due callbacks in deadline order.
func (c *ManualClock) Advance(d time.Duration) {
	c.AdvanceTo(c.now + d)
}

// AdvanceTo moves the clock to t, running due callbacks in deadline order. Callbacks scheduled by
// callbacks also run if they fall due.
func (c *ManualClock) AdvanceTo(t time.Duration) {
	for {
		next := -1
		for i, timer := range c.timers {
			if timer.deadline > t {
				continue
			}
			if next < 0 || timer.deadline < c.timers[next].deadline ||
				(timer.deadline == c.timers[next].deadline && timer.id < c.timers[next].id) {
				next = i
			}
		}
		if next < 0 {
			break
		}
		timer := c.timers[next]
		c.timers = slices.Delete(c.timers, next, next+1)
		if timer.deadline > c.now {
			c.now = timer.deadline
		}
		timer.callback()
	}
	if t > c.now {
		c.now = t
	}
}

// wallClock is the real-time Clock of a running Thread. Timer expirations are posted to the
// thread through fired and their callbacks run there.
type wallClock struct {
	epoch  time.Time
	nextID uint64
	timers map[uint64]*wallTimer

	fired chan uint64
	quit  chan struct{}
	once  sync.Once
}

type wallTimer struct {
	timer    *time.Timer
	callback func()
}

func newWallClock() *wallClock {
	return &wallClock{
		epoch:  time.Now(),
		timers: make(map[uint64]*wallTimer),
		fired:  make(chan uint64, 64),
		quit:   make(chan struct{}),
	}
}

func (c *wallClock) Now() time.Duration {
	return time.Since(c.epoch)
}

func (c *wallClock) Schedule(delay time.Duration, callback func()) uint64 {
	c.nextID++
	id := c.nextID
	c.timers[id] = &wallTimer{
		callback: callback,
		timer: time.AfterFunc(delay, func() {
			select {
			case c.fired <- id:
			case <-c.quit:
			}
		}),
	}
	return id
}

func (c *wallClock) Cancel(id uint64) {
	if t, ok := c.timers[id]; ok {
		t.timer.Stop()
		delete(c.timers, id)
	}
}

// fire runs the callback of a timer that has not been cancelled since it expired.
func (c *wallClock) fire(id uint64) {
	t, ok := c.timers[id]
	if !ok {
		return
	}
	delete(c.timers, id)
	t.callback()
}

func (c *wallClock) stop() {
	c.once.Do(func() {
		close(c.quit)
		for id, t := range c.timers {
			t.timer.Stop()
			delete(c.timers, id)
		}
	})
}
