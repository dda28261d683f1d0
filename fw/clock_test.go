/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw_test

import (
	"testing"
	"time"

	"github.com/named-data/qosfwd/fw"
	"github.com/stretchr/testify/assert"
)

func TestManualClockOrder(t *testing.T) {
	clock := fw.NewManualClock()
	fired := make([]string, 0)
	clock.Schedule(20*time.Millisecond, func() { fired = append(fired, "b") })
	clock.Schedule(10*time.Millisecond, func() {
		fired = append(fired, "a")
		assert.Equal(t, 10*time.Millisecond, clock.Now())
		clock.Schedule(5*time.Millisecond, func() { fired = append(fired, "nested") })
	})
	clock.Schedule(20*time.Millisecond, func() { fired = append(fired, "c") })

	clock.Advance(15 * time.Millisecond)
	assert.Equal(t, []string{"a", "nested"}, fired)
	assert.Equal(t, 15*time.Millisecond, clock.Now())

	clock.Advance(time.Second)
	assert.Equal(t, []string{"a", "nested", "b", "c"}, fired)
	assert.Equal(t, 0, clock.Pending())
}

func TestManualClockCancel(t *testing.T) {
	clock := fw.NewManualClock()
	fired := false
	id := clock.Schedule(time.Millisecond, func() { fired = true })
	assert.NotZero(t, id)
	clock.Cancel(id)
	clock.Advance(time.Second)
	assert.False(t, fired)
	assert.Equal(t, 0, clock.Pending())
}
