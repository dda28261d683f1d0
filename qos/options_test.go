/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos_test

import (
	"testing"
	"time"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/qos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsValid(t *testing.T) {
	opts := qos.DefaultOptions()
	assert.NoError(t, opts.Validate())
	assert.Equal(t, 3, opts.NumClasses())
}

func TestOptionsValidate(t *testing.T) {
	mutations := map[string]func(*qos.Options){
		"no classes":        func(o *qos.Options) { o.Weights = nil },
		"zero weight":       func(o *qos.Options) { o.Weights[1] = 0 },
		"short capacity":    func(o *qos.Options) { o.QueueCapacity = []int{1, 2} },
		"empty bucket":      func(o *qos.Options) { o.BucketCapacity[0] = 0.5 },
		"unknown cost":      func(o *qos.Options) { o.WFQCost = "fifo" },
		"tier class":        func(o *qos.Options) { o.Tiers[0].Class = 3 },
		"tier target":       func(o *qos.Options) { o.Tiers[0].Target = 1.5 },
		"best effort class": func(o *qos.Options) { o.BestEffortClass = 5 },
		"suppression":       func(o *qos.Options) { o.SuppressionMax = time.Millisecond },
		"beta":              func(o *qos.Options) { o.ReliabilityBeta = 0 },
		"mitigation": func(o *qos.Options) {
			o.Mitigation.Enabled = true
			o.Mitigation.Window = 0
		},
	}
	for name, mutate := range mutations {
		opts := qos.DefaultOptions()
		mutate(&opts)
		assert.ErrorIs(t, opts.Validate(), qos.ErrInvalidOptions, name)
	}
}

func TestLoadOptions(t *testing.T) {
	require.NoError(t, core.LoadConfigString(`
[qos]
weights = [4, 1]
queue_capacity = [32, 16]
bucket_capacity = [20.0, 5.0]
bucket_refill = [2, 1]
wfq_cost = "complement"
best_effort_class = 1
occupancy_limit = 50

[qos.tiers]
markers = ["gold"]
classes = [0]
targets = [0.95]

[qos.suppression]
initial_ms = 5
max_ms = 100
multiplier = 1.5

[qos.mitigation]
enabled = true
class = 1
`))
	defer core.ResetConfig()

	opts, err := qos.LoadOptions()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, opts.Weights)
	assert.Equal(t, []int{32, 16}, opts.QueueCapacity)
	assert.Equal(t, []float64{20, 5}, opts.BucketCapacity)
	assert.Equal(t, []float64{2, 1}, opts.BucketRefill)
	assert.Equal(t, qos.CostComplement, opts.WFQCost)
	assert.Equal(t, []qos.Tier{{Marker: "gold", Class: 0, Target: 0.95}}, opts.Tiers)
	assert.Equal(t, 1, opts.BestEffortClass)
	assert.Equal(t, uint64(50), opts.OccupancyLimit)
	assert.Equal(t, 5*time.Millisecond, opts.SuppressionInitial)
	assert.Equal(t, 100*time.Millisecond, opts.SuppressionMax)
	assert.Equal(t, 1.5, opts.SuppressionMultiplier)
	assert.True(t, opts.Mitigation.Enabled)
	assert.Equal(t, 1, opts.Mitigation.Class)
	assert.Equal(t, 100, opts.Mitigation.Window)
}

func TestLoadOptionsRejectsMismatchedTiers(t *testing.T) {
	require.NoError(t, core.LoadConfigString(`
[qos.tiers]
markers = ["a", "b"]
classes = [0]
targets = [1.0]
`))
	defer core.ResetConfig()
	_, err := qos.LoadOptions()
	assert.ErrorIs(t, err, qos.ErrInvalidOptions)
}

func TestLoadOptionsRejectsWrongType(t *testing.T) {
	require.NoError(t, core.LoadConfigString(`
[qos]
queue_capacity = [10.5, 10.5, 10.5]
`))
	defer core.ResetConfig()
	_, err := qos.LoadOptions()
	assert.ErrorIs(t, err, core.ErrConfigFormat)
}

func TestContextTick(t *testing.T) {
	opts := qos.DefaultOptions()
	opts.BucketCapacity = []float64{2, 2, 2}
	ctx, err := qos.NewContext(opts)
	require.NoError(t, err)

	ctx.Buckets.Bucket(1).Consume(2, 4)
	ctx.Buckets.Bucket(1).SetNeed(4, 1)
	assert.Equal(t, []qos.DrainSignal{{Class: 1, Link: 4}}, ctx.Tick())
	assert.Equal(t, uint64(1), ctx.Ticks())

	ctx.Queues.Enqueue(4, 0, item(1))
	ctx.Queues.Enqueue(4, 2, item(2))
	dropped := ctx.ForgetLink(4)
	assert.Len(t, dropped, 2)
	assert.Empty(t, ctx.Queues.Links())
	assert.Equal(t, 2.0, ctx.Buckets.Bucket(1).Tokens(4))

	bad := qos.DefaultOptions()
	bad.Weights = nil
	_, err = qos.NewContext(bad)
	assert.ErrorIs(t, err, qos.ErrInvalidOptions)
}
