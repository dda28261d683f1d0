/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"fmt"
	"time"

	"github.com/named-data/qosfwd/core"
)

// CostFunction selects how an item's size is turned into virtual time.
type CostFunction string

const (
	// CostProportional charges size/flowRate, giving each class service in proportion to its weight.
	CostProportional CostFunction = "proportional"
	// CostComplement charges size*(1-flowRate).
	CostComplement CostFunction = "complement"
)

// Tier maps a name marker to a priority class. A Target above zero enables probabilistic fan-out
// until the estimated delivery probability reaches it; zero forwards to a single next hop.
type Tier struct {
	Marker string
	Class  int
	Target float64
}

// MitigationOptions configures the flow monitor that demotes lossy prefixes.
type MitigationOptions struct {
	Enabled         bool
	Window          int
	LossThreshold   float64
	DemoteThreshold float64
	Class           int
}

// Options configures a scheduler context and the forwarding decisions built on it.
type Options struct {
	// Per class, index 0 is the highest priority.
	Weights        []float64
	QueueCapacity  []int
	BucketCapacity []float64
	BucketRefill   []float64

	WFQCost CostFunction
	// PacketSize, if positive, replaces the wire length as the WFQ item size.
	PacketSize float64

	Tiers           []Tier
	BestEffortClass int

	SuppressionInitial    time.Duration
	SuppressionMax        time.Duration
	SuppressionMultiplier float64

	ReliabilityBeta    float64
	BootstrapThreshold int
	MaxPrefixes        int

	// OccupancyLimit is the send queue size at which a link stops being drained.
	OccupancyLimit uint64

	Mitigation MitigationOptions
}

// DefaultOptions returns three classes weighted 3/2/1 with the typeI/typeII/typeIII tiers.
func DefaultOptions() Options {
	return Options{
		Weights:        []float64{3, 2, 1},
		QueueCapacity:  []int{10, 10, 10},
		BucketCapacity: []float64{10, 10, 10},
		BucketRefill:   []float64{1, 1, 1},
		WFQCost:        CostProportional,
		Tiers: []Tier{
			{Marker: "typeI", Class: 0, Target: 1.0},
			{Marker: "typeII", Class: 1, Target: 1.0},
			{Marker: "typeIII", Class: 2, Target: 0.4},
		},
		BestEffortClass:       2,
		SuppressionInitial:    10 * time.Millisecond,
		SuppressionMax:        250 * time.Millisecond,
		SuppressionMultiplier: 2,
		ReliabilityBeta:       0.833,
		BootstrapThreshold:    3,
		MaxPrefixes:           4096,
		OccupancyLimit:        25,
		Mitigation: MitigationOptions{
			Enabled:         false,
			Window:          100,
			LossThreshold:   0.6,
			DemoteThreshold: 0.8,
			Class:           2,
		},
	}
}

// NumClasses returns the number of priority classes.
func (o *Options) NumClasses() int {
	return len(o.Weights)
}

// LoadOptions reads the qos.* configuration keys over the defaults and validates the result.
func LoadOptions() (Options, error) {
	o := DefaultOptions()
	weights, err := core.GetConfigArray("qos.weights", core.GetConfigArrayFloat)
	if err != nil {
		return o, err
	}
	queueCapacity, err := core.GetConfigArray("qos.queue_capacity", core.GetConfigArrayInt)
	if err != nil {
		return o, err
	}
	bucketCapacity, err := core.GetConfigArray("qos.bucket_capacity", core.GetConfigArrayFloat)
	if err != nil {
		return o, err
	}
	bucketRefill, err := core.GetConfigArray("qos.bucket_refill", core.GetConfigArrayFloat)
	if err != nil {
		return o, err
	}
	if weights != nil {
		o.Weights = weights
	}
	if queueCapacity != nil {
		o.QueueCapacity = queueCapacity
	}
	if bucketCapacity != nil {
		o.BucketCapacity = bucketCapacity
	}
	if bucketRefill != nil {
		o.BucketRefill = bucketRefill
	}
	o.WFQCost = CostFunction(core.GetConfigStringDefault("qos.wfq_cost", string(o.WFQCost)))
	o.PacketSize = core.GetConfigFloatDefault("qos.packet_size", o.PacketSize)

	markers, err := core.GetConfigArray("qos.tiers.markers", core.GetConfigArrayString)
	if err != nil {
		return o, err
	}
	classes, err := core.GetConfigArray("qos.tiers.classes", core.GetConfigArrayInt)
	if err != nil {
		return o, err
	}
	targets, err := core.GetConfigArray("qos.tiers.targets", core.GetConfigArrayFloat)
	if err != nil {
		return o, err
	}
	if markers != nil || classes != nil || targets != nil {
		if len(markers) != len(classes) || len(markers) != len(targets) {
			return o, fmt.Errorf("%w: qos.tiers arrays differ in length", ErrInvalidOptions)
		}
		o.Tiers = make([]Tier, len(markers))
		for i := range markers {
			o.Tiers[i] = Tier{Marker: markers[i], Class: classes[i], Target: targets[i]}
		}
	}
	o.BestEffortClass = core.GetConfigIntDefault("qos.best_effort_class", o.BestEffortClass)

	o.SuppressionInitial = time.Duration(core.GetConfigIntDefault("qos.suppression.initial_ms", 10)) * time.Millisecond
	o.SuppressionMax = time.Duration(core.GetConfigIntDefault("qos.suppression.max_ms", 250)) * time.Millisecond
	o.SuppressionMultiplier = core.GetConfigFloatDefault("qos.suppression.multiplier", o.SuppressionMultiplier)

	o.ReliabilityBeta = core.GetConfigFloatDefault("qos.reliability.beta", o.ReliabilityBeta)
	o.BootstrapThreshold = core.GetConfigIntDefault("qos.reliability.bootstrap_threshold", o.BootstrapThreshold)
	o.MaxPrefixes = core.GetConfigIntDefault("qos.reliability.max_prefixes", o.MaxPrefixes)
	o.OccupancyLimit = uint64(core.GetConfigIntDefault("qos.occupancy_limit", int(o.OccupancyLimit)))

	o.Mitigation.Enabled = core.GetConfigBoolDefault("qos.mitigation.enabled", o.Mitigation.Enabled)
	o.Mitigation.Window = core.GetConfigIntDefault("qos.mitigation.window", o.Mitigation.Window)
	o.Mitigation.LossThreshold = core.GetConfigFloatDefault("qos.mitigation.loss_threshold", o.Mitigation.LossThreshold)
	o.Mitigation.DemoteThreshold = core.GetConfigFloatDefault("qos.mitigation.demote_threshold", o.Mitigation.DemoteThreshold)
	o.Mitigation.Class = core.GetConfigIntDefault("qos.mitigation.class", o.Mitigation.Class)

	return o, o.Validate()
}

// Validate checks the options for consistency.
func (o *Options) Validate() error {
	n := len(o.Weights)
	if n == 0 {
		return fmt.Errorf("%w: no priority classes", ErrInvalidOptions)
	}
	if len(o.QueueCapacity) != n || len(o.BucketCapacity) != n || len(o.BucketRefill) != n {
		return fmt.Errorf("%w: per-class arrays must all have %d entries", ErrInvalidOptions, n)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		if o.Weights[i] <= 0 {
			return fmt.Errorf("%w: weight of class %d must be positive", ErrInvalidOptions, i)
		}
		if o.QueueCapacity[i] <= 0 {
			return fmt.Errorf("%w: queue capacity of class %d must be positive", ErrInvalidOptions, i)
		}
		if o.BucketCapacity[i] < 1 || o.BucketRefill[i] < 0 {
			return fmt.Errorf("%w: token bucket of class %d cannot admit packets", ErrInvalidOptions, i)
		}
		sum += o.Weights[i]
	}
	if sum <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidOptions)
	}
	if o.WFQCost != CostProportional && o.WFQCost != CostComplement {
		return fmt.Errorf("%w: unknown WFQ cost %q", ErrInvalidOptions, o.WFQCost)
	}
	for _, tier := range o.Tiers {
		if tier.Marker == "" || tier.Class < 0 || tier.Class >= n || tier.Target < 0 || tier.Target > 1 {
			return fmt.Errorf("%w: invalid tier %+v", ErrInvalidOptions, tier)
		}
	}
	if o.BestEffortClass < 0 || o.BestEffortClass >= n {
		return fmt.Errorf("%w: best effort class %d out of range", ErrInvalidOptions, o.BestEffortClass)
	}
	if o.SuppressionInitial <= 0 || o.SuppressionMax < o.SuppressionInitial || o.SuppressionMultiplier < 1 {
		return fmt.Errorf("%w: invalid suppression parameters", ErrInvalidOptions)
	}
	if o.ReliabilityBeta <= 0 || o.ReliabilityBeta > 1 || o.BootstrapThreshold < 0 || o.MaxPrefixes <= 0 {
		return fmt.Errorf("%w: invalid reliability parameters", ErrInvalidOptions)
	}
	if o.Mitigation.Enabled {
		m := o.Mitigation
		if m.Window <= 0 || m.Class < 0 || m.Class >= n {
			return fmt.Errorf("%w: invalid mitigation parameters", ErrInvalidOptions)
		}
	}
	return nil
}
