/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/ndn/tlv"
)

// markerComponent is the index of the name component that carries the tier marker.
const markerComponent = 1

// Classification is the priority treatment of a name.
type Classification struct {
	Class int
	// Target is the delivery probability to reach by fan-out; zero means single next hop.
	Target float64
	// Prefix is the name without its last component, used as the reliability key.
	Prefix string
	// Demoted is set when the flow monitor moved the prefix out of its tier.
	Demoted bool
}

// FanOut returns whether the request is forwarded to several links.
func (c Classification) FanOut() bool {
	return c.Target > 0
}

// Classifier maps names to priority classes by their tier marker.
type Classifier struct {
	tiers           map[string]Tier
	bestEffortClass int
	monitor         *FlowMonitor
	demoteClass     int
}

// NewClassifier creates a classifier. monitor may be nil to disable demotion.
func NewClassifier(opts *Options, monitor *FlowMonitor) *Classifier {
	c := &Classifier{
		tiers:           make(map[string]Tier, len(opts.Tiers)),
		bestEffortClass: opts.BestEffortClass,
		monitor:         monitor,
		demoteClass:     opts.Mitigation.Class,
	}
	for _, tier := range opts.Tiers {
		c.tiers[tier.Marker] = tier
	}
	return c
}

// PrefixKey returns the reliability key of a name.
func PrefixKey(name ndn.Name) string {
	return name.Prefix(-1).String()
}

// Classify returns the treatment of a name. Names without a known marker are best effort.
func (c *Classifier) Classify(name ndn.Name) Classification {
	prefix := PrefixKey(name)
	if c.monitor != nil && c.monitor.IsDemoted(prefix) {
		return Classification{Class: c.demoteClass, Prefix: prefix, Demoted: true}
	}
	if marker, ok := name.At(markerComponent); ok && marker.Typ == tlv.GenericNameComponent {
		if tier, ok := c.tiers[string(marker.Val)]; ok {
			return Classification{Class: tier.Class, Target: tier.Target, Prefix: prefix}
		}
	}
	return Classification{Class: c.bestEffortClass, Prefix: prefix}
}
