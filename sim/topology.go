/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"fmt"
	"os"

	"github.com/named-data/qosfwd/ndn"
	"gopkg.in/yaml.v3"
)

// Link roles.
const (
	RoleConsumer = "consumer"
	RoleProducer = "producer"
)

// LinkDesc describes a link of the simulated node and the peer behind it.
type LinkDesc struct {
	ID   string `json:"id" yaml:"id"`
	Role string `json:"role" yaml:"role"`
	// Delay is the response latency of a producer, in seconds.
	Delay float64 `json:"delay" yaml:"delay"`
	// Loss is the probability that a producer ignores a request.
	Loss  float64 `json:"loss" yaml:"loss"`
	AdHoc bool    `json:"adhoc" yaml:"adhoc"`
}

// RouteDesc is a FIB entry of the simulated node.
type RouteDesc struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Link   string `json:"link" yaml:"link"`
	Cost   uint64 `json:"cost" yaml:"cost"`
}

// FlowDesc is a constant-rate request stream issued on a consumer link.
type FlowDesc struct {
	Name     string `json:"name" yaml:"name"`
	Consumer string `json:"consumer" yaml:"consumer"`
	Prefix   string `json:"prefix" yaml:"prefix"`
	// Rate is in requests per second.
	Rate float64 `json:"rate" yaml:"rate"`
	// Lifetime of each request in seconds.
	Lifetime float64 `json:"lifetime" yaml:"lifetime"`
}

// Topology describes a simulation scenario. Times are in seconds.
type Topology struct {
	Duration float64     `json:"duration" yaml:"duration"`
	Tick     float64     `json:"tick" yaml:"tick"`
	Links    []LinkDesc  `json:"links" yaml:"links"`
	Routes   []RouteDesc `json:"routes" yaml:"routes"`
	Flows    []FlowDesc  `json:"flows" yaml:"flows"`
}

// ReadTopology deserializes a YAML topology. If dict is empty, the file whose name is given is read.
func ReadTopology(filename string, dict []byte) (*Topology, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	topo := Topology{Tick: 0.001}
	if err = yaml.Unmarshal(dict, &topo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopology, err)
	}
	if err = topo.Validate(); err != nil {
		return nil, err
	}
	return &topo, nil
}

// Validate checks that the topology is consistent.
func (t *Topology) Validate() error {
	if t.Duration <= 0 || t.Tick <= 0 {
		return fmt.Errorf("%w: duration and tick must be positive", ErrInvalidTopology)
	}
	roles := make(map[string]string, len(t.Links))
	for _, link := range t.Links {
		if link.Role != RoleConsumer && link.Role != RoleProducer {
			return fmt.Errorf("%w: link %q has unknown role %q", ErrInvalidTopology, link.ID, link.Role)
		}
		if _, ok := roles[link.ID]; ok || link.ID == "" {
			return fmt.Errorf("%w: link ID %q is empty or repeated", ErrInvalidTopology, link.ID)
		}
		if link.Loss < 0 || link.Loss > 1 || link.Delay < 0 {
			return fmt.Errorf("%w: link %q has invalid delay or loss", ErrInvalidTopology, link.ID)
		}
		roles[link.ID] = link.Role
	}
	for _, route := range t.Routes {
		if _, ok := roles[route.Link]; !ok {
			return fmt.Errorf("%w: route %s uses unknown link %q", ErrInvalidTopology, route.Prefix, route.Link)
		}
		if _, err := ndn.NameFromString(route.Prefix); err != nil {
			return fmt.Errorf("%w: route prefix %q: %v", ErrInvalidTopology, route.Prefix, err)
		}
	}
	for _, flow := range t.Flows {
		if roles[flow.Consumer] != RoleConsumer {
			return fmt.Errorf("%w: flow %q needs a consumer link, got %q", ErrInvalidTopology, flow.Name, flow.Consumer)
		}
		if flow.Rate <= 0 || flow.Lifetime <= 0 {
			return fmt.Errorf("%w: flow %q needs a positive rate and lifetime", ErrInvalidTopology, flow.Name)
		}
		if _, err := ndn.NameFromString(flow.Prefix); err != nil {
			return fmt.Errorf("%w: flow prefix %q: %v", ErrInvalidTopology, flow.Prefix, err)
		}
	}
	return nil
}
