/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"container/list"

	"github.com/named-data/qosfwd/utils/comparison"
)

// FaceStats holds the loss estimates of one name prefix across the links it is forwarded on.
type FaceStats struct {
	// AbsLoss counts every unanswered request as a loss on each link it was sent on.
	AbsLoss map[uint64]float64
	// RelLoss also counts a loss on a link when another link answered first.
	RelLoss      map[uint64]float64
	Bootstrapped bool
	TotalPackets int

	prefix string
	elem   *list.Element
}

// ReliabilityEstimator keeps EWMA loss estimates per prefix and per link, and selects
// links until a delivery probability target is met. Prefixes are evicted least recently used first.
type ReliabilityEstimator struct {
	beta        float64
	threshold   int
	maxPrefixes int

	prefixes map[string]*FaceStats
	lru      *list.List
}

// NewReliabilityEstimator creates an estimator from the reliability options.
func NewReliabilityEstimator(opts *Options) *ReliabilityEstimator {
	return &ReliabilityEstimator{
		beta:        opts.ReliabilityBeta,
		threshold:   opts.BootstrapThreshold,
		maxPrefixes: opts.MaxPrefixes,
		prefixes:    make(map[string]*FaceStats),
		lru:         list.New(),
	}
}

// Len returns the number of tracked prefixes.
func (r *ReliabilityEstimator) Len() int {
	return len(r.prefixes)
}

// Stats returns the statistics of a prefix without creating them, or nil.
func (r *ReliabilityEstimator) Stats(prefix string) *FaceStats {
	return r.prefixes[prefix]
}

func (r *ReliabilityEstimator) getOrCreate(prefix string) *FaceStats {
	if stats, ok := r.prefixes[prefix]; ok {
		r.lru.MoveToFront(stats.elem)
		return stats
	}
	stats := &FaceStats{
		AbsLoss: make(map[uint64]float64),
		RelLoss: make(map[uint64]float64),
		prefix:  prefix,
	}
	stats.elem = r.lru.PushFront(stats)
	r.prefixes[prefix] = stats
	for len(r.prefixes) > r.maxPrefixes {
		oldest := r.lru.Back()
		r.lru.Remove(oldest)
		delete(r.prefixes, oldest.Value.(*FaceStats).prefix)
	}
	return stats
}

func (r *ReliabilityEstimator) ewma(estimate, event float64) float64 {
	return comparison.Clamp(r.beta*event+(1-r.beta)*estimate, 0, 1)
}

// Initialize adds zeroed loss entries for the candidate links of a prefix that are not yet known.
func (r *ReliabilityEstimator) Initialize(prefix string, candidates []uint64) {
	stats := r.getOrCreate(prefix)
	for _, link := range candidates {
		if _, ok := stats.AbsLoss[link]; !ok {
			stats.AbsLoss[link] = 0
			stats.RelLoss[link] = 0
		}
	}
}

// CountPacket counts one request for a prefix. The prefix is bootstrapped once the count
// reaches the threshold.
func (r *ReliabilityEstimator) CountPacket(prefix string) {
	stats := r.getOrCreate(prefix)
	stats.TotalPackets++
	if stats.TotalPackets >= r.threshold {
		stats.Bootstrapped = true
	}
}

// RecordSuccess records that link answered a request. The other outstanding links register a
// relative loss.
func (r *ReliabilityEstimator) RecordSuccess(prefix string, link uint64, outstanding []uint64) {
	stats := r.getOrCreate(prefix)
	stats.AbsLoss[link] = r.ewma(stats.AbsLoss[link], 0)
	stats.RelLoss[link] = r.ewma(stats.RelLoss[link], 0)
	for _, other := range outstanding {
		if other != link {
			stats.RelLoss[other] = r.ewma(stats.RelLoss[other], 1)
			if _, ok := stats.AbsLoss[other]; !ok {
				stats.AbsLoss[other] = 0
			}
		}
	}
}

// RecordFailure records that none of the outstanding links answered a request.
func (r *ReliabilityEstimator) RecordFailure(prefix string, outstanding []uint64) {
	stats := r.getOrCreate(prefix)
	for _, link := range outstanding {
		stats.AbsLoss[link] = r.ewma(stats.AbsLoss[link], 1)
		stats.RelLoss[link] = r.ewma(stats.RelLoss[link], 1)
	}
}

// Probability returns the estimated delivery probability of link for a prefix. It is zero until the
// prefix is bootstrapped.
func (r *ReliabilityEstimator) Probability(prefix string, link uint64, relative bool) float64 {
	stats, ok := r.prefixes[prefix]
	if !ok || !stats.Bootstrapped {
		return 0
	}
	losses := stats.AbsLoss
	if relative {
		losses = stats.RelLoss
	}
	loss, ok := losses[link]
	if !ok {
		return 1
	}
	return 1 - loss
}

// SelectLinks greedily picks eligible candidates by highest delivery probability until their
// sum reaches target. The first pick uses the absolute estimate and later picks the relative one.
// Ties go to the earlier candidate. A link is never picked twice.
func (r *ReliabilityEstimator) SelectLinks(prefix string, candidates []uint64, target float64, eligible func(link uint64) bool) []uint64 {
	r.Initialize(prefix, candidates)

	selected := make([]uint64, 0, len(candidates))
	tried := make(map[uint64]bool, len(candidates))
	sum := 0.0
	for sum < target {
		relative := len(selected) > 0
		best := -1
		bestProbability := 0.0
		for i, link := range candidates {
			if tried[link] {
				continue
			}
			if eligible != nil && !eligible(link) {
				tried[link] = true
				continue
			}
			p := r.Probability(prefix, link, relative)
			if best < 0 || p > bestProbability {
				best = i
				bestProbability = p
			}
		}
		if best < 0 {
			break
		}
		tried[candidates[best]] = true
		selected = append(selected, candidates[best])
		sum += bestProbability
	}
	return selected
}
