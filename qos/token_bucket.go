/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"github.com/named-data/qosfwd/utils/comparison"
	"golang.org/x/exp/slices"
)

// SendThreshold is the token level a class needs on a link to send one packet.
const SendThreshold = 1.0

// TokenBucket rate-limits one priority class. It keeps a separate token count per link.
type TokenBucket struct {
	capacity float64
	refill   float64
	tokens   map[uint64]float64
	need     map[uint64]float64
}

// NewTokenBucket creates a bucket holding at most capacity tokens per link, refilled by refill per tick.
func NewTokenBucket(capacity, refill float64) *TokenBucket {
	return &TokenBucket{
		capacity: capacity,
		refill:   refill,
		tokens:   make(map[uint64]float64),
		need:     make(map[uint64]float64),
	}
}

// Capacity returns the per-link capacity.
func (b *TokenBucket) Capacity() float64 {
	return b.capacity
}

// Tokens returns the token count of link. Links never seen are full.
func (b *TokenBucket) Tokens(link uint64) float64 {
	if tokens, ok := b.tokens[link]; ok {
		return tokens
	}
	return b.capacity
}

// Consume removes amount tokens from link if that many are available.
func (b *TokenBucket) Consume(amount float64, link uint64) bool {
	tokens, ok := b.tokens[link]
	if !ok {
		tokens = b.capacity
	}
	if amount > tokens {
		b.tokens[link] = tokens
		return false
	}
	b.tokens[link] = tokens - amount
	return true
}

// SetNeed records that link is waiting for amount tokens. Zero clears the need.
func (b *TokenBucket) SetNeed(link uint64, amount float64) {
	if amount <= 0 {
		delete(b.need, link)
		return
	}
	b.need[link] = amount
}

// Need returns the outstanding need of link.
func (b *TokenBucket) Need(link uint64) float64 {
	return b.need[link]
}

// Tick refills every tracked link and returns, in ascending order, the links whose need is now met.
func (b *TokenBucket) Tick() []uint64 {
	for link, tokens := range b.tokens {
		b.tokens[link] = comparison.Min(tokens+b.refill, b.capacity)
	}
	ready := make([]uint64, 0)
	for link, need := range b.need {
		if b.Tokens(link) >= need {
			ready = append(ready, link)
		}
	}
	slices.Sort(ready)
	return ready
}

// Forget drops the state kept for link.
func (b *TokenBucket) Forget(link uint64) {
	delete(b.tokens, link)
	delete(b.need, link)
}

// DrainSignal reports that a class on a link has gathered the tokens it was waiting for.
type DrainSignal struct {
	Class int
	Link  uint64
}

// BucketPool holds one token bucket per priority class.
type BucketPool struct {
	buckets []*TokenBucket
}

// NewBucketPool creates the buckets described by opts.
func NewBucketPool(opts *Options) *BucketPool {
	p := &BucketPool{buckets: make([]*TokenBucket, len(opts.BucketCapacity))}
	for i := range p.buckets {
		p.buckets[i] = NewTokenBucket(opts.BucketCapacity[i], opts.BucketRefill[i])
	}
	return p
}

// Bucket returns the bucket of a class, or nil if the class does not exist.
func (p *BucketPool) Bucket(class int) *TokenBucket {
	if class < 0 || class >= len(p.buckets) {
		return nil
	}
	return p.buckets[class]
}

// Available returns whether class may send on link now.
func (p *BucketPool) Available(class int, link uint64) bool {
	b := p.Bucket(class)
	return b != nil && b.Tokens(link) >= SendThreshold
}

// Levels returns the token count of every class on link.
func (p *BucketPool) Levels(link uint64) []float64 {
	levels := make([]float64, len(p.buckets))
	for i, b := range p.buckets {
		levels[i] = b.Tokens(link)
	}
	return levels
}

// Tick refills all buckets and returns the drain-ready signals, ordered by class then link.
func (p *BucketPool) Tick() []DrainSignal {
	signals := make([]DrainSignal, 0)
	for class, b := range p.buckets {
		for _, link := range b.Tick() {
			signals = append(signals, DrainSignal{Class: class, Link: link})
		}
	}
	return signals
}

// Forget drops all state kept for link.
func (p *BucketPool) Forget(link uint64) {
	for _, b := range p.buckets {
		b.Forget(link)
	}
}
