/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package qos

import (
	"time"

	"github.com/named-data/qosfwd/table"
	"github.com/named-data/qosfwd/utils/comparison"
)

// SuppressionDecision is the outcome of retransmission suppression.
type SuppressionDecision int

const (
	// DecisionNew means the request has not been forwarded yet.
	DecisionNew SuppressionDecision = iota
	// DecisionForward means the retransmission is allowed.
	DecisionForward
	// DecisionSuppress means the retransmission arrived within the suppression interval.
	DecisionSuppress
)

func (d SuppressionDecision) String() string {
	switch d {
	case DecisionNew:
		return "New"
	case DecisionForward:
		return "Forward"
	case DecisionSuppress:
		return "Suppress"
	}
	return "Unknown"
}

// Suppressor implements exponential retransmission suppression. Its state lives in the PIT
// entry and its out-records, so it is discarded with the entry.
type Suppressor struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

// NewSuppressor creates a suppressor from the suppression options.
func NewSuppressor(opts *Options) *Suppressor {
	return &Suppressor{
		initial:    opts.SuppressionInitial,
		max:        opts.SuppressionMax,
		multiplier: opts.SuppressionMultiplier,
	}
}

func (s *Suppressor) next(interval time.Duration) time.Duration {
	if interval <= 0 {
		return s.initial
	}
	return comparison.Min(time.Duration(float64(interval)*s.multiplier), s.max)
}

func (s *Suppressor) current(interval time.Duration) time.Duration {
	if interval <= 0 {
		return s.initial
	}
	return interval
}

// DecidePerRequest decides whether a request may be forwarded again. It does not modify the entry.
func (s *Suppressor) DecidePerRequest(entry *table.PitEntry, now time.Duration) SuppressionDecision {
	if len(entry.PendingUpstreams(now)) == 0 {
		return DecisionNew
	}
	lastOutgoing, _ := entry.LastOutgoing()
	if now-lastOutgoing < s.current(entry.SuppressionInterval) {
		return DecisionSuppress
	}
	return DecisionForward
}

// DecidePerUpstream decides whether the request may be sent again to one upstream link.
func (s *Suppressor) DecidePerUpstream(entry *table.PitEntry, link uint64, now time.Duration) SuppressionDecision {
	record, ok := entry.OutRecords[link]
	if !ok || record.Nacked || record.ExpirationTime <= now {
		return DecisionNew
	}
	if now-record.LastSent < s.current(record.SuppressionInterval) {
		return DecisionSuppress
	}
	return DecisionForward
}

// AfterRequestDecision applies a per-request decision to the entry once the request is forwarded.
// New starts the interval over; Forward grows it by the multiplier up to the maximum.
func (s *Suppressor) AfterRequestDecision(entry *table.PitEntry, decision SuppressionDecision) {
	switch decision {
	case DecisionNew:
		entry.SuppressionInterval = s.initial
	case DecisionForward:
		entry.SuppressionInterval = s.next(s.current(entry.SuppressionInterval))
	}
}

// RecordForward creates or renews the out-record of link and advances its suppression interval.
func (s *Suppressor) RecordForward(entry *table.PitEntry, link uint64, nonce uint32, lifetime, now time.Duration) *table.PitOutRecord {
	previous, hadRecord := entry.OutRecords[link]
	wasLive := hadRecord && !previous.Nacked && previous.ExpirationTime > now
	record, _ := entry.InsertOutRecord(link, nonce, lifetime, now)
	if wasLive {
		record.SuppressionInterval = s.next(s.current(record.SuppressionInterval))
	} else {
		record.SuppressionInterval = s.initial
	}
	return record
}
