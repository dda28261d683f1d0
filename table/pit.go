/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"time"

	"github.com/named-data/qosfwd/ndn"
	"github.com/named-data/qosfwd/utils/comparison"
	"golang.org/x/exp/slices"
)

// Pit is the Pending Interest Table of a forwarding thread. It is not safe for concurrent use.
type Pit struct {
	tree     nameTree[*PitEntry]
	nEntries int
}

// PitEntry is an entry in a thread's PIT. Times are offsets on the owning thread's clock.
type PitEntry struct {
	node *nameTreeNode[*PitEntry]

	Name           ndn.Name
	InRecords      map[uint64]*PitInRecord  // Key is link ID
	OutRecords     map[uint64]*PitOutRecord // Key is link ID
	ExpirationTime time.Duration
	Satisfied      bool
	// Rejected is set when the request was answered with a Nack while no upstream was pending.
	Rejected bool

	// SuppressionInterval is the per-request retransmission suppression interval.
	SuppressionInterval time.Duration
	// ExpiryTimer identifies the scheduled expiry callback, zero when none.
	ExpiryTimer uint64

	// Class and FanOut remember the classification of the request.
	Class  int
	FanOut bool
}

// PitInRecord records an incoming Interest on a given link.
type PitInRecord struct {
	Link            uint64
	LatestNonce     uint32
	LatestTimestamp time.Duration
	LatestWire      []byte
	ExpirationTime  time.Duration
}

// PitOutRecord records an outgoing Interest on a given link, with its suppression state.
type PitOutRecord struct {
	Link                uint64
	LatestNonce         uint32
	LastSent            time.Duration
	SuppressionInterval time.Duration
	ExpirationTime      time.Duration
	Nacked              bool
	NackReason          ndn.NackReason
	// Dispatched is set once a copy of the request has left on the link. Records written at
	// decision time stay undispatched while the copy waits in a queue.
	Dispatched bool
}

// NewPit creates a new Pending Interest Table.
func NewPit() *Pit {
	return &Pit{tree: newNameTree(func(e *PitEntry) bool { return e == nil })}
}

// Size returns the number of entries in the PIT.
func (p *Pit) Size() int {
	return p.nEntries
}

// FindOrInsert finds or creates the entry for the Interest name. isDuplicate is true when another
// link already brought this nonce, which indicates a loop.
func (p *Pit) FindOrInsert(interest *ndn.Interest, inLink uint64) (entry *PitEntry, isDuplicate bool) {
	node := p.tree.fill(interest.Name)
	if node.value == nil {
		p.nEntries++
		node.value = &PitEntry{
			node:       node,
			Name:       node.name,
			InRecords:  make(map[uint64]*PitInRecord),
			OutRecords: make(map[uint64]*PitOutRecord),
		}
	}
	entry = node.value

	for link, inRecord := range entry.InRecords {
		// A retransmission on the same link is not a loop
		if link != inLink && inRecord.LatestNonce == interest.Nonce {
			return entry, true
		}
	}
	return entry, false
}

// Find returns the entry with exactly this name, or nil.
func (p *Pit) Find(name ndn.Name) *PitEntry {
	node := p.tree.root.findExactMatch(name)
	if node == nil {
		return nil
	}
	return node.value
}

// Remove removes the specified PIT entry, returning whether it was present.
func (p *Pit) Remove(entry *PitEntry) bool {
	if entry.node == nil || entry.node.value != entry {
		return false
	}
	entry.node.value = nil
	p.tree.prune(entry.node)
	entry.node = nil
	p.nEntries--
	return true
}

// IsPending returns whether the entry is still in its PIT.
func (e *PitEntry) IsPending() bool {
	return e.node != nil
}

// InsertInRecord finds or inserts an in-record for the link. It returns whether the link already had one.
func (e *PitEntry) InsertInRecord(interest *ndn.Interest, wire []byte, link uint64, now time.Duration) (*PitInRecord, bool) {
	record, ok := e.InRecords[link]
	if !ok {
		record = &PitInRecord{Link: link}
		e.InRecords[link] = record
	}
	record.LatestNonce = interest.Nonce
	record.LatestTimestamp = now
	record.LatestWire = wire
	record.ExpirationTime = now + interest.Lifetime
	return record, ok
}

// InsertOutRecord finds or inserts an out-record for the link. It returns whether the link already had one.
func (e *PitEntry) InsertOutRecord(link uint64, nonce uint32, lifetime time.Duration, now time.Duration) (*PitOutRecord, bool) {
	record, ok := e.OutRecords[link]
	if !ok {
		record = &PitOutRecord{Link: link}
		e.OutRecords[link] = record
	}
	record.LatestNonce = nonce
	record.LastSent = now
	record.ExpirationTime = now + lifetime
	record.Nacked = false
	record.NackReason = ndn.NackReasonNone
	return record, ok
}

// UpdateExpirationTime sets the expiration to the latest in-record expiration and returns it.
func (e *PitEntry) UpdateExpirationTime() time.Duration {
	e.ExpirationTime = 0
	for _, record := range e.InRecords {
		e.ExpirationTime = comparison.Max(e.ExpirationTime, record.ExpirationTime)
	}
	return e.ExpirationTime
}

// LastOutgoing returns the most recent out-record send time. ok is false when nothing was sent.
func (e *PitEntry) LastOutgoing() (last time.Duration, ok bool) {
	for _, record := range e.OutRecords {
		if !ok || record.LastSent > last {
			last = record.LastSent
			ok = true
		}
	}
	return last, ok
}

// PendingDownstreams returns, in ascending order, the links of in-records that have not expired.
func (e *PitEntry) PendingDownstreams(now time.Duration) []uint64 {
	links := make([]uint64, 0, len(e.InRecords))
	for link, record := range e.InRecords {
		if record.ExpirationTime > now {
			links = append(links, link)
		}
	}
	slices.Sort(links)
	return links
}

// PendingUpstreams returns, in ascending order, the links of out-records that have neither expired nor been nacked.
func (e *PitEntry) PendingUpstreams(now time.Duration) []uint64 {
	links := make([]uint64, 0, len(e.OutRecords))
	for link, record := range e.OutRecords {
		if !record.Nacked && record.ExpirationTime > now {
			links = append(links, link)
		}
	}
	slices.Sort(links)
	return links
}

// DispatchedUpstreams returns, in ascending order, the links of out-records whose request was
// dispatched and not nacked. With pendingOnly, expired records are skipped as well.
func (e *PitEntry) DispatchedUpstreams(now time.Duration, pendingOnly bool) []uint64 {
	links := make([]uint64, 0, len(e.OutRecords))
	for link, record := range e.OutRecords {
		if !record.Dispatched || record.Nacked || (pendingOnly && record.ExpirationTime <= now) {
			continue
		}
		links = append(links, link)
	}
	slices.Sort(links)
	return links
}

// Upstreams returns the links of all out-records in ascending order.
func (e *PitEntry) Upstreams() []uint64 {
	links := make([]uint64, 0, len(e.OutRecords))
	for link := range e.OutRecords {
		links = append(links, link)
	}
	slices.Sort(links)
	return links
}

// LatestInRecord returns the most recently refreshed in-record, or nil.
func (e *PitEntry) LatestInRecord() *PitInRecord {
	var latest *PitInRecord
	for _, record := range e.InRecords {
		if latest == nil || record.LatestTimestamp > latest.LatestTimestamp ||
			(record.LatestTimestamp == latest.LatestTimestamp && record.Link < latest.Link) {
			latest = record
		}
	}
	return latest
}
