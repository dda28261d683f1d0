/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"encoding/binary"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/named-data/qosfwd/ndn"
)

// deadNonceSlices is the number of bloom filter generations kept. An entry lives between
// (slices-1)/slices and 1 lifetime.
const deadNonceSlices = 4

// DeadNonceList represents the Dead Nonce List for a forwarding thread. Entries age out in
// generations of bloom filters, so a lookup may report a false positive but never a false negative
// within the lifetime.
type DeadNonceList struct {
	slices        [deadNonceSlices]*bloom.BloomFilter
	current       int
	sliceStart    time.Duration
	sliceDuration time.Duration
	capacity      uint
}

// NewDeadNonceList creates a new Dead Nonce List using the configured lifetime and capacity.
func NewDeadNonceList() *DeadNonceList {
	return NewDeadNonceListWith(deadNonceListLifetime, deadNonceListCapacity)
}

// NewDeadNonceListWith creates a Dead Nonce List with explicit parameters.
func NewDeadNonceListWith(lifetime time.Duration, capacity uint) *DeadNonceList {
	d := &DeadNonceList{
		sliceDuration: lifetime / deadNonceSlices,
		capacity:      capacity,
	}
	if d.sliceDuration <= 0 {
		d.sliceDuration = time.Millisecond
	}
	for i := range d.slices {
		d.slices[i] = bloom.NewWithEstimates(capacity, 0.0001)
	}
	return d
}

func deadNonceKey(name ndn.Name, nonce uint32) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint64(key, name.Hash())
	binary.BigEndian.PutUint32(key[8:], nonce)
	return key
}

// rotate starts new generations until now falls within the current slice.
func (d *DeadNonceList) rotate(now time.Duration) {
	for rotated := 0; now-d.sliceStart >= d.sliceDuration; rotated++ {
		if rotated >= deadNonceSlices {
			// Everything is stale: restart the window at now
			d.sliceStart = now
			break
		}
		d.current = (d.current + 1) % deadNonceSlices
		d.slices[d.current].ClearAll()
		d.sliceStart += d.sliceDuration
	}
}

// Find returns whether the specified name and nonce combination are present in the Dead Nonce List.
func (d *DeadNonceList) Find(name ndn.Name, nonce uint32, now time.Duration) bool {
	d.rotate(now)
	key := deadNonceKey(name, nonce)
	for _, slice := range d.slices {
		if slice.Test(key) {
			return true
		}
	}
	return false
}

// Insert inserts an entry in the Dead Nonce List with the specified name and nonce.
// Returns whether the nonce was already present.
func (d *DeadNonceList) Insert(name ndn.Name, nonce uint32, now time.Duration) bool {
	exists := d.Find(name, nonce, now)
	if !exists {
		d.slices[d.current].Add(deadNonceKey(name, nonce))
	}
	return exists
}
