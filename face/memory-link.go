/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"strconv"
	"sync"
)

// MemoryLink keeps sent frames in memory and optionally hands them to a callback.
// It is used to attach in-process peers such as simulated producers.
type MemoryLink struct {
	LinkBase
	name string

	mutex     sync.Mutex
	sent      [][]byte
	occupancy uint64
	reports   bool

	// OnSend, if set, is called synchronously with every sent frame.
	OnSend func(frame []byte)
}

// NewMemoryLink makes a MemoryLink.
func NewMemoryLink(name string, scope Scope, linkType LinkType) *MemoryLink {
	return &MemoryLink{LinkBase: MakeLinkBase(scope, linkType), name: name}
}

func (l *MemoryLink) String() string {
	return "MemoryLink, LinkID=" + strconv.FormatUint(l.id, 10) + ", Name=" + l.name
}

// Send records the frame.
func (l *MemoryLink) Send(frame []byte) error {
	l.countOut(frame)
	l.mutex.Lock()
	l.sent = append(l.sent, frame)
	onSend := l.OnSend
	l.mutex.Unlock()
	if onSend != nil {
		onSend(frame)
	}
	return nil
}

// Sent returns a copy of the list of sent frames.
func (l *MemoryLink) Sent() [][]byte {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([][]byte(nil), l.sent...)
}

// Reset forgets previously sent frames.
func (l *MemoryLink) Reset() {
	l.mutex.Lock()
	l.sent = nil
	l.mutex.Unlock()
}

// SetOccupancy makes the link report the given send queue size.
func (l *MemoryLink) SetOccupancy(size uint64) {
	l.mutex.Lock()
	l.occupancy = size
	l.reports = true
	l.mutex.Unlock()
}

// SendQueueSize returns the configured occupancy. ok is false until SetOccupancy is called.
func (l *MemoryLink) SendQueueSize() (uint64, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.occupancy, l.reports
}
