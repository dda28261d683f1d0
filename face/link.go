/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"errors"
	"sync/atomic"
)

// Link errors.
var (
	ErrLinkClosed    = errors.New("link is closed")
	ErrLinkQueueFull = errors.New("link send queue is full")
	ErrFrameTooLarge = errors.New("frame exceeds link MTU")
)

// Link is an outgoing (and possibly incoming) attachment of the forwarder, identified by a link ID.
type Link interface {
	String() string
	ID() uint64
	Scope() Scope
	LinkType() LinkType
	// Send transmits an encoded frame. It must not block the caller.
	Send(frame []byte) error
}

// OccupancyReporter is implemented by links that can report how many frames are waiting to be sent.
// ok is false when the transport cannot tell.
type OccupancyReporter interface {
	SendQueueSize() (size uint64, ok bool)
}

// RegistrableLink is a link whose ID is assigned by a Table.
type RegistrableLink interface {
	Link
	SetID(id uint64)
}

// FrameHandler receives frames arriving on a link.
type FrameHandler func(link Link, frame []byte)

// LinkBase provides the identity and counters shared by link implementations.
type LinkBase struct {
	id       uint64
	scope    Scope
	linkType LinkType

	nInFrames  atomic.Uint64
	nOutFrames atomic.Uint64
	nOutBytes  atomic.Uint64
}

// MakeLinkBase initializes the embedded link state.
func MakeLinkBase(scope Scope, linkType LinkType) LinkBase {
	return LinkBase{scope: scope, linkType: linkType}
}

// ID returns the link ID.
func (l *LinkBase) ID() uint64 {
	return l.id
}

// SetID sets the link ID.
func (l *LinkBase) SetID(id uint64) {
	l.id = id
}

// Scope returns the scope of the link.
func (l *LinkBase) Scope() Scope {
	return l.scope
}

// LinkType returns the type of the link.
func (l *LinkBase) LinkType() LinkType {
	return l.linkType
}

// NInFrames returns the number of frames received.
func (l *LinkBase) NInFrames() uint64 {
	return l.nInFrames.Load()
}

// NOutFrames returns the number of frames sent.
func (l *LinkBase) NOutFrames() uint64 {
	return l.nOutFrames.Load()
}

// NOutBytes returns the number of bytes sent.
func (l *LinkBase) NOutBytes() uint64 {
	return l.nOutBytes.Load()
}

func (l *LinkBase) countOut(frame []byte) {
	l.nOutFrames.Add(1)
	l.nOutBytes.Add(uint64(len(frame)))
}
