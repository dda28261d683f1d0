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
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/named-data/qosfwd/core"
)

// MaxFrameSize is the largest frame accepted or sent on a stream link.
const MaxFrameSize = 8800

// WebSocketLink communicates with peers via WebSocket binary messages.
type WebSocketLink struct {
	LinkBase
	c         *websocket.Conn
	sendQueue chan []byte
	closed    atomic.Bool
	closeOnce sync.Once
	hasQuit   chan struct{}
}

// NewWebSocketLink wraps an upgraded connection. queueSize bounds the frames waiting to be written.
func NewWebSocketLink(c *websocket.Conn, scope Scope, queueSize int) *WebSocketLink {
	return &WebSocketLink{
		LinkBase:  MakeLinkBase(scope, PointToPoint),
		c:         c,
		sendQueue: make(chan []byte, queueSize),
		hasQuit:   make(chan struct{}),
	}
}

func (l *WebSocketLink) String() string {
	return "WebSocketLink, LinkID=" + strconv.FormatUint(l.id, 10) + ", Remote=" + l.c.RemoteAddr().String()
}

// Send queues a frame for the writer goroutine.
func (l *WebSocketLink) Send(frame []byte) error {
	if l.closed.Load() {
		return ErrLinkClosed
	}
	if len(frame) > MaxFrameSize {
		core.LogWarn(l, "Attempted to send frame larger than MTU - DROP")
		return ErrFrameTooLarge
	}
	select {
	case l.sendQueue <- frame:
		return nil
	default:
		return ErrLinkQueueFull
	}
}

// SendQueueSize returns the current size of the send queue.
func (l *WebSocketLink) SendQueueSize() (uint64, bool) {
	return uint64(len(l.sendQueue)), true
}

// Run starts the writer and reads frames until the connection fails. onClose is called once afterwards.
func (l *WebSocketLink) Run(handler FrameHandler, onClose func(Link)) {
	go l.runSend()
	l.runReceive(handler)
	l.Close()
	if onClose != nil {
		onClose(l)
	}
}

func (l *WebSocketLink) runSend() {
	for {
		select {
		case frame := <-l.sendQueue:
			if e := l.c.WriteMessage(websocket.BinaryMessage, frame); e != nil {
				core.LogWarn(l, "Unable to send on socket (", e, ") - DROP and link DOWN")
				l.Close()
				return
			}
			l.countOut(frame)
		case <-l.hasQuit:
			return
		}
	}
}

func (l *WebSocketLink) runReceive(handler FrameHandler) {
	core.LogTrace(l, "Starting receive thread")
	for {
		mt, message, e := l.c.ReadMessage()
		if e != nil {
			if !l.closed.Load() {
				core.LogInfo(l, "Unable to read from socket (", e, ") - link DOWN")
			}
			return
		}
		if mt != websocket.BinaryMessage {
			core.LogWarn(l, "Ignored non-binary message")
			continue
		}
		if len(message) > MaxFrameSize {
			core.LogWarn(l, "Received frame larger than MTU - DROP")
			continue
		}
		l.nInFrames.Add(1)
		handler(l, message)
	}
}

// Close shuts the link down. Further sends fail with ErrLinkClosed.
func (l *WebSocketLink) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.hasQuit)
		l.c.Close()
	})
}
