/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/named-data/qosfwd/core"
)

// WebSocketListenerConfig contains WebSocketListener configuration.
type WebSocketListenerConfig struct {
	Addr      string
	TLSCert   string
	TLSKey    string
	QueueSize int
}

// WebSocketListener accepts WebSocket connections and registers each one as a link.
type WebSocketListener struct {
	server   http.Server
	upgrader websocket.Upgrader
	table    *Table
	handler  FrameHandler
	cfg      WebSocketListenerConfig

	mutex    sync.Mutex
	listener net.Listener

	// OnLinkClosed, if set, is called after a closed link is removed from the table.
	OnLinkClosed func(link Link)
}

// NewWebSocketListener creates a listener. Accepted links are added to table and deliver frames to handler.
func NewWebSocketListener(cfg WebSocketListenerConfig, table *Table, handler FrameHandler) (*WebSocketListener, error) {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	l := &WebSocketListener{
		server: http.Server{Addr: cfg.Addr},
		upgrader: websocket.Upgrader{
			WriteBufferPool: &sync.Pool{},
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		table:   table,
		handler: handler,
		cfg:     cfg,
	}
	if cfg.TLSCert != "" {
		cert, e := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if e != nil {
			return nil, fmt.Errorf("tls.LoadX509KeyPair(%s %s): %w", cfg.TLSCert, cfg.TLSKey, e)
		}
		l.server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}
	l.server.Handler = http.HandlerFunc(l.handle)
	return l, nil
}

func (l *WebSocketListener) String() string {
	return "WebSocketListener, " + l.cfg.Addr
}

// Addr returns the bound address once Run has started listening, or nil.
func (l *WebSocketListener) Addr() net.Addr {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Run listens and serves until Close is called.
func (l *WebSocketListener) Run() error {
	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		return err
	}
	l.mutex.Lock()
	l.listener = ln
	l.mutex.Unlock()
	core.LogInfo(l, "Listening")

	if l.server.TLSConfig == nil {
		err = l.server.Serve(ln)
	} else {
		err = l.server.ServeTLS(ln, "", "")
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (l *WebSocketListener) handle(w http.ResponseWriter, r *http.Request) {
	c, e := l.upgrader.Upgrade(w, r, nil)
	if e != nil {
		return
	}

	link := NewWebSocketLink(c, ScopeNonLocal, l.cfg.QueueSize)
	l.table.Add(link)
	core.LogInfo(l, "Accepting new WebSocket link ", link)
	go link.Run(l.handler, func(closed Link) {
		l.table.Remove(closed.ID())
		core.LogInfo(l, "Removed closed link ", closed)
		if l.OnLinkClosed != nil {
			l.OnLinkClosed(closed)
		}
	})
}

// Close stops accepting connections.
func (l *WebSocketListener) Close(ctx context.Context) error {
	core.LogInfo(l, "Stopping listener")
	return l.server.Shutdown(ctx)
}
