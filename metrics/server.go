/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/named-data/qosfwd/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the Prometheus endpoint on /metrics and a liveness probe on /healthz.
type Server struct {
	listen   string
	registry *prometheus.Registry
	server   *http.Server

	mutex    sync.Mutex
	listener net.Listener
}

// NewServer creates a metrics server with the Go runtime and process collectors registered.
func NewServer(listen string) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{listen: listen, registry: registry}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	s.server = &http.Server{
		Addr:         listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) String() string {
	return "MetricsServer, " + s.listen
}

// Register adds a collector to the registry.
func (s *Server) Register(c prometheus.Collector) error {
	return s.registry.Register(c)
}

// Registry returns the registry of the server.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Addr returns the bound address once Run has started listening, or nil.
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens and serves until Close is called.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.listener = ln
	s.mutex.Unlock()
	core.LogInfo(s, "Serving metrics on ", ln.Addr())

	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the server.
func (s *Server) Close(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
