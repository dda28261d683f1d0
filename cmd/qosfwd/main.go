/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/face"
	"github.com/named-data/qosfwd/fw"
	"github.com/named-data/qosfwd/metrics"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/table"
	"golang.org/x/sync/errgroup"
)

// Version of qosfwd.
var Version string

// BuildTime contains the timestamp of when the version of qosfwd was built.
var BuildTime string

const shutdownTimeout = 5 * time.Second

func main() {
	core.Version = Version
	core.BuildTime = BuildTime
	core.StartTimestamp = time.Now()

	var configFile, cpuProfile, memProfile, blockProfile string
	var shouldPrintVersion bool
	flag.StringVar(&configFile, "config", "", "Configuration file (TOML)")
	flag.BoolVar(&shouldPrintVersion, "version", false, "Print version and exit")
	flag.BoolVar(&shouldPrintVersion, "V", false, "Print version and exit (short)")
	flag.StringVar(&cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "mem-profile", "", "Write heap profile to file on exit")
	flag.StringVar(&blockProfile, "block-profile", "", "Write blocking profile to file on exit")
	flag.Parse()

	if shouldPrintVersion {
		fmt.Println("qosfwd: QoS-aware NDN forwarder")
		fmt.Println("Version " + core.Version + " (Built " + core.BuildTime + ")")
		fmt.Println("Released under the terms of the MIT License")
		return
	}

	if configFile != "" {
		if err := core.LoadConfig(configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	if err := core.InitializeLogger(core.GetConfigStringDefault("core.log_file", "")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer core.ShutdownLogger()

	if err := run(cpuProfile, memProfile, blockProfile); err != nil {
		core.LogError("Main", err)
		core.ShutdownLogger()
		os.Exit(1)
	}
}

func run(cpuProfile, memProfile, blockProfile string) error {
	core.LogInfo("Main", "Starting qosfwd")

	profiler := NewProfiler(cpuProfile, memProfile, blockProfile)
	if err := profiler.Start(); err != nil {
		return fmt.Errorf("unable to start profiler: %w", err)
	}
	defer profiler.Stop()

	table.Configure()
	fw.Configure()
	opts, err := qos.LoadOptions()
	if err != nil {
		return err
	}
	ctx, err := qos.NewContext(opts)
	if err != nil {
		return err
	}

	links := face.NewTable()
	// Routes to the null link discard matching requests.
	nullID := links.Add(face.NewNullLink())
	core.LogInfo("Main", "Created null link, LinkID=", nullID)
	fib := table.NewFib()
	if err = table.LoadRoutes(fib); err != nil {
		return err
	}

	thread := fw.NewThread(0, ctx, links, fib)
	go thread.Run()
	defer func() {
		thread.TellToQuit()
		<-thread.HasQuit
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, groupCtx := errgroup.WithContext(sigCtx)

	if listen := core.GetConfigStringDefault("ws.listen", ""); listen != "" {
		listener, err := face.NewWebSocketListener(face.WebSocketListenerConfig{
			Addr:      listen,
			TLSCert:   core.GetConfigStringDefault("ws.tls_cert", ""),
			TLSKey:    core.GetConfigStringDefault("ws.tls_key", ""),
			QueueSize: core.GetConfigIntDefault("ws.queue_size", 1024),
		}, links, thread.QueueFrame)
		if err != nil {
			return err
		}
		listener.OnLinkClosed = func(link face.Link) {
			id := link.ID()
			thread.Post(func() {
				fib.RemoveLink(id)
				thread.ForgetLink(id)
			})
		}
		group.Go(listener.Run)
		group.Go(func() error {
			<-groupCtx.Done()
			return shutdown(listener.Close)
		})
	}

	if listen := core.GetConfigStringDefault("metrics.listen", ""); listen != "" {
		server := metrics.NewServer(listen)
		if err = server.Register(metrics.NewCollector(thread)); err != nil {
			return err
		}
		group.Go(server.Run)
		group.Go(func() error {
			<-groupCtx.Done()
			return shutdown(server.Close)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		core.LogInfo("Main", "Shutting down")
		return nil
	})
	return group.Wait()
}

func shutdown(closer func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return closer(ctx)
}
