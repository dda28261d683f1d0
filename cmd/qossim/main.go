/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/named-data/qosfwd/core"
	"github.com/named-data/qosfwd/qos"
	"github.com/named-data/qosfwd/sim"
	"github.com/named-data/qosfwd/table"
)

func main() {
	var configFile, topologyFile string
	flag.StringVar(&configFile, "config", "", "Configuration file (TOML) with the [qos] options")
	flag.StringVar(&topologyFile, "topology", "", "Scenario file (YAML)")
	flag.Parse()

	if topologyFile == "" {
		fmt.Fprintln(os.Stderr, "qossim: -topology is required")
		flag.PrintDefaults()
		os.Exit(2)
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

	if err := run(topologyFile); err != nil {
		core.LogError("Main", err)
		core.ShutdownLogger()
		os.Exit(1)
	}
}

func run(topologyFile string) error {
	topo, err := sim.ReadTopology(topologyFile, nil)
	if err != nil {
		return err
	}

	table.Configure()
	opts, err := qos.LoadOptions()
	if err != nil {
		return err
	}
	simulator, err := sim.NewSimulator(topo, opts)
	if err != nil {
		return err
	}

	core.LogInfo("Main", "Simulating ", len(topo.Flows), " flows for ", topo.Duration, "s")
	return simulator.Run().Write(os.Stdout)
}
