/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package main

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/named-data/qosfwd/core"
)

// Profiler writes the CPU, heap and blocking profiles requested on the command line.
type Profiler struct {
	cpuProfile   string
	memProfile   string
	blockProfile string

	cpuFile *os.File
	block   *pprof.Profile
}

func NewProfiler(cpuProfile, memProfile, blockProfile string) *Profiler {
	return &Profiler{cpuProfile: cpuProfile, memProfile: memProfile, blockProfile: blockProfile}
}

func (p *Profiler) String() string {
	return "Profiler"
}

// Start begins CPU and block profiling.
func (p *Profiler) Start() error {
	if p.cpuProfile != "" {
		var err error
		p.cpuFile, err = os.Create(p.cpuProfile)
		if err != nil {
			return err
		}
		core.LogInfo(p, "Profiling CPU - outputting to ", p.cpuProfile)
		if err = pprof.StartCPUProfile(p.cpuFile); err != nil {
			p.cpuFile.Close()
			p.cpuFile = nil
			return err
		}
	}

	if p.blockProfile != "" {
		core.LogInfo(p, "Profiling blocking operations - outputting to ", p.blockProfile)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}
	return nil
}

// Stop flushes every profile. The heap profile is taken here, at the end of the run.
func (p *Profiler) Stop() {
	if p.block != nil {
		writeProfile(p, p.blockProfile, func(f *os.File) error { return p.block.WriteTo(f, 0) })
	}

	if p.memProfile != "" {
		core.LogInfo(p, "Profiling memory - outputting to ", p.memProfile)
		runtime.GC()
		writeProfile(p, p.memProfile, func(f *os.File) error { return pprof.WriteHeapProfile(f) })
	}

	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
	}
}

func writeProfile(p *Profiler, path string, write func(*os.File) error) {
	f, err := os.Create(path)
	if err != nil {
		core.LogError(p, "Unable to open output file for profile: ", err)
		return
	}
	defer f.Close()
	if err := write(f); err != nil {
		core.LogError(p, "Unable to write profile ", path, ": ", err)
	}
}
