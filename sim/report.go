/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package sim

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/named-data/qosfwd/fw"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"
)

// FlowReport summarizes one flow. Latencies are in seconds over satisfied requests.
type FlowReport struct {
	Name          string
	Sent          int
	Satisfied     int
	Nacked        int
	TimedOut      int
	LatencyMean   float64
	LatencyStdDev float64
	LatencyP95    float64
}

// DeliveryRatio returns the fraction of sent requests that were satisfied.
func (r FlowReport) DeliveryRatio() float64 {
	if r.Sent == 0 {
		return 0
	}
	return float64(r.Satisfied) / float64(r.Sent)
}

// Report is the outcome of a simulation run.
type Report struct {
	Flows []FlowReport
	Stats fw.Stats
}

func (s *Simulator) report() *Report {
	r := &Report{Stats: s.thread.Stats()}
	for _, f := range s.flows {
		r.Flows = append(r.Flows, summarize(f))
	}
	return r
}

func summarize(f *flow) FlowReport {
	report := FlowReport{
		Name:      f.desc.Name,
		Sent:      f.result.sent,
		Satisfied: f.result.satisfied,
		Nacked:    f.result.nacked,
		TimedOut:  f.result.timedOut,
	}
	latencies := slices.Clone(f.result.latencies)
	if len(latencies) == 0 {
		return report
	}
	slices.Sort(latencies)
	if len(latencies) > 1 {
		report.LatencyMean, report.LatencyStdDev = stat.MeanStdDev(latencies, nil)
	} else {
		report.LatencyMean = latencies[0]
	}
	report.LatencyP95 = stat.Quantile(0.95, stat.Empirical, latencies, nil)
	return report
}

// Flow returns the report of the named flow.
func (r *Report) Flow(name string) (FlowReport, bool) {
	for _, flow := range r.Flows {
		if flow.Name == name {
			return flow, true
		}
	}
	return FlowReport{}, false
}

// Write prints the report as a table.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FLOW\tSENT\tSATISFIED\tNACKED\tTIMED OUT\tDELIVERY\tMEAN ms\tSTDDEV ms\tP95 ms")
	for _, f := range r.Flows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\n", f.Name, f.Sent, f.Satisfied, f.Nacked,
			f.TimedOut, f.DeliveryRatio(), f.LatencyMean*1000, f.LatencyStdDev*1000, f.LatencyP95*1000)
	}
	fmt.Fprintf(tw, "\nrequests in/out\t%d/%d\n", r.Stats.NInRequests, r.Stats.NOutRequests)
	fmt.Fprintf(tw, "responses in/out\t%d/%d\n", r.Stats.NInResponses, r.Stats.NOutResponses)
	fmt.Fprintf(tw, "nacks in/out\t%d/%d\n", r.Stats.NInNacks, r.Stats.NOutNacks)
	fmt.Fprintf(tw, "sent per class\t%v\n", r.Stats.NSentPerClass)
	fmt.Fprintf(tw, "queue drops\t%d\n", r.Stats.NQueueDrops)
	fmt.Fprintf(tw, "suppressed\t%d\n", r.Stats.NSuppressed)
	return tw.Flush()
}
