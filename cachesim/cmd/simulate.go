package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/simulation"
	"github.com/sarchlab/cachesim/tracing"
)

type options struct {
	setBits       int
	associativity int
	blockBits     int
	tracePath     string
	verbose       bool

	record            bool
	recordPath        string
	recordSummaryOnly bool
	recordWindowStart uint64
	recordWindowEnd   uint64
	csvPath           string

	monitor          bool
	monitorPort      int
	monitorHold      bool
	openBrowser      bool
	snapshotInterval uint64
}

// complete reports whether every mandatory argument was given. Zero counts as
// missing.
func (o *options) complete() bool {
	return o.setBits > 0 &&
		o.associativity > 0 &&
		o.blockBits > 0 &&
		o.tracePath != ""
}

func (o *options) cacheConfig() cache.Config {
	return cache.Config{
		SetBits:       o.setBits,
		Associativity: o.associativity,
		BlockBits:     o.blockBits,
	}
}

func (o *options) validate() error {
	if err := o.cacheConfig().Validate(); err != nil {
		return err
	}

	if o.recordWindowEnd != 0 && o.recordWindowEnd <= o.recordWindowStart {
		return fmt.Errorf("record window end %d must be after start %d",
			o.recordWindowEnd, o.recordWindowStart)
	}

	return nil
}

// holdMonitor tells if the monitoring server should outlive the run.
func (o *options) holdMonitor() bool {
	return o.monitor && (o.monitorHold || o.openBrowser)
}

func runSimulation(
	ctx context.Context,
	opts *options,
	stdout, stderr io.Writer,
) error {
	if err := opts.validate(); err != nil {
		return err
	}

	sim := simulation.MakeBuilder().
		WithCacheConfig(opts.cacheConfig()).
		Build()

	var verbose *simulation.VerboseHook
	if opts.verbose {
		verbose = simulation.NewVerboseHook(stdout)
		sim.AcceptHook(verbose)
	}

	if opts.record {
		recorder := datarecording.New(opts.recordPath)
		defer recorder.Close()

		attachDBTracer(opts, recorder, sim)
	}

	var csvTracer *tracing.CSVTracer
	if opts.csvPath != "" {
		csvTracer = tracing.NewCSVFileTracer(opts.csvPath)
		sim.Cache().AcceptHook(csvTracer)
	}

	var monitor *monitoring.Monitor
	if opts.monitor {
		m, _, err := startMonitor(opts, sim, stderr)
		if err != nil {
			return err
		}
		defer m.StopServer()

		monitor = m
	}

	reader, err := trace.Open(opts.tracePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	runErr := sim.Run(reader)

	if csvTracer != nil {
		if err := flushAccessCSV(csvTracer); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		return runErr
	}

	if verbose != nil && verbose.Err() != nil {
		return fmt.Errorf("writing verbose output: %w", verbose.Err())
	}

	if err := simulation.PrintSummary(stdout, sim.Stats()); err != nil {
		return err
	}

	if monitor != nil && opts.holdMonitor() {
		fmt.Fprintln(stderr,
			"Simulation finished, the monitoring server runs until interrupted")
		<-ctx.Done()
	}

	return nil
}

func attachDBTracer(
	opts *options,
	recorder datarecording.DataRecorder,
	sim *simulation.Simulator,
) {
	tracer := tracing.NewDBTracer(recorder)

	if opts.recordSummaryOnly {
		tracer.WithoutAccesses()
	} else if opts.recordWindowStart != 0 || opts.recordWindowEnd != 0 {
		tracer.WithWindow(opts.recordWindowStart, opts.recordWindowEnd)
	}

	tracer.Attach(sim)
}

func flushAccessCSV(t *tracing.CSVTracer) error {
	t.Flush()

	if err := t.Err(); err != nil {
		return fmt.Errorf("writing access csv: %w", err)
	}

	return nil
}

func startMonitor(
	opts *options,
	sim *simulation.Simulator,
	stderr io.Writer,
) (*monitoring.Monitor, string, error) {
	total, err := trace.CountFileRecords(opts.tracePath)
	if err != nil {
		return nil, "", err
	}

	m := monitoring.NewMonitor().
		WithPortNumber(opts.monitorPort).
		WithSnapshotInterval(opts.snapshotInterval).
		WithTotalRecords(total)
	m.Attach(sim)

	url, err := m.StartServer()
	if err != nil {
		return nil, "", fmt.Errorf("starting monitor: %w", err)
	}

	if opts.openBrowser {
		if err := monitoring.OpenInBrowser(url); err != nil {
			fmt.Fprintf(stderr, "Failed to open browser: %v\n", err)
		}
	}

	return m, url, nil
}
