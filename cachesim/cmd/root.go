// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// Environment variables that provide flag defaults.
const (
	envSetBits       = "CACHESIM_SET_BITS"
	envAssociativity = "CACHESIM_ASSOCIATIVITY"
	envBlockBits     = "CACHESIM_BLOCK_BITS"
	envTrace         = "CACHESIM_TRACE"
	envVerbose       = "CACHESIM_VERBOSE"
	envRecord        = "CACHESIM_RECORD"
	envMonitorPort   = "CACHESIM_MONITOR_PORT"
)

var errMissingArgument = errors.New("missing required command line argument")

// Execute loads .env, runs the command line, and exits with status 1 on
// failure.
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd(os.Stdout, os.Stderr)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errMissingArgument) {
			log.Print(err)
		}

		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use: "cachesim [-hv] -s <num> -E <num> -b <num> -t <file>",
		Short: "cachesim replays a memory trace through a set-associative " +
			"LRU cache.",
		Long: `cachesim replays a valgrind lackey trace through a cache ` +
			`with 2^s sets of E lines of 2^b bytes and prints the number ` +
			`of hits, misses, and evictions.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.complete() {
				fmt.Fprintln(stderr, "Missing required command line argument")
				fmt.Fprint(stderr, cmd.UsageString())

				return errMissingArgument
			}

			return runSimulation(cmd.Context(), opts, stdout, stderr)
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.Flags()
	flags.IntVarP(&opts.setBits, "set-bits", "s",
		envInt(stderr, envSetBits, 0),
		"Number of set index bits (S = 2^s is the number of sets)")
	flags.IntVarP(&opts.associativity, "associativity", "E",
		envInt(stderr, envAssociativity, 0),
		"Associativity (number of lines per set)")
	flags.IntVarP(&opts.blockBits, "block-bits", "b",
		envInt(stderr, envBlockBits, 0),
		"Number of block bits (B = 2^b is the block size)")
	flags.StringVarP(&opts.tracePath, "trace", "t",
		os.Getenv(envTrace),
		"Name of the valgrind trace to replay")
	flags.BoolVarP(&opts.verbose, "verbose", "v",
		envBool(stderr, envVerbose, false),
		"Optional verbose flag that displays trace info")
	flags.BoolVar(&opts.record, "record",
		envBool(stderr, envRecord, false),
		"Record every access and the final counters into a SQLite database")
	flags.StringVar(&opts.recordPath, "record-path", "",
		"Database file name without the .sqlite3 suffix")
	flags.BoolVar(&opts.recordSummaryOnly, "record-summary-only", false,
		"Record only the final counters, not every access")
	flags.Uint64Var(&opts.recordWindowStart, "record-window-start", 0,
		"Sequence number of the first access to record")
	flags.Uint64Var(&opts.recordWindowEnd, "record-window-end", 0,
		"Sequence number after the last access to record, 0 for no limit")
	flags.StringVar(&opts.csvPath, "csv-path", "",
		"Write every access into this CSV file, without the .csv suffix")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"Serve the progress of the simulation over HTTP")
	flags.IntVar(&opts.monitorPort, "monitor-port",
		envInt(stderr, envMonitorPort, 0),
		"Port of the monitoring server, 0 for a random port")
	flags.BoolVar(&opts.monitorHold, "monitor-hold", false,
		"Keep the monitoring server up after the run until interrupted")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"Open the monitoring page in a browser, implies --monitor-hold")
	flags.Uint64Var(&opts.snapshotInterval, "snapshot-interval", 4096,
		"Records between two snapshots of the cache served by the monitor")

	rootCmd.AddCommand(newReportCmd(stdout))

	return rootCmd
}

func envInt(stderr io.Writer, name string, def int) int {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(stderr, "Ignoring %s=%q, not an integer\n", name, value)
		return def
	}

	return n
}

func envBool(stderr io.Writer, name string, def bool) bool {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return def
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		fmt.Fprintf(stderr, "Ignoring %s=%q, not a boolean\n", name, value)
		return def
	}

	return b
}
