package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/tracing"
)

func newReportCmd(stdout io.Writer) *cobra.Command {
	var numAccesses int

	reportCmd := &cobra.Command{
		Use:   "report <file.sqlite3>",
		Short: "Print the runs stored in a recording.",
		Long: "`report <file.sqlite3>` prints the final counters of every run " +
			"recorded with --record, optionally followed by the first accesses.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printReport(cmd, stdout, args[0], numAccesses)
		},
	}

	reportCmd.Flags().IntVar(&numAccesses, "accesses", 0,
		"Number of recorded accesses to print after the summary")

	return reportCmd
}

func printReport(
	cmd *cobra.Command,
	w io.Writer,
	file string,
	numAccesses int,
) error {
	reader, err := datarecording.NewReader(file)
	if err != nil {
		return fmt.Errorf("opening recording: %w", err)
	}
	defer reader.Close()

	reader.MapTable(tracing.SummaryTable, tracing.SummaryEntry{})
	reader.MapTable(tracing.AccessTable, tracing.AccessEntry{})

	runs, _, err := reader.Query(cmd.Context(), tracing.SummaryTable,
		datarecording.QueryParams{})
	if err != nil {
		return fmt.Errorf("reading runs: %w", err)
	}

	for _, r := range runs {
		run := r.(*tracing.SummaryEntry)
		fmt.Fprintf(w,
			"%s s=%d E=%d b=%d records:%d hits:%d misses:%d evictions:%d\n",
			run.RunID, run.SetBits, run.Associativity, run.BlockBits,
			run.Records, run.Hits, run.Misses, run.Evictions)
	}

	if numAccesses <= 0 {
		return nil
	}

	accesses, total, err := reader.Query(cmd.Context(), tracing.AccessTable,
		datarecording.QueryParams{OrderBy: "RunID, Seq", Limit: numAccesses})
	if err != nil {
		return fmt.Errorf("reading accesses: %w", err)
	}

	fmt.Fprintf(w, "showing %d of %d accesses\n", len(accesses), total)

	for _, a := range accesses {
		access := a.(*tracing.AccessEntry)
		fmt.Fprintf(w, "%d %s set:%d tag:%s way:%d %s\n",
			access.Seq, access.Address, access.SetIndex, access.Tag,
			access.WayID, access.Outcome)
	}

	return nil
}
