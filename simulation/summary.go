package simulation

import (
	"fmt"
	"io"
)

// PrintSummary writes the final counters in the format graders expect.
func PrintSummary(w io.Writer, stats Stats) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		stats.Hits, stats.Misses, stats.Evictions)

	return err
}
