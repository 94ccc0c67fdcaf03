package trace

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// CountRecords returns the number of record lines in r, skipping the same
// lines a Reader skips. The lines are not parsed.
func CountRecords(r io.Reader) (uint64, error) {
	scanner := bufio.NewScanner(r)

	var n uint64
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || IsToolMessage(text) {
			continue
		}

		n++
	}

	return n, scanner.Err()
}

// CountFileRecords counts the record lines of a trace file.
func CountFileRecords(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return CountRecords(f)
}
