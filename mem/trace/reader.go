package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedRecord is returned when a trace line cannot be parsed.
var ErrMalformedRecord = errors.New("malformed trace record")

// A ParseError tells which line of a trace could not be parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A RecordSource produces records one at a time. Next returns io.EOF after the
// last record.
type RecordSource interface {
	Next() (Record, error)
}

// Reader parses a trace from an io.Reader.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	closer  io.Closer
}

// NewReader creates a reader that parses the trace in r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Open opens a trace file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := NewReader(f)
	r.closer = f

	return r, nil
}

// Close closes the underlying file, if the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next record. Blank lines and the "==pid==" messages that
// valgrind mixes into its output are skipped.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || IsToolMessage(text) {
			continue
		}

		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, &ParseError{Line: r.line, Text: text, Err: err}
		}

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, err
	}

	return Record{}, io.EOF
}

// IsToolMessage tells if a line is a valgrind message such as
// "==12345== Lackey, an example Valgrind tool" rather than a record.
func IsToolMessage(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "==")
}

// ParseRecord parses a single trace line such as " L 7ff000398,8".
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Record{}, fmt.Errorf("%w: expected an operation and an address",
			ErrMalformedRecord)
	}

	kind, err := ParseKind(fields[0])
	if err != nil {
		return Record{}, err
	}

	addrText, sizeText, hasSize := strings.Cut(fields[1], ",")

	addrText = strings.TrimPrefix(strings.ToLower(addrText), "0x")
	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad address: %v",
			ErrMalformedRecord, err)
	}

	rec := Record{Kind: kind, Address: addr}

	if hasSize {
		size, err := strconv.ParseUint(sizeText, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: bad size: %v",
				ErrMalformedRecord, err)
		}

		rec.Size = size
	}

	return rec, nil
}

// ReadAll parses every record in r.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	records := []Record{}

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return records, err
		}

		records = append(records, rec)
	}
}

// SliceSource replays records held in memory.
type SliceSource struct {
	records []Record
	next    int
}

// NewSliceSource creates a source that yields the given records in order.
func NewSliceSource(records []Record) *SliceSource {
	return &SliceSource{records: records}
}

// Next returns the next record or io.EOF.
func (s *SliceSource) Next() (Record, error) {
	if s.next >= len(s.records) {
		return Record{}, io.EOF
	}

	rec := s.records[s.next]
	s.next++

	return rec, nil
}
