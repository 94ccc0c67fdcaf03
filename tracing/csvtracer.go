package tracing

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// CSVTracer writes one line per cache access into a CSV stream.
type CSVTracer struct {
	w   io.Writer
	err error

	rows       []cache.AccessDetail
	bufferSize int
	seq        uint64
}

// NewCSVTracer creates a tracer that writes to w, starting with the header.
func NewCSVTracer(w io.Writer) *CSVTracer {
	t := &CSVTracer{
		w:          w,
		bufferSize: 1000,
	}

	_, t.err = fmt.Fprintf(w,
		"Seq, Address, SetIndex, Tag, WayID, Outcome, EvictedTag\n")

	return t
}

// NewCSVFileTracer creates path + ".csv" and returns a tracer writing to it.
// An empty path picks a unique name. The file is flushed and closed at exit.
func NewCSVFileTracer(path string) *CSVTracer {
	if path == "" {
		path = "cachesim_accesses_" + xid.New().String()
	}

	filename := path + ".csv"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}

	t := NewCSVTracer(file)

	atexit.Register(func() {
		t.Flush()

		err := file.Close()
		if err != nil {
			panic(err)
		}
	})

	return t
}

// Err returns the first write error.
func (t *CSVTracer) Err() error {
	return t.err
}

// Func buffers the access carried by a cache access hook.
func (t *CSVTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	t.rows = append(t.rows, ctx.Detail.(cache.AccessDetail))
	if len(t.rows) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered accesses.
func (t *CSVTracer) Flush() {
	for _, row := range t.rows {
		if t.err != nil {
			break
		}

		evicted := ""
		if row.Outcome.IsEviction() {
			evicted = fmt.Sprintf("0x%x", row.EvictedTag)
		}

		_, t.err = fmt.Fprintf(t.w, "%d, 0x%x, %d, 0x%x, %d, %s, %s\n",
			t.seq,
			row.Address,
			row.SetIndex,
			row.Tag,
			row.WayID,
			row.Outcome,
			evicted,
		)
		t.seq++
	}

	t.rows = nil
}
