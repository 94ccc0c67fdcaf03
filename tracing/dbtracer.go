// Package tracing records what a simulation does.
package tracing

import (
	"fmt"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
	"github.com/sarchlab/cachesim/simulation"
)

// Names of the tables written by the DBTracer.
const (
	AccessTable  = "cache_accesses"
	SummaryTable = "cache_runs"
)

// AccessEntry is one cache access. Addresses and tags are stored as hex
// strings since SQLite integers are signed.
type AccessEntry struct {
	RunID      string
	Seq        uint64
	RecordSeq  uint64
	Address    string
	SetIndex   uint64
	Tag        string
	WayID      int
	Outcome    string
	EvictedTag string
}

// SummaryEntry holds the final counters of a run.
type SummaryEntry struct {
	RunID         string
	SetBits       int
	Associativity int
	BlockBits     int
	Records       uint64
	Hits          uint64
	Misses        uint64
	Evictions     uint64
}

// DBTracer is a hook that stores cache accesses and run summaries into a
// DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
	runID   string
	config  cache.Config

	recordAccesses bool
	start, end     uint64

	accessSeq  uint64
	recordSeq  uint64
	numEntries uint64
}

// NewDBTracer creates a tracer that writes into the backend. The tables are
// created right away.
func NewDBTracer(backend datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		backend:        backend,
		recordAccesses: true,
	}

	t.backend.CreateTable(AccessTable, AccessEntry{})
	t.backend.CreateTable(SummaryTable, SummaryEntry{})

	return t
}

// WithoutAccesses makes the tracer store only the run summary.
func (t *DBTracer) WithoutAccesses() *DBTracer {
	t.recordAccesses = false
	return t
}

// WithWindow limits access recording to accesses whose sequence number is in
// [start, end). An end of 0 means no upper limit.
func (t *DBTracer) WithWindow(start, end uint64) *DBTracer {
	if end != 0 && end <= start {
		panic(fmt.Sprintf("window end %d must be after start %d", end, start))
	}

	t.start = start
	t.end = end

	return t
}

// Attach registers the tracer with the simulator and its cache.
func (t *DBTracer) Attach(sim *simulation.Simulator) {
	t.runID = sim.ID()
	t.config = sim.Cache().Config()

	sim.AcceptHook(t)
	sim.Cache().AcceptHook(t)
}

// NumEntries returns the number of access entries written.
func (t *DBTracer) NumEntries() uint64 {
	return t.numEntries
}

// Func handles the hook positions the tracer cares about.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		t.recordAccess(ctx.Detail.(cache.AccessDetail))
	case simulation.HookPosRecordProcessed:
		t.recordSeq++
	case simulation.HookPosRunEnd:
		t.recordSummary(ctx.Item.(simulation.Stats))
	}
}

func (t *DBTracer) recordAccess(detail cache.AccessDetail) {
	seq := t.accessSeq
	t.accessSeq++

	if !t.recordAccesses || !t.inWindow(seq) {
		return
	}

	entry := AccessEntry{
		RunID:     t.runID,
		Seq:       seq,
		RecordSeq: t.recordSeq + 1,
		Address:   fmt.Sprintf("0x%x", detail.Address),
		SetIndex:  detail.SetIndex,
		Tag:       fmt.Sprintf("0x%x", detail.Tag),
		WayID:     detail.WayID,
		Outcome:   detail.Outcome.String(),
	}

	if detail.Outcome.IsEviction() {
		entry.EvictedTag = fmt.Sprintf("0x%x", detail.EvictedTag)
	}

	t.backend.InsertData(AccessTable, entry)
	t.numEntries++
}

func (t *DBTracer) inWindow(seq uint64) bool {
	if seq < t.start {
		return false
	}

	return t.end == 0 || seq < t.end
}

func (t *DBTracer) recordSummary(stats simulation.Stats) {
	t.backend.InsertData(SummaryTable, SummaryEntry{
		RunID:         t.runID,
		SetBits:       t.config.SetBits,
		Associativity: t.config.Associativity,
		BlockBits:     t.config.BlockBits,
		Records:       t.recordSeq,
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		Evictions:     stats.Evictions,
	})

	t.backend.Flush()
}
