// Package simulation replays memory access records against a cache and keeps
// the running hit, miss and eviction counts.
package simulation

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/xid"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/sim/hooking"
)

var (
	// HookPosRecordProcessed marks that every access of a record has been
	// served. The item is the trace.Record and the detail is a RecordDetail.
	HookPosRecordProcessed = &hooking.HookPos{Name: "RecordProcessed"}

	// HookPosRunEnd marks that the record source is exhausted. The item is
	// the final Stats.
	HookPosRunEnd = &hooking.HookPos{Name: "RunEnd"}
)

// Stats are the running counters of a simulation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of cache accesses counted.
func (s Stats) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of accesses that hit, or 0 if there were none.
func (s Stats) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses())
}

func (s *Stats) count(o cache.Outcome) {
	switch o {
	case cache.Hit:
		s.Hits++
	case cache.Miss:
		s.Misses++
	case cache.MissEvict:
		s.Misses++
		s.Evictions++
	}
}

// RecordDetail is what the simulator did for one record.
type RecordDetail struct {
	Seq      uint64
	Record   trace.Record
	Outcomes []cache.Outcome
}

// A Simulator turns access records into cache accesses. It is not safe for
// concurrent use; LRU order is defined by the order Process is called in.
type Simulator struct {
	hooking.HookableBase

	id    string
	cache *cache.Cache
	stats Stats

	numRecords uint64
}

// NewSimulator creates a simulator that drives the given cache.
func NewSimulator(c *cache.Cache) *Simulator {
	return &Simulator{
		id:    xid.New().String(),
		cache: c,
	}
}

// ID returns the unique ID of the simulation run.
func (s *Simulator) ID() string {
	return s.id
}

// Cache returns the cache being simulated.
func (s *Simulator) Cache() *cache.Cache {
	return s.cache
}

// Stats returns the counters accumulated so far.
func (s *Simulator) Stats() Stats {
	return s.stats
}

// NumRecords returns the number of records processed, including instruction
// fetches.
func (s *Simulator) NumRecords() uint64 {
	return s.numRecords
}

// Process applies one record. Loads and stores access the cache once, a modify
// accesses it twice at the same address, and an instruction fetch is ignored.
func (s *Simulator) Process(rec trace.Record) []cache.Outcome {
	n := rec.Kind.NumAccesses()
	outcomes := make([]cache.Outcome, 0, n)

	for range n {
		o := s.cache.Access(rec.Address)
		s.stats.count(o)
		outcomes = append(outcomes, o)
	}

	s.numRecords++

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosRecordProcessed,
			Item:   rec,
			Detail: RecordDetail{
				Seq:      s.numRecords,
				Record:   rec,
				Outcomes: outcomes,
			},
		})
	}

	return outcomes
}

// Run processes every record of the source in order. It stops at the first
// error other than io.EOF and returns it.
func (s *Simulator) Run(src trace.RecordSource) error {
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("reading record %d: %w", s.numRecords+1, err)
		}

		s.Process(rec)
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosRunEnd,
		Item:   s.stats,
	})

	return nil
}
