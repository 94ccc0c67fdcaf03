// Package cache provides a set-associative cache with LRU replacement that
// tracks which blocks are resident without modeling their contents.
package cache

import (
	"github.com/sarchlab/cachesim/mem/addressing"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// HookPosAccess marks that the cache has served an access. The hook item is
// the accessed address and the detail is an AccessDetail.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// AccessDetail describes where an access landed and what it did.
type AccessDetail struct {
	Address    uint64
	SetIndex   uint64
	Tag        uint64
	WayID      int
	Outcome    Outcome
	EvictedTag uint64
}

// Cache is a set-associative cache. It is created once with a fixed geometry
// and is never resized.
type Cache struct {
	hooking.HookableBase

	name    string
	config  Config
	decoder addressing.Decoder
	sets    []*tagging.Set
}

// NewCache creates an empty cache, or returns an error if the configuration
// cannot be built.
func NewCache(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return MakeBuilder().WithConfig(config).Build("Cache"), nil
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Config returns the geometry of the cache.
func (c *Cache) Config() Config {
	return c.config
}

// NumSets returns the number of sets in the cache.
func (c *Cache) NumSets() int {
	return len(c.sets)
}

// Access looks up the address and updates the LRU state of its set.
func (c *Cache) Access(addr uint64) Outcome {
	tag, setIndex := c.decoder.Decode(addr)
	result := c.sets[setIndex].Access(tag)

	outcome := Hit
	switch {
	case result.Evicted:
		outcome = MissEvict
	case !result.Hit:
		outcome = Miss
	}

	if c.NumHooks() > 0 {
		detail := AccessDetail{
			Address:  addr,
			SetIndex: setIndex,
			Tag:      tag,
			WayID:    result.Block.WayID,
			Outcome:  outcome,
		}

		if result.Evicted {
			detail.EvictedTag = result.Victim.Tag
		}

		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosAccess,
			Item:   addr,
			Detail: detail,
		})
	}

	return outcome
}

// Contains tells if the block holding the address is resident. It does not
// change the LRU state.
func (c *Cache) Contains(addr uint64) bool {
	tag, setIndex := c.decoder.Decode(addr)
	_, found := c.sets[setIndex].Lookup(tag)

	return found
}

// Occupancy returns the number of valid blocks in the cache.
func (c *Cache) Occupancy() int {
	n := 0
	for _, s := range c.sets {
		n += s.Len()
	}

	return n
}
