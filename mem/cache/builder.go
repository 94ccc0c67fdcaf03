package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/addressing"
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// Builder can build caches.
type Builder struct {
	setBits          int
	wayAssociativity int
	blockBits        int
	replaceStrategy  string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		setBits:          4,
		wayAssociativity: 1,
		blockBits:        4,
		replaceStrategy:  "lru",
	}
}

// WithSetBits sets the number of set index bits.
func (b Builder) WithSetBits(setBits int) Builder {
	b.setBits = setBits
	return b
}

// WithWayAssociativity sets the number of ways in each set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithBlockBits sets the number of block offset bits.
func (b Builder) WithBlockBits(blockBits int) Builder {
	b.blockBits = blockBits
	return b
}

// WithConfig sets the whole geometry at once.
func (b Builder) WithConfig(config Config) Builder {
	b.setBits = config.SetBits
	b.wayAssociativity = config.Associativity
	b.blockBits = config.BlockBits

	return b
}

// WithReplaceStrategy sets the replacement policy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// Build builds a cache. It panics if the configuration is invalid.
func (b Builder) Build(name string) *Cache {
	config := Config{
		SetBits:       b.setBits,
		Associativity: b.wayAssociativity,
		BlockBits:     b.blockBits,
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	c := &Cache{
		name:    name,
		config:  config,
		decoder: addressing.NewDecoder(b.setBits, b.blockBits),
	}

	victimFinder := b.createVictimFinder()

	c.sets = make([]*tagging.Set, config.NumSets())
	for i := range c.sets {
		c.sets[i] = tagging.NewSet(i, b.wayAssociativity, victimFinder)
	}

	return c
}

func (b Builder) createVictimFinder() tagging.VictimFinder {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder()
	default:
		panic(fmt.Sprintf("replace strategy %s is not supported",
			b.replaceStrategy))
	}
}
