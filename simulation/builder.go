package simulation

import (
	"github.com/sarchlab/cachesim/mem/cache"
)

// Builder can be used to build a simulator.
type Builder struct {
	cacheConfig cache.Config
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		cacheConfig: cache.Config{
			SetBits:       4,
			Associativity: 1,
			BlockBits:     4,
		},
	}
}

// WithCacheConfig sets the geometry of the simulated cache.
func (b Builder) WithCacheConfig(config cache.Config) Builder {
	b.cacheConfig = config
	return b
}

// Build builds the simulator. It panics if the cache configuration is invalid.
func (b Builder) Build() *Simulator {
	c := cache.MakeBuilder().
		WithConfig(b.cacheConfig).
		Build("Cache")

	return NewSimulator(c)
}
