package cache

import (
	"errors"
	"fmt"
)

// Limits on the size of a simulated cache. Larger caches are refused before
// any storage is allocated.
const (
	MaxSetBits = 20
	MaxBlocks  = 1 << 20
)

var (
	// ErrInvalidConfig is returned when the cache geometry makes no sense.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrCacheTooLarge is returned when the cache would need more blocks than
	// the simulator is willing to allocate.
	ErrCacheTooLarge = errors.New("cache too large")
)

// Config is the geometry of a set-associative cache.
type Config struct {
	// SetBits is the number of set index bits (s). The cache has 2^s sets.
	SetBits int
	// Associativity is the number of ways per set (E).
	Associativity int
	// BlockBits is the number of block offset bits (b).
	BlockBits int
}

// Validate checks that a cache can be built from the configuration.
func (c Config) Validate() error {
	if c.SetBits < 0 || c.BlockBits < 0 {
		return fmt.Errorf("%w: s=%d b=%d must not be negative",
			ErrInvalidConfig, c.SetBits, c.BlockBits)
	}

	if c.Associativity < 1 {
		return fmt.Errorf("%w: associativity %d must be at least 1",
			ErrInvalidConfig, c.Associativity)
	}

	if c.SetBits+c.BlockBits > 64 {
		return fmt.Errorf("%w: s+b=%d exceeds the 64-bit address width",
			ErrInvalidConfig, c.SetBits+c.BlockBits)
	}

	if c.SetBits > MaxSetBits {
		return fmt.Errorf("%w: %d set bits, at most %d supported",
			ErrCacheTooLarge, c.SetBits, MaxSetBits)
	}

	// Compared as a quotient so that 2^s * E cannot wrap.
	if uint64(c.Associativity) > MaxBlocks/c.NumSets() {
		return fmt.Errorf("%w: %d sets x %d ways",
			ErrCacheTooLarge, c.NumSets(), c.Associativity)
	}

	return nil
}

// NumSets returns 2^SetBits.
func (c Config) NumSets() uint64 {
	return 1 << uint(c.SetBits)
}

// BlockSize returns the number of bytes in a cache line.
func (c Config) BlockSize() uint64 {
	return 1 << uint(c.BlockBits)
}

// TotalSize returns the maximum number of bytes the cache can hold.
func (c Config) TotalSize() uint64 {
	return c.NumSets() * uint64(c.Associativity) * c.BlockSize()
}

func (c Config) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", c.SetBits, c.Associativity, c.BlockBits)
}
