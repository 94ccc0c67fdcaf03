package cache

// State is a copy of the resident tags of a cache.
type State struct {
	Config Config
	// Sets holds, for every set, the tags of its valid blocks ordered from
	// most to least recently used.
	Sets [][]uint64
}

// State returns a snapshot of the cache contents.
func (c *Cache) State() State {
	s := State{
		Config: c.config,
		Sets:   make([][]uint64, len(c.sets)),
	}

	for i, set := range c.sets {
		s.Sets[i] = set.Tags()
	}

	return s
}

// SetTags returns the tags resident in one set, most recently used first.
func (c *Cache) SetTags(setIndex int) []uint64 {
	return c.sets[setIndex].Tags()
}
