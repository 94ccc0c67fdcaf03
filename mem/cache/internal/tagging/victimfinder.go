package tagging

// A VictimFinder decides which block should be replaced when a set misses.
type VictimFinder interface {
	FindVictim(set *Set) (Block, bool)
}

// LRUVictimFinder picks an empty way if there is one and otherwise the least
// recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed LRU victim finder.
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the block to replace in the set.
func (e *LRUVictimFinder) FindVictim(set *Set) (Block, bool) {
	for _, wayID := range set.LRUQueue {
		block := set.Blocks[wayID]
		if !block.IsValid {
			return block, true
		}
	}

	if len(set.LRUQueue) == 0 {
		return Block{}, false
	}

	return set.Blocks[set.LRUQueue[0]], true
}
