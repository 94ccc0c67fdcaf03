package tagging

// A Set is a list of blocks where a certain piece of memory can be stored at.
//
// Blocks is indexed by way and never moves. LRUQueue holds way IDs ordered
// from the least recently used to the most recently used. Ways that have
// never been filled stay at the front of the queue.
type Set struct {
	ID       int
	Blocks   []Block
	LRUQueue []int

	victimFinder VictimFinder
	numValid     int
}

// AccessResult tells what happened when a set is accessed.
type AccessResult struct {
	Hit     bool
	Evicted bool
	Victim  Block
	Block   Block
}

// NewSet creates a set with numWays empty ways.
func NewSet(id, numWays int, victimFinder VictimFinder) *Set {
	if numWays < 1 {
		panic("a set must have at least one way")
	}

	s := &Set{
		ID:           id,
		Blocks:       make([]Block, numWays),
		LRUQueue:     make([]int, numWays),
		victimFinder: victimFinder,
	}

	for i := range s.Blocks {
		s.Blocks[i] = Block{SetID: id, WayID: i}
		s.LRUQueue[i] = i
	}

	return s
}

// NumWays returns the associativity of the set.
func (s *Set) NumWays() int {
	return len(s.Blocks)
}

// Len returns the number of valid blocks in the set.
func (s *Set) Len() int {
	return s.numValid
}

// Lookup finds the valid block that holds the tag.
func (s *Set) Lookup(tag uint64) (Block, bool) {
	for _, block := range s.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Visit moves the way to the most recently used end of the LRU queue. The
// relative order of the other ways does not change.
func (s *Set) Visit(wayID int) {
	pos := s.queuePosition(wayID)
	last := len(s.LRUQueue) - 1

	if pos == last {
		return
	}

	copy(s.LRUQueue[pos:], s.LRUQueue[pos+1:])
	s.LRUQueue[last] = wayID
}

// Access looks up the tag. A hit promotes the block to most recently used. A
// miss installs the tag, evicting the least recently used block if every way
// is taken.
func (s *Set) Access(tag uint64) AccessResult {
	if block, found := s.Lookup(tag); found {
		s.Visit(block.WayID)
		return AccessResult{Hit: true, Block: block}
	}

	victim, ok := s.victimFinder.FindVictim(s)
	if !ok {
		panic("no victim available in set")
	}

	result := AccessResult{}

	if victim.IsValid {
		s.evict(victim.WayID)
		result.Evicted = true
		result.Victim = victim
	}

	result.Block = s.fill(victim.WayID, tag)

	return result
}

// MRUOrder returns the valid blocks, most recently used first.
func (s *Set) MRUOrder() []Block {
	blocks := make([]Block, 0, s.numValid)

	for i := len(s.LRUQueue) - 1; i >= 0; i-- {
		block := s.Blocks[s.LRUQueue[i]]
		if block.IsValid {
			blocks = append(blocks, block)
		}
	}

	return blocks
}

// Tags returns the tags of the valid blocks, most recently used first.
func (s *Set) Tags() []uint64 {
	blocks := s.MRUOrder()

	tags := make([]uint64, len(blocks))
	for i, b := range blocks {
		tags[i] = b.Tag
	}

	return tags
}

func (s *Set) evict(wayID int) {
	s.Blocks[wayID] = Block{SetID: s.ID, WayID: wayID}
	s.numValid--
}

func (s *Set) fill(wayID int, tag uint64) Block {
	block := Block{
		Tag:     tag,
		SetID:   s.ID,
		WayID:   wayID,
		IsValid: true,
	}

	s.Blocks[wayID] = block
	s.numValid++
	s.Visit(wayID)

	return block
}

func (s *Set) queuePosition(wayID int) int {
	for i, w := range s.LRUQueue {
		if w == wayID {
			return i
		}
	}

	panic("way is not in the LRU queue")
}
