package cache

// Outcome is the result of a single cache access.
type Outcome int

// Possible outcomes of an access.
const (
	Hit Outcome = iota
	Miss
	MissEvict
)

// IsHit tells if the data was already in the cache.
func (o Outcome) IsHit() bool {
	return o == Hit
}

// IsMiss tells if the data had to be brought into the cache.
func (o Outcome) IsMiss() bool {
	return o == Miss || o == MissEvict
}

// IsEviction tells if another block was removed to make room.
func (o Outcome) IsEviction() bool {
	return o == MissEvict
}

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissEvict:
		return "miss eviction"
	default:
		return "unknown"
	}
}
