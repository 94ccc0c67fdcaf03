// Package tagging keeps track of which memory blocks live in each way of a
// cache set and in what order they were last used.
package tagging

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	Tag     uint64
	WayID   int
	SetID   int
	IsValid bool
}
