// Package trace reads and writes memory access traces in the format produced
// by valgrind's lackey tool.
package trace

import (
	"fmt"
	"strings"
)

// Kind is the type of a memory access.
type Kind int

// Kinds of memory accesses found in a trace.
const (
	Instruction Kind = iota
	Load
	Store
	Modify
)

// ParseKind converts a trace operation letter into a Kind.
func ParseKind(op string) (Kind, error) {
	switch strings.ToUpper(op) {
	case "I":
		return Instruction, nil
	case "L":
		return Load, nil
	case "S":
		return Store, nil
	case "M":
		return Modify, nil
	default:
		return 0, fmt.Errorf("%w: unknown operation %q", ErrMalformedRecord, op)
	}
}

func (k Kind) String() string {
	switch k {
	case Instruction:
		return "I"
	case Load:
		return "L"
	case Store:
		return "S"
	case Modify:
		return "M"
	default:
		return "?"
	}
}

// NumAccesses returns how many data accesses a record of this kind makes. A
// modify is a load followed by a store to the same address. Instruction
// fetches do not touch the data cache.
func (k Kind) NumAccesses() int {
	switch k {
	case Load, Store:
		return 1
	case Modify:
		return 2
	default:
		return 0
	}
}

// A Record is one line of a trace.
type Record struct {
	Kind    Kind
	Address uint64
	// Size is the number of bytes accessed. It is carried through but the
	// simulator treats every access as touching a single block.
	Size uint64
}

func (r Record) String() string {
	return fmt.Sprintf("%s %x,%d", r.Kind, r.Address, r.Size)
}
