// Package addressing splits memory addresses into the fields a
// set-associative cache indexes by.
package addressing

// A Decoder maps an address to the set it belongs to and the tag that
// identifies it within that set.
//
//	| tag | set index (SetBits) | block offset (OffsetBits) |
type Decoder struct {
	SetBits    int
	OffsetBits int
}

// NewDecoder creates a decoder with the given field widths.
func NewDecoder(setBits, offsetBits int) Decoder {
	return Decoder{
		SetBits:    setBits,
		OffsetBits: offsetBits,
	}
}

// Decode returns the tag and the set index of the address. The tag keeps every
// bit above the set index; it is never truncated to a fixed width.
func (d Decoder) Decode(addr uint64) (tag uint64, setIndex uint64) {
	return d.Tag(addr), d.SetIndex(addr)
}

// SetIndex returns the set that the address maps to.
func (d Decoder) SetIndex(addr uint64) uint64 {
	return (addr >> uint(d.OffsetBits)) & d.setMask()
}

// Tag returns the high-order bits of the address.
func (d Decoder) Tag(addr uint64) uint64 {
	return addr >> uint(d.SetBits+d.OffsetBits)
}

// NumSets returns the number of sets addressable with SetBits.
func (d Decoder) NumSets() uint64 {
	return 1 << uint(d.SetBits)
}

// BlockSize returns the number of bytes covered by one block.
func (d Decoder) BlockSize() uint64 {
	return 1 << uint(d.OffsetBits)
}

func (d Decoder) setMask() uint64 {
	return (1 << uint(d.SetBits)) - 1
}
