package model

import (
	"fmt"
	"math/bits"
	"strings"
)

// SlotBitmap is a compact one-bit-per-slot availability map covering one
// repetition period at the reference numerology. Bit value 1 means the slot
// is reserved for sidelink use.
//
// The zero value is an empty bitmap.
type SlotBitmap struct {
	words []uint64
	n     int
}

// NewSlotBitmap returns an all-zero bitmap of n slots.
func NewSlotBitmap(n int) SlotBitmap {
	if n <= 0 {
		return SlotBitmap{}
	}
	return SlotBitmap{words: make([]uint64, (n+63)/64), n: n}
}

// SlotBitmapFromBits builds a bitmap from a slice of 0/1 flags, one entry
// per slot.
func SlotBitmapFromBits(flags []uint8) SlotBitmap {
	b := NewSlotBitmap(len(flags))
	for i, f := range flags {
		if f != 0 {
			b.words[i/64] |= 1 << (i % 64)
		}
	}
	return b
}

// ParseSlotBitmap parses a bitmap from its textual form, e.g. "1011".
// Only '0' and '1' are accepted.
func ParseSlotBitmap(s string) (SlotBitmap, error) {
	b := NewSlotBitmap(len(s))
	for i, c := range s {
		switch c {
		case '1':
			b.words[i/64] |= 1 << (i % 64)
		case '0':
		default:
			return SlotBitmap{}, fmt.Errorf("slot bitmap %q: invalid character %q at position %d", s, c, i)
		}
	}
	return b, nil
}

// Len returns the number of slots in one repetition period.
func (b SlotBitmap) Len() int { return b.n }

// Bit reports whether slot i is marked for sidelink. i must be in [0, Len).
func (b SlotBitmap) Bit(i int) bool {
	return b.words[i/64]&(1<<(i%64)) != 0
}

// SetBit sets slot i to v. i must be in [0, Len).
func (b SlotBitmap) SetBit(i int, v bool) {
	if v {
		b.words[i/64] |= 1 << (i % 64)
	} else {
		b.words[i/64] &^= 1 << (i % 64)
	}
}

// OnesCount returns the number of slots marked for sidelink.
func (b SlotBitmap) OnesCount() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// Equal reports whether two bitmaps have the same length and bits.
func (b SlotBitmap) Equal(other SlotBitmap) bool {
	if b.n != other.n {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// String renders the bitmap in the same form ParseSlotBitmap accepts.
func (b SlotBitmap) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.Bit(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
