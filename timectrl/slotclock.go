package timectrl

import (
	"fmt"
	"time"
)

// refSlotDuration is the slot duration at numerology 0.
const refSlotDuration = time.Millisecond

// SlotDuration returns the slot duration at the given numerology:
// 1 ms divided by 2^numerology.
func SlotDuration(numerology uint16) time.Duration {
	return refSlotDuration / time.Duration(uint64(1)<<numerology)
}

// SlotClock converts simulation time into absolute slot indices on the slot
// grid of one numerology. Slot 0 starts at the epoch; the absolute index
// increases monotonically as simulation time advances.
type SlotClock struct {
	clock      SimClock
	epoch      time.Time
	numerology uint16
}

// NewSlotClock builds a slot clock over the given simulation clock.
func NewSlotClock(clock SimClock, epoch time.Time, numerology uint16) (*SlotClock, error) {
	if clock == nil {
		return nil, fmt.Errorf("nil simulation clock")
	}
	return &SlotClock{clock: clock, epoch: epoch, numerology: numerology}, nil
}

// Numerology returns the numerology of this clock's slot grid.
func (s *SlotClock) Numerology() uint16 { return s.numerology }

// SlotDuration returns the duration of one slot on this clock's grid.
func (s *SlotClock) SlotDuration() time.Duration { return SlotDuration(s.numerology) }

// SlotAt maps an instant to the absolute slot index containing it.
// Instants before the epoch map to slot 0.
func (s *SlotClock) SlotAt(t time.Time) uint64 {
	elapsed := t.Sub(s.epoch)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / s.SlotDuration())
}

// CurrentSlot returns the absolute slot index at the current simulation time.
func (s *SlotClock) CurrentSlot() uint64 {
	return s.SlotAt(s.clock.Now())
}
