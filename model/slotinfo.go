package model

import "fmt"

// SlotInfo describes one concrete transmission opportunity: the absolute
// slot a device may transmit in and the control/data layout that slot
// offers. It is a computed snapshot; it carries no reference back to the
// pool that produced it.
type SlotInfo struct {
	// Control channel (PSCCH) layout, copied from the pool configuration.
	NumPscchRbs    uint16
	PscchSymStart  uint16
	PscchSymLength uint16

	// Data channel (PSSCH) layout, derived: data starts right after the
	// control symbols and the slot's last symbol is never usable for data.
	PsschSymStart  uint16
	PsschSymLength uint16

	SubchannelSize   uint16
	MaxNumPerReserve uint16

	// AbsSlotIndex is the absolute slot index in the requested
	// numerology's own slot grid.
	AbsSlotIndex uint64
	// SlotOffset is the positive offset from the slot at which the
	// enumeration was requested.
	SlotOffset uint32
}

func (s SlotInfo) String() string {
	return fmt.Sprintf("slot %d (+%d): pscch [%d,+%d) pssch [%d,+%d) subch %d rbs",
		s.AbsSlotIndex, s.SlotOffset,
		s.PscchSymStart, s.PscchSymLength,
		s.PsschSymStart, s.PsschSymLength,
		s.SubchannelSize)
}
