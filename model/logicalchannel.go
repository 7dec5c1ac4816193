package model

// LogicalChannelInfo identifies one sidelink logical channel between a
// source and a destination layer-2 id.
type LogicalChannelInfo struct {
	LcID     uint8
	SrcL2ID  uint32
	DstL2ID  uint32
	Priority uint8
}
