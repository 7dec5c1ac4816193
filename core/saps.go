package core

import "github.com/signalsfoundry/sidelink-simulator/model"

// MacPoolControl is the MAC-facing control surface a device context
// forwards pool installs and logical-channel bookkeeping through. Concrete
// MAC layers implement it; tests use a recording fake.
type MacPoolControl interface {
	// AddTxPool installs the pool the MAC selects transmission resources
	// from.
	AddTxPool(pool *CommResourcePool) error
	// AddRxPool installs the pool the MAC monitors for reception.
	AddRxPool(pool *CommResourcePool) error
	// AddLogicalChannel registers a sidelink logical channel.
	AddLogicalChannel(info model.LogicalChannelInfo) error
	// RemoveLogicalChannel drops the channel identified by
	// (lcID, srcL2ID, dstL2ID).
	RemoveLogicalChannel(lcID uint8, srcL2ID, dstL2ID uint32) error
	// ResetLogicalChannels drops every registered channel.
	ResetLogicalChannels()
	// AddDestination maps a destination layer-2 id to the pool serving it.
	AddDestination(dstL2ID uint32, poolID uint16) error
}

// PhyPoolControl is the PHY-facing counterpart: the physical layer learns
// about pools and the remote peers it must monitor.
type PhyPoolControl interface {
	AddTxPool(remoteL2ID uint32, pool *CommResourcePool) error
	AddRxPool(remoteL2ID uint32, pool *CommResourcePool) error
	AddRemote(remoteL2ID uint32) error
}
