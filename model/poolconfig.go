package model

import (
	"fmt"
	"maps"
	"time"
)

// MaxNumCarriers bounds the per-device carrier configuration array. Carrier
// ids at or above this bound are a caller contract violation.
const MaxNumCarriers = 8

// SchedulingMode selects how sidelink grants are produced for the pools of
// one device. All pools held by a device share a single mode; mixing modes
// is a fatal configuration error.
type SchedulingMode int

const (
	// ModeUnset means no scheduling mode has been configured yet.
	ModeUnset SchedulingMode = iota
	// ModeNetworkScheduled means the network assigns sidelink resources.
	ModeNetworkScheduled
	// ModeDeviceAutonomous means the device selects resources on its own
	// from the configured pools.
	ModeDeviceAutonomous
)

func (m SchedulingMode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeNetworkScheduled:
		return "network-scheduled"
	case ModeDeviceAutonomous:
		return "device-autonomous"
	default:
		return fmt.Sprintf("SchedulingMode(%d)", int(m))
	}
}

// ParseSchedulingMode maps the textual form used in preconfiguration files
// back to a SchedulingMode.
func ParseSchedulingMode(s string) (SchedulingMode, error) {
	switch s {
	case "", "unset":
		return ModeUnset, nil
	case "network-scheduled":
		return ModeNetworkScheduled, nil
	case "device-autonomous":
		return ModeDeviceAutonomous, nil
	default:
		return ModeUnset, fmt.Errorf("unknown scheduling mode %q", s)
	}
}

// ResourcePoolConfig is the static per-pool configuration: sub-channel
// sizing, control-channel layout, and data-channel layout. Symbol indices
// are within a slot; TotalSymbols is the number of symbols of the slot
// available to sidelink (usually 14).
//
// The struct is comparable; pool equality is plain ==.
type ResourcePoolConfig struct {
	NumPscchRbs      uint16 // PRBs used by the control channel, at most SubchannelSize
	PscchSymStart    uint16 // first control symbol
	PscchSymLength   uint16 // number of control symbols
	PsschSymStart    uint16 // first data symbol
	PsschSymLength   uint16 // number of data symbols
	SubchannelSize   uint16 // sub-channel size in PRBs
	MaxNumPerReserve uint16 // max resources one control message may reserve
	TotalSymbols     uint16 // slot symbols available to sidelink

	// SensingWindow is the configured duration of history a device must
	// observe before selecting resources from this pool.
	SensingWindow time.Duration
}

// CarrierConfig holds the pools configured on one carrier, keyed by pool id.
// An entry with a nil map means the carrier is not configured.
type CarrierConfig struct {
	Pools map[uint16]ResourcePoolConfig
}

// Configured reports whether the carrier has any pool configuration.
func (c CarrierConfig) Configured() bool { return len(c.Pools) > 0 }

// Equal reports member-wise equality of two carrier configurations.
func (c CarrierConfig) Equal(other CarrierConfig) bool {
	return maps.Equal(c.Pools, other.Pools)
}
