package model

// PoolPreconfig is the preconfigured state of one pool before a device
// expands it: the static configuration plus the sidelink bitmap, which
// addresses only the UL slots of the device's TDD pattern.
type PoolPreconfig struct {
	ID       uint16
	Config   ResourcePoolConfig
	SlBitmap SlotBitmap
}

// CarrierPreconfig groups the preconfigured pools of one carrier.
type CarrierPreconfig struct {
	ID    uint8
	Pools []PoolPreconfig
}

// SidelinkPreconfig is the out-of-coverage preconfiguration a device is
// provisioned with: the TDD pattern, the common scheduling mode, and the
// per-carrier pool configurations.
type SidelinkPreconfig struct {
	TddPattern string
	Mode       SchedulingMode
	Carriers   []CarrierPreconfig
}
