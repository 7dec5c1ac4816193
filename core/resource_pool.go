package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/sidelink-simulator/model"
)

var (
	ErrConfigNotFound      = errors.New("resource pool configuration not found")
	ErrEmptyPhyPool        = errors.New("empty physical pool")
	ErrSchedulingModeMixed = errors.New("scheduling mode conflict")
	ErrLcExists            = errors.New("logical channel already exists")
	ErrLcNotFound          = errors.New("logical channel not found")
)

// maxWindowPeriods caps how far an enumeration window may extend beyond the
// pool's repetition period: at most maxWindowPeriods full periods in the
// requested numerology's slot grid. Longer windows are silently truncated,
// never an error, so a pathological selection window cannot drive an
// unbounded scan.
const maxWindowPeriods = 8

// PhyPoolMap stores the expanded physical sidelink pools, keyed first by
// carrier (bandwidth part) id and then by pool id.
type PhyPoolMap map[uint8]map[uint16]model.SlotBitmap

// CommResourcePool holds the per-carrier pool configuration, the periodic
// availability bitmaps, and the single device-wide scheduling mode, and
// answers the opportunity queries built on top of them.
//
// The pool is populated once during device setup and treated as read-only
// afterwards; it holds no lock and must not be mutated concurrently with
// reads.
type CommResourcePool struct {
	carriers [model.MaxNumCarriers]model.CarrierConfig
	phyPools PhyPoolMap
	mode     model.SchedulingMode
}

// NewCommResourcePool returns an empty pool with no carriers configured and
// the scheduling mode unset.
func NewCommResourcePool() *CommResourcePool {
	return &CommResourcePool{phyPools: make(PhyPoolMap)}
}

// SetCarrierConfigList replaces the whole per-carrier configuration array.
func (p *CommResourcePool) SetCarrierConfigList(carriers [model.MaxNumCarriers]model.CarrierConfig) {
	p.carriers = carriers
}

// SetPhysicalPools replaces the carrier → pool → bitmap map as a whole.
func (p *CommResourcePool) SetPhysicalPools(pools PhyPoolMap) {
	if pools == nil {
		pools = make(PhyPoolMap)
	}
	p.phyPools = pools
}

// SetSchedulingMode records the scheduling mode shared by every pool held
// by this device.
func (p *CommResourcePool) SetSchedulingMode(mode model.SchedulingMode) {
	p.mode = mode
}

// SchedulingMode returns the device-wide scheduling mode.
func (p *CommResourcePool) SchedulingMode() model.SchedulingMode {
	return p.mode
}

// PhyPool returns the stored availability bitmap for (carrierID, poolID).
// Callers must not modify the returned bitmap.
func (p *CommResourcePool) PhyPool(carrierID uint8, poolID uint16) (model.SlotBitmap, error) {
	byPool, ok := p.phyPools[carrierID]
	if !ok {
		return model.SlotBitmap{}, fmt.Errorf("%w: no physical pools on carrier %d", ErrConfigNotFound, carrierID)
	}
	bitmap, ok := byPool[poolID]
	if !ok {
		return model.SlotBitmap{}, fmt.Errorf("%w: no physical pool %d on carrier %d", ErrConfigNotFound, poolID, carrierID)
	}
	return bitmap, nil
}

// PoolConfig returns the static configuration for (carrierID, poolID).
func (p *CommResourcePool) PoolConfig(carrierID uint8, poolID uint16) (model.ResourcePoolConfig, error) {
	if int(carrierID) >= len(p.carriers) {
		return model.ResourcePoolConfig{}, fmt.Errorf("%w: carrier %d out of range", ErrConfigNotFound, carrierID)
	}
	cfg, ok := p.carriers[carrierID].Pools[poolID]
	if !ok {
		return model.ResourcePoolConfig{}, fmt.Errorf("%w: no pool %d configured on carrier %d", ErrConfigNotFound, poolID, carrierID)
	}
	return cfg, nil
}

// SubchannelSize returns the sub-channel size in PRBs for (carrierID, poolID).
func (p *CommResourcePool) SubchannelSize(carrierID uint8, poolID uint16) (uint16, error) {
	cfg, err := p.PoolConfig(carrierID, poolID)
	if err != nil {
		return 0, err
	}
	return cfg.SubchannelSize, nil
}

// SensingWindowInSlots converts the pool's configured sensing-window
// duration to a whole number of slots of the given duration. The fractional
// remainder is dropped.
func (p *CommResourcePool) SensingWindowInSlots(carrierID uint8, poolID uint16, slotDuration time.Duration) (int, error) {
	cfg, err := p.PoolConfig(carrierID, poolID)
	if err != nil {
		return 0, err
	}
	if slotDuration <= 0 {
		return 0, fmt.Errorf("non-positive slot duration %v", slotDuration)
	}
	return int(cfg.SensingWindow / slotDuration), nil
}

// Opportunities enumerates the transmission opportunities in the half-open
// window [curSlot+t1, curSlot+t2), in the requested numerology's slot grid.
//
// Each reference-numerology bitmap position covers 2^numerology slots of
// the requested grid, so the bitmap lookup for absolute slot a is
// (a / 2^numerology) mod period. An available slot yields a SlotInfo whose
// control fields come verbatim from the pool configuration and whose data
// span follows the standard's allocation rule: data starts right after the
// control symbols, and the slot's last symbol carries no data, so
// dataLength = totalSymbols - controlLength - 1.
//
// The result is freshly computed on every call, ordered by ascending
// absolute slot. A window with no available slot returns an empty result,
// not an error; t2 <= t1 behaves the same way.
func (p *CommResourcePool) Opportunities(curSlot uint64, carrierID uint8, numerology uint16, poolID uint16, t1 uint8, t2 uint16) ([]model.SlotInfo, error) {
	bitmap, err := p.PhyPool(carrierID, poolID)
	if err != nil {
		return nil, err
	}
	cfg, err := p.PoolConfig(carrierID, poolID)
	if err != nil {
		return nil, err
	}
	if bitmap.Len() == 0 {
		return nil, fmt.Errorf("%w: pool %d on carrier %d", ErrEmptyPhyPool, poolID, carrierID)
	}

	scale := uint64(1) << numerology
	period := uint64(bitmap.Len())

	first := curSlot + uint64(t1)
	last := curSlot + uint64(t2)
	if last < first {
		last = first
	}
	if bound := scale * period * maxWindowPeriods; last-first > bound {
		last = first + bound
	}

	var opportunities []model.SlotInfo
	for abs := first; abs < last; abs++ {
		refPos := int((abs / scale) % period)
		if !bitmap.Bit(refPos) {
			continue
		}
		opportunities = append(opportunities, model.SlotInfo{
			NumPscchRbs:      cfg.NumPscchRbs,
			PscchSymStart:    cfg.PscchSymStart,
			PscchSymLength:   cfg.PscchSymLength,
			PsschSymStart:    cfg.PscchSymStart + cfg.PscchSymLength,
			PsschSymLength:   cfg.TotalSymbols - cfg.PscchSymLength - 1,
			SubchannelSize:   cfg.SubchannelSize,
			MaxNumPerReserve: cfg.MaxNumPerReserve,
			AbsSlotIndex:     abs,
			SlotOffset:       uint32(abs - curSlot),
		})
	}
	return opportunities, nil
}

// Equal reports member-wise equality between two pools: the carrier
// configuration array, the physical pool map, and the scheduling mode.
// Callers use it to detect duplicate or conflicting pool installations.
func (p *CommResourcePool) Equal(other *CommResourcePool) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	if p.mode != other.mode {
		return false
	}
	for i := range p.carriers {
		if !p.carriers[i].Equal(other.carriers[i]) {
			return false
		}
	}
	if len(p.phyPools) != len(other.phyPools) {
		return false
	}
	for carrierID, byPool := range p.phyPools {
		otherByPool, ok := other.phyPools[carrierID]
		if !ok || len(byPool) != len(otherByPool) {
			return false
		}
		for poolID, bitmap := range byPool {
			otherBitmap, ok := otherByPool[poolID]
			if !ok || !bitmap.Equal(otherBitmap) {
				return false
			}
		}
	}
	return true
}
