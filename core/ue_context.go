package core

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/sidelink-simulator/internal/logging"
	"github.com/signalsfoundry/sidelink-simulator/model"
)

// lcKey identifies one sidelink logical channel.
type lcKey struct {
	lcID    uint8
	srcL2ID uint32
	dstL2ID uint32
}

// UeSidelinkContext manages the sidelink state of one device: the enabled
// flag, the preconfiguration, the source layer-2 id, the TDD pattern, and
// the installed TX/RX pools. It validates the single-scheduling-mode
// invariant eagerly, whenever a pool is installed, and forwards installs to
// the MAC and PHY control surfaces when those are attached.
//
// Like the pool itself, the context follows the setup-then-read lifecycle
// of the simulation and holds no internal lock.
type UeSidelinkContext struct {
	log logging.Logger

	enabled    bool
	srcL2ID    uint32
	preconfig  model.SidelinkPreconfig
	tddPattern []model.TddSlotKind

	txPool *CommResourcePool
	rxPool *CommResourcePool

	destinations    map[uint32]uint16
	logicalChannels map[lcKey]model.LogicalChannelInfo

	mac MacPoolControl
	phy PhyPoolControl
}

// NewUeSidelinkContext constructs an empty context. A nil logger is
// replaced with a noop logger.
func NewUeSidelinkContext(log logging.Logger) *UeSidelinkContext {
	if log == nil {
		log = logging.Noop()
	}
	return &UeSidelinkContext{
		log:             log,
		destinations:    make(map[uint32]uint16),
		logicalChannels: make(map[lcKey]model.LogicalChannelInfo),
	}
}

// SetEnabled toggles sidelink operation for this device.
func (u *UeSidelinkContext) SetEnabled(enabled bool) { u.enabled = enabled }

// Enabled reports whether sidelink operation is enabled.
func (u *UeSidelinkContext) Enabled() bool { return u.enabled }

// SetSourceL2ID records the device's own layer-2 id.
func (u *UeSidelinkContext) SetSourceL2ID(id uint32) { u.srcL2ID = id }

// SourceL2ID returns the device's own layer-2 id.
func (u *UeSidelinkContext) SourceL2ID() uint32 { return u.srcL2ID }

// AttachMac wires the MAC control surface pool installs are forwarded to.
func (u *UeSidelinkContext) AttachMac(mac MacPoolControl) { u.mac = mac }

// AttachPhy wires the PHY control surface pool installs are forwarded to.
func (u *UeSidelinkContext) AttachPhy(phy PhyPoolControl) { u.phy = phy }

// SetTddPattern parses and stores the TDD pattern the device expands
// sidelink bitmaps over, e.g. "DL|DL|UL|UL|".
func (u *UeSidelinkContext) SetTddPattern(pattern string) error {
	parsed, err := model.ParseTddPattern(pattern)
	if err != nil {
		return err
	}
	u.tddPattern = parsed
	return nil
}

// TddPattern returns the parsed TDD pattern, nil if none is set.
func (u *UeSidelinkContext) TddPattern() []model.TddSlotKind { return u.tddPattern }

// PhysicalSlPool expands a sidelink bitmap, which addresses only the UL
// slots of the TDD pattern, into a physical pool bitmap covering every slot
// of the repeated pattern. Non-UL slots are forced to 0. The bitmap length
// must be a positive multiple of the pattern's UL-slot count.
func (u *UeSidelinkContext) PhysicalSlPool(slBitmap model.SlotBitmap) (model.SlotBitmap, error) {
	if len(u.tddPattern) == 0 {
		return model.SlotBitmap{}, fmt.Errorf("no tdd pattern set")
	}

	ulPerPattern := 0
	for _, kind := range u.tddPattern {
		if kind == model.TddUL {
			ulPerPattern++
		}
	}
	if ulPerPattern == 0 {
		return model.SlotBitmap{}, fmt.Errorf("tdd pattern has no UL slot")
	}
	if slBitmap.Len() == 0 || slBitmap.Len()%ulPerPattern != 0 {
		return model.SlotBitmap{}, fmt.Errorf("sidelink bitmap length %d is not a positive multiple of the pattern's %d UL slots",
			slBitmap.Len(), ulPerPattern)
	}

	repeats := slBitmap.Len() / ulPerPattern
	phy := model.NewSlotBitmap(repeats * len(u.tddPattern))

	next := 0 // next sidelink bitmap bit to consume
	for slot := 0; slot < phy.Len(); slot++ {
		if u.tddPattern[slot%len(u.tddPattern)] != model.TddUL {
			continue
		}
		phy.SetBit(slot, slBitmap.Bit(next))
		next++
	}
	return phy, nil
}

// SetPreconfiguration applies the out-of-coverage preconfiguration: it
// parses the TDD pattern, expands every pool's sidelink bitmap into a
// physical pool, builds a CommResourcePool from the result, and installs it
// as both TX and RX pool.
func (u *UeSidelinkContext) SetPreconfiguration(ctx context.Context, pre model.SidelinkPreconfig) error {
	if err := u.SetTddPattern(pre.TddPattern); err != nil {
		return err
	}

	var carriers [model.MaxNumCarriers]model.CarrierConfig
	phyPools := make(PhyPoolMap)
	for _, carrier := range pre.Carriers {
		if int(carrier.ID) >= model.MaxNumCarriers {
			return fmt.Errorf("carrier id %d exceeds the maximum of %d carriers", carrier.ID, model.MaxNumCarriers)
		}
		if carriers[carrier.ID].Configured() {
			return fmt.Errorf("carrier %d configured twice", carrier.ID)
		}
		pools := make(map[uint16]model.ResourcePoolConfig, len(carrier.Pools))
		byPool := make(map[uint16]model.SlotBitmap, len(carrier.Pools))
		for _, pool := range carrier.Pools {
			if _, dup := pools[pool.ID]; dup {
				return fmt.Errorf("pool %d configured twice on carrier %d", pool.ID, carrier.ID)
			}
			phy, err := u.PhysicalSlPool(pool.SlBitmap)
			if err != nil {
				return fmt.Errorf("expand pool %d on carrier %d: %w", pool.ID, carrier.ID, err)
			}
			pools[pool.ID] = pool.Config
			byPool[pool.ID] = phy
		}
		carriers[carrier.ID] = model.CarrierConfig{Pools: pools}
		phyPools[carrier.ID] = byPool
	}

	pool := NewCommResourcePool()
	pool.SetCarrierConfigList(carriers)
	pool.SetPhysicalPools(phyPools)
	pool.SetSchedulingMode(pre.Mode)

	if err := u.InstallTxPool(ctx, pool); err != nil {
		return err
	}
	if err := u.InstallRxPool(ctx, pool); err != nil {
		return err
	}

	u.preconfig = pre
	return nil
}

// Preconfiguration returns the stored preconfiguration.
func (u *UeSidelinkContext) Preconfiguration() model.SidelinkPreconfig { return u.preconfig }

// InstallTxPool installs the pool the device transmits from. Reinstalling
// an equal pool is a no-op; a pool whose scheduling mode conflicts with the
// already-installed pools fails with ErrSchedulingModeMixed.
func (u *UeSidelinkContext) InstallTxPool(ctx context.Context, pool *CommResourcePool) error {
	if err := u.checkPool(pool); err != nil {
		return err
	}
	if u.txPool != nil && u.txPool.Equal(pool) {
		u.log.Debug(ctx, "tx pool already installed", logging.Uint32("src_l2_id", u.srcL2ID))
		return nil
	}
	u.txPool = pool

	if u.mac != nil {
		if err := u.mac.AddTxPool(pool); err != nil {
			return fmt.Errorf("forward tx pool to mac: %w", err)
		}
	}
	if u.phy != nil {
		for dst := range u.destinations {
			if err := u.phy.AddTxPool(dst, pool); err != nil {
				return fmt.Errorf("forward tx pool to phy for destination %d: %w", dst, err)
			}
		}
	}
	u.log.Info(ctx, "tx pool installed",
		logging.String("mode", pool.SchedulingMode().String()),
		logging.Uint32("src_l2_id", u.srcL2ID),
	)
	return nil
}

// InstallRxPool installs the pool the device monitors for reception, under
// the same mode and duplicate rules as InstallTxPool.
func (u *UeSidelinkContext) InstallRxPool(ctx context.Context, pool *CommResourcePool) error {
	if err := u.checkPool(pool); err != nil {
		return err
	}
	if u.rxPool != nil && u.rxPool.Equal(pool) {
		u.log.Debug(ctx, "rx pool already installed", logging.Uint32("src_l2_id", u.srcL2ID))
		return nil
	}
	u.rxPool = pool

	if u.mac != nil {
		if err := u.mac.AddRxPool(pool); err != nil {
			return fmt.Errorf("forward rx pool to mac: %w", err)
		}
	}
	if u.phy != nil {
		for dst := range u.destinations {
			if err := u.phy.AddRxPool(dst, pool); err != nil {
				return fmt.Errorf("forward rx pool to phy for destination %d: %w", dst, err)
			}
		}
	}
	return nil
}

// TxPool returns the installed transmission pool, nil if none.
func (u *UeSidelinkContext) TxPool() *CommResourcePool { return u.txPool }

// RxPool returns the installed reception pool, nil if none.
func (u *UeSidelinkContext) RxPool() *CommResourcePool { return u.rxPool }

// checkPool enforces the single-scheduling-mode invariant against every
// pool already installed on this device.
func (u *UeSidelinkContext) checkPool(pool *CommResourcePool) error {
	if pool == nil {
		return fmt.Errorf("nil resource pool")
	}
	if pool.SchedulingMode() == model.ModeUnset {
		return fmt.Errorf("%w: pool has no scheduling mode", ErrSchedulingModeMixed)
	}
	for _, existing := range []*CommResourcePool{u.txPool, u.rxPool} {
		if existing != nil && existing.SchedulingMode() != pool.SchedulingMode() {
			return fmt.Errorf("%w: device runs %s pools, refusing %s pool",
				ErrSchedulingModeMixed, existing.SchedulingMode(), pool.SchedulingMode())
		}
	}
	return nil
}

// AddDestination records that traffic towards dstL2ID uses poolID, and
// forwards the destination to the MAC and PHY surfaces.
func (u *UeSidelinkContext) AddDestination(ctx context.Context, dstL2ID uint32, poolID uint16) error {
	u.destinations[dstL2ID] = poolID

	if u.mac != nil {
		if err := u.mac.AddDestination(dstL2ID, poolID); err != nil {
			return fmt.Errorf("forward destination %d to mac: %w", dstL2ID, err)
		}
	}
	if u.phy != nil {
		if err := u.phy.AddRemote(dstL2ID); err != nil {
			return fmt.Errorf("forward destination %d to phy: %w", dstL2ID, err)
		}
	}
	u.log.Debug(ctx, "destination added",
		logging.Uint32("dst_l2_id", dstL2ID),
		logging.Int("pool_id", int(poolID)),
	)
	return nil
}

// PoolForDestination returns the pool id serving dstL2ID.
func (u *UeSidelinkContext) PoolForDestination(dstL2ID uint32) (uint16, bool) {
	poolID, ok := u.destinations[dstL2ID]
	return poolID, ok
}

// AddLogicalChannel registers a sidelink logical channel and forwards it to
// the MAC surface. Registering the same (lcID, src, dst) twice fails with
// ErrLcExists.
func (u *UeSidelinkContext) AddLogicalChannel(ctx context.Context, info model.LogicalChannelInfo) error {
	key := lcKey{lcID: info.LcID, srcL2ID: info.SrcL2ID, dstL2ID: info.DstL2ID}
	if _, exists := u.logicalChannels[key]; exists {
		return fmt.Errorf("%w: lc %d %d->%d", ErrLcExists, info.LcID, info.SrcL2ID, info.DstL2ID)
	}
	u.logicalChannels[key] = info

	if u.mac != nil {
		if err := u.mac.AddLogicalChannel(info); err != nil {
			return fmt.Errorf("forward lc %d to mac: %w", info.LcID, err)
		}
	}
	return nil
}

// RemoveLogicalChannel drops the channel identified by (lcID, src, dst).
func (u *UeSidelinkContext) RemoveLogicalChannel(ctx context.Context, lcID uint8, srcL2ID, dstL2ID uint32) error {
	key := lcKey{lcID: lcID, srcL2ID: srcL2ID, dstL2ID: dstL2ID}
	if _, exists := u.logicalChannels[key]; !exists {
		return fmt.Errorf("%w: lc %d %d->%d", ErrLcNotFound, lcID, srcL2ID, dstL2ID)
	}
	delete(u.logicalChannels, key)

	if u.mac != nil {
		if err := u.mac.RemoveLogicalChannel(lcID, srcL2ID, dstL2ID); err != nil {
			return fmt.Errorf("forward lc %d removal to mac: %w", lcID, err)
		}
	}
	return nil
}

// ResetLogicalChannels drops every registered channel.
func (u *UeSidelinkContext) ResetLogicalChannels() {
	clear(u.logicalChannels)
	if u.mac != nil {
		u.mac.ResetLogicalChannels()
	}
}

// LogicalChannels returns the registered channels in unspecified order.
func (u *UeSidelinkContext) LogicalChannels() []model.LogicalChannelInfo {
	out := make([]model.LogicalChannelInfo, 0, len(u.logicalChannels))
	for _, info := range u.logicalChannels {
		out = append(out, info)
	}
	return out
}
