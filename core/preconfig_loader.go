package core

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/sidelink-simulator/model"
)

// internal JSON shapes, unexported.
type preconfigJSON struct {
	TddPattern     string        `json:"tdd_pattern"`
	SchedulingMode string        `json:"scheduling_mode"` // "network-scheduled" | "device-autonomous"
	Carriers       []carrierJSON `json:"carriers"`
}

type carrierJSON struct {
	ID    uint8      `json:"id"`
	Pools []poolJSON `json:"pools"`
}

type poolJSON struct {
	ID               uint16 `json:"id"`
	SubchannelSize   uint16 `json:"subchannel_size"`
	NumPscchRbs      uint16 `json:"num_pscch_rbs"`
	PscchSymStart    uint16 `json:"pscch_sym_start"`
	PscchSymLength   uint16 `json:"pscch_sym_length"`
	TotalSymbols     uint16 `json:"total_symbols"` // defaults to 14
	MaxNumPerReserve uint16 `json:"max_num_per_reserve"`
	SensingWindowMs  int    `json:"sensing_window_ms"`
	SlBitmap         string `json:"sl_bitmap"` // e.g. "10110110"
}

// LoadSidelinkPreconfig reads a JSON preconfiguration from r and returns
// the parsed SidelinkPreconfig. It validates bitmap syntax, mode names, and
// carrier bounds; structural consistency against the TDD pattern is checked
// later when a device applies the preconfiguration.
func LoadSidelinkPreconfig(r io.Reader) (*model.SidelinkPreconfig, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reader")
	}

	var raw preconfigJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode preconfiguration: %w", err)
	}

	mode, err := model.ParseSchedulingMode(raw.SchedulingMode)
	if err != nil {
		return nil, err
	}

	pre := &model.SidelinkPreconfig{
		TddPattern: raw.TddPattern,
		Mode:       mode,
	}
	for _, carrier := range raw.Carriers {
		if int(carrier.ID) >= model.MaxNumCarriers {
			return nil, fmt.Errorf("carrier id %d exceeds the maximum of %d carriers", carrier.ID, model.MaxNumCarriers)
		}
		cp := model.CarrierPreconfig{ID: carrier.ID}
		for _, pool := range carrier.Pools {
			bitmap, err := model.ParseSlotBitmap(pool.SlBitmap)
			if err != nil {
				return nil, fmt.Errorf("pool %d on carrier %d: %w", pool.ID, carrier.ID, err)
			}
			totalSymbols := pool.TotalSymbols
			if totalSymbols == 0 {
				totalSymbols = 14
			}
			cp.Pools = append(cp.Pools, model.PoolPreconfig{
				ID: pool.ID,
				Config: model.ResourcePoolConfig{
					NumPscchRbs:      pool.NumPscchRbs,
					PscchSymStart:    pool.PscchSymStart,
					PscchSymLength:   pool.PscchSymLength,
					PsschSymStart:    pool.PscchSymStart + pool.PscchSymLength,
					PsschSymLength:   totalSymbols - pool.PscchSymLength - 1,
					SubchannelSize:   pool.SubchannelSize,
					MaxNumPerReserve: pool.MaxNumPerReserve,
					TotalSymbols:     totalSymbols,
					SensingWindow:    time.Duration(pool.SensingWindowMs) * time.Millisecond,
				},
				SlBitmap: bitmap,
			})
		}
		pre.Carriers = append(pre.Carriers, cp)
	}

	return pre, nil
}
