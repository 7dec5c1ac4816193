package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/sidelink-simulator/model"
	"github.com/stretchr/testify/require"
)

const samplePreconfig = `{
  "tdd_pattern": "DL|DL|UL|UL|",
  "scheduling_mode": "device-autonomous",
  "carriers": [
    {
      "id": 0,
      "pools": [
        {
          "id": 0,
          "subchannel_size": 10,
          "num_pscch_rbs": 10,
          "pscch_sym_start": 1,
          "pscch_sym_length": 2,
          "max_num_per_reserve": 3,
          "sensing_window_ms": 100,
          "sl_bitmap": "1011"
        }
      ]
    }
  ]
}`

func TestLoadSidelinkPreconfig(t *testing.T) {
	pre, err := LoadSidelinkPreconfig(strings.NewReader(samplePreconfig))
	require.NoError(t, err)

	require.Equal(t, "DL|DL|UL|UL|", pre.TddPattern)
	require.Equal(t, model.ModeDeviceAutonomous, pre.Mode)
	require.Len(t, pre.Carriers, 1)
	require.Len(t, pre.Carriers[0].Pools, 1)

	pool := pre.Carriers[0].Pools[0]
	require.Equal(t, uint16(0), pool.ID)
	require.Equal(t, "1011", pool.SlBitmap.String())

	cfg := pool.Config
	require.Equal(t, uint16(10), cfg.SubchannelSize)
	require.Equal(t, uint16(14), cfg.TotalSymbols, "total symbols defaults to 14")
	require.Equal(t, uint16(3), cfg.PsschSymStart)
	require.Equal(t, uint16(11), cfg.PsschSymLength)
	require.Equal(t, 100*time.Millisecond, cfg.SensingWindow)
}

func TestLoadSidelinkPreconfigEndToEnd(t *testing.T) {
	pre, err := LoadSidelinkPreconfig(strings.NewReader(samplePreconfig))
	require.NoError(t, err)

	device := NewUeSidelinkContext(nil)
	require.NoError(t, device.SetPreconfiguration(context.Background(), *pre))

	opportunities, err := device.TxPool().Opportunities(100, 0, 0, 0, 1, 9)
	require.NoError(t, err)
	require.NotEmpty(t, opportunities)
}

func TestLoadSidelinkPreconfigRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "bad mode", in: `{"tdd_pattern": "DL|UL|", "scheduling_mode": "round-robin"}`},
		{name: "bad bitmap", in: `{"tdd_pattern": "DL|UL|", "scheduling_mode": "device-autonomous",
			"carriers": [{"id": 0, "pools": [{"id": 0, "sl_bitmap": "10x1"}]}]}`},
		{name: "carrier out of range", in: `{"tdd_pattern": "DL|UL|", "scheduling_mode": "device-autonomous",
			"carriers": [{"id": 200, "pools": []}]}`},
		{name: "unknown field", in: `{"tdd_pattern": "DL|UL|", "scheduling_mode": "device-autonomous", "surprise": 1}`},
		{name: "not json", in: `tdd_pattern: DL|UL|`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSidelinkPreconfig(strings.NewReader(tc.in))
			require.Error(t, err)
		})
	}
}
