package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/signalsfoundry/sidelink-simulator/core"
	"github.com/signalsfoundry/sidelink-simulator/internal/logging"
	"github.com/signalsfoundry/sidelink-simulator/internal/observability"
	"github.com/signalsfoundry/sidelink-simulator/model"
	"github.com/signalsfoundry/sidelink-simulator/timectrl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/signalsfoundry/sidelink-simulator/cmd/simulator"

// slotAgent is the device's MAC/PHY stand-in: it records installed pools
// and, on every slot, enumerates the transmission opportunities the TX pool
// offers.
type slotAgent struct {
	log       logging.Logger
	collector *observability.PoolCollector

	txPool *core.CommResourcePool
	rxPool *core.CommResourcePool

	destinations map[uint32]uint16
}

func newSlotAgent(log logging.Logger, collector *observability.PoolCollector) *slotAgent {
	return &slotAgent{
		log:          log,
		collector:    collector,
		destinations: make(map[uint32]uint16),
	}
}

// MAC-facing surface.

func (a *slotAgent) AddTxPool(pool *core.CommResourcePool) error {
	a.txPool = pool
	return nil
}

func (a *slotAgent) AddRxPool(pool *core.CommResourcePool) error {
	a.rxPool = pool
	return nil
}

func (a *slotAgent) AddLogicalChannel(info model.LogicalChannelInfo) error {
	a.log.Info(context.Background(), "logical channel added",
		logging.Int("lc_id", int(info.LcID)),
		logging.Uint32("dst_l2_id", info.DstL2ID),
	)
	return nil
}

func (a *slotAgent) RemoveLogicalChannel(lcID uint8, srcL2ID, dstL2ID uint32) error { return nil }
func (a *slotAgent) ResetLogicalChannels()                                          {}

func (a *slotAgent) AddDestination(dstL2ID uint32, poolID uint16) error {
	a.destinations[dstL2ID] = poolID
	return nil
}

func main() {
	duration := flag.Duration("duration", 2*time.Second, "total simulation duration")
	numerology := flag.Uint("numerology", 1, "sidelink numerology (slot duration = 1ms / 2^numerology)")
	t1 := flag.Uint("t1", 2, "processing delay in slots")
	t2 := flag.Uint("t2", 33, "selection window length in slots")
	carrierID := flag.Uint("carrier", 0, "carrier (bandwidth part) id to enumerate on")
	poolID := flag.Uint("pool", 0, "pool id to enumerate on")
	srcL2ID := flag.Uint("src-l2-id", 1, "source layer-2 id of the simulated device")
	dstL2ID := flag.Uint("dst-l2-id", 255, "destination layer-2 id")
	preconfigPath := flag.String("preconfig", "", "path to a JSON sidelink preconfiguration (builtin default when empty)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve /metrics on (disabled when empty)")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")

	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewPoolCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics init failed", logging.Err(err))
		os.Exit(1)
	}
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Error(ctx, "metrics server failed", logging.Err(err))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", *metricsAddr))
	}

	pre, err := loadPreconfig(*preconfigPath)
	if err != nil {
		log.Error(ctx, "load preconfiguration failed", logging.Err(err))
		os.Exit(1)
	}

	deviceLog := logging.WithDevice(log, uint32(*srcL2ID))
	device := core.NewUeSidelinkContext(deviceLog)
	device.SetEnabled(true)
	device.SetSourceL2ID(uint32(*srcL2ID))

	agent := newSlotAgent(deviceLog, collector)
	device.AttachMac(agent)

	if err := device.SetPreconfiguration(ctx, *pre); err != nil {
		log.Error(ctx, "apply preconfiguration failed", logging.Err(err))
		os.Exit(1)
	}
	if err := device.AddDestination(ctx, uint32(*dstL2ID), uint16(*poolID)); err != nil {
		log.Error(ctx, "add destination failed", logging.Err(err))
		os.Exit(1)
	}
	if err := device.AddLogicalChannel(ctx, model.LogicalChannelInfo{
		LcID:     4,
		SrcL2ID:  uint32(*srcL2ID),
		DstL2ID:  uint32(*dstL2ID),
		Priority: 1,
	}); err != nil {
		log.Error(ctx, "add logical channel failed", logging.Err(err))
		os.Exit(1)
	}

	pools := 0
	for _, carrier := range pre.Carriers {
		pools += len(carrier.Pools)
	}
	collector.SetPoolCounts(len(pre.Carriers), pools)

	slotDuration := timectrl.SlotDuration(uint16(*numerology))
	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := timectrl.NewTimeController(start, slotDuration, mode)

	slots, err := timectrl.NewSlotClock(tc, start, uint16(*numerology))
	if err != nil {
		log.Error(ctx, "slot clock init failed", logging.Err(err))
		os.Exit(1)
	}

	if window, err := device.TxPool().SensingWindowInSlots(uint8(*carrierID), uint16(*poolID), slotDuration); err == nil {
		log.Info(ctx, "sensing window",
			logging.Int("slots", window),
			logging.String("slot_duration", slotDuration.String()),
		)
	}

	// Feedback timer: armed after a slot with opportunities, cancelled (as
	// if feedback arrived) a few slots later by its own timeout.
	feedback := timectrl.NewResponseTimer(tc, tc)

	tracer := otel.Tracer(tracerName)
	tc.AddListener(func(simTime time.Time) {
		cur := slots.SlotAt(simTime)

		_, span := tracer.Start(ctx, "Opportunities")
		opportunities, err := device.TxPool().Opportunities(
			cur, uint8(*carrierID), uint16(*numerology), uint16(*poolID), uint8(*t1), uint16(*t2))
		if err != nil {
			collector.ObserveConfigError("opportunities")
			span.RecordError(err)
			span.End()
			deviceLog.Error(ctx, "enumeration failed", logging.Err(err), logging.Uint64("slot", cur))
			return
		}
		span.SetAttributes(
			attribute.Int64("sidelink.current_slot", int64(cur)),
			attribute.Int("sidelink.opportunities", len(opportunities)),
		)
		span.End()

		collector.ObserveEnumeration(uint8(*carrierID), uint16(*poolID), len(opportunities))

		if len(opportunities) > 0 && !feedback.IsRunning() {
			next := opportunities[0]
			_ = feedback.Set(timectrl.ReasonWaitFeedback, 4*slotDuration, func(reason timectrl.TimerReason) {
				deviceLog.Debug(ctx, "response timer fired", logging.String("reason", reason.String()))
			})
			deviceLog.Debug(ctx, "next opportunity",
				logging.Uint64("slot", cur),
				logging.Uint64("abs_slot", next.AbsSlotIndex),
				logging.Int("offset", int(next.SlotOffset)),
				logging.Int("window", len(opportunities)),
			)
		}
	})

	log.Info(ctx, "simulation starting",
		logging.String("duration", duration.String()),
		logging.Int("numerology", int(*numerology)),
		logging.Int("t1", int(*t1)),
		logging.Int("t2", int(*t2)),
	)
	<-tc.Start(*duration)
	log.Info(ctx, "simulation finished", logging.Uint64("final_slot", slots.CurrentSlot()))
}

// loadPreconfig reads the preconfiguration from path, falling back to a
// small builtin single-pool configuration when path is empty.
func loadPreconfig(path string) (*model.SidelinkPreconfig, error) {
	if path == "" {
		return defaultPreconfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preconfiguration: %w", err)
	}
	defer f.Close()
	return core.LoadSidelinkPreconfig(f)
}

func defaultPreconfig() *model.SidelinkPreconfig {
	bitmap, err := model.ParseSlotBitmap("110110110110")
	if err != nil {
		panic(err)
	}
	return &model.SidelinkPreconfig{
		TddPattern: "DL|DL|S|UL|UL|UL|DL|DL|S|UL|UL|UL|",
		Mode:       model.ModeDeviceAutonomous,
		Carriers: []model.CarrierPreconfig{{
			ID: 0,
			Pools: []model.PoolPreconfig{{
				ID: 0,
				Config: model.ResourcePoolConfig{
					NumPscchRbs:      10,
					PscchSymStart:    1,
					PscchSymLength:   2,
					PsschSymStart:    3,
					PsschSymLength:   11,
					SubchannelSize:   10,
					MaxNumPerReserve: 3,
					TotalSymbols:     14,
					SensingWindow:    100 * time.Millisecond,
				},
				SlBitmap: bitmap,
			}},
		}},
	}
}
