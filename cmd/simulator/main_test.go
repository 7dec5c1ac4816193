package main

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/sidelink-simulator/core"
	"github.com/signalsfoundry/sidelink-simulator/internal/logging"
	"github.com/signalsfoundry/sidelink-simulator/timectrl"
)

// TestIntegration_DeviceRunLoop runs a tiny end-to-end-style simulation:
// the builtin preconfiguration is applied to a device and opportunities are
// enumerated on every slot of a short accelerated run.
func TestIntegration_DeviceRunLoop(t *testing.T) {
	ctx := context.Background()

	device := core.NewUeSidelinkContext(logging.Noop())
	device.SetEnabled(true)
	device.SetSourceL2ID(1)

	agent := newSlotAgent(logging.Noop(), nil)
	device.AttachMac(agent)

	if err := device.SetPreconfiguration(ctx, *defaultPreconfig()); err != nil {
		t.Fatalf("SetPreconfiguration error: %v", err)
	}
	if agent.txPool == nil || agent.rxPool == nil {
		t.Fatal("pools not forwarded to the agent")
	}

	const numerology = 1
	slotDuration := timectrl.SlotDuration(numerology)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := timectrl.NewTimeController(start, slotDuration, timectrl.Accelerated)
	slots, err := timectrl.NewSlotClock(tc, start, numerology)
	if err != nil {
		t.Fatalf("NewSlotClock error: %v", err)
	}

	ticks := 0
	found := 0
	tc.AddListener(func(simTime time.Time) {
		cur := slots.SlotAt(simTime)
		opportunities, err := device.TxPool().Opportunities(cur, 0, numerology, 0, 2, 33)
		if err != nil {
			t.Errorf("Opportunities at slot %d: %v", cur, err)
			return
		}
		ticks++
		found += len(opportunities)
	})

	<-tc.Start(100 * slotDuration)

	if ticks != 100 {
		t.Fatalf("listener ran %d times, want 100", ticks)
	}
	if found == 0 {
		t.Fatal("no opportunities found over the whole run")
	}
}

func TestDefaultPreconfigIsValid(t *testing.T) {
	pre := defaultPreconfig()

	device := core.NewUeSidelinkContext(logging.Noop())
	if err := device.SetPreconfiguration(context.Background(), *pre); err != nil {
		t.Fatalf("SetPreconfiguration error: %v", err)
	}

	// The expanded pool must be readable with the ids the flags default to.
	if _, err := device.TxPool().PhyPool(0, 0); err != nil {
		t.Fatalf("PhyPool error: %v", err)
	}
	if _, err := device.TxPool().SensingWindowInSlots(0, 0, timectrl.SlotDuration(1)); err != nil {
		t.Fatalf("SensingWindowInSlots error: %v", err)
	}
}
