package timectrl

import (
	"testing"
	"time"
)

func TestSlotDuration(t *testing.T) {
	cases := []struct {
		numerology uint16
		want       time.Duration
	}{
		{numerology: 0, want: time.Millisecond},
		{numerology: 1, want: 500 * time.Microsecond},
		{numerology: 2, want: 250 * time.Microsecond},
		{numerology: 3, want: 125 * time.Microsecond},
	}
	for _, tc := range cases {
		if got := SlotDuration(tc.numerology); got != tc.want {
			t.Fatalf("SlotDuration(%d) = %v, want %v", tc.numerology, got, tc.want)
		}
	}
}

func TestSlotClockCurrentSlot(t *testing.T) {
	epoch := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(epoch, time.Millisecond, RealTime)

	clock, err := NewSlotClock(tc, epoch, 1)
	if err != nil {
		t.Fatalf("NewSlotClock error: %v", err)
	}

	if got := clock.CurrentSlot(); got != 0 {
		t.Fatalf("CurrentSlot() at epoch = %d, want 0", got)
	}

	// 10ms at numerology 1 is 20 slots.
	tc.SetTime(epoch.Add(10 * time.Millisecond))
	if got := clock.CurrentSlot(); got != 20 {
		t.Fatalf("CurrentSlot() = %d, want 20", got)
	}

	// Mid-slot instants map to the containing slot.
	tc.SetTime(epoch.Add(10*time.Millisecond + 300*time.Microsecond))
	if got := clock.CurrentSlot(); got != 20 {
		t.Fatalf("CurrentSlot() mid-slot = %d, want 20", got)
	}
}

func TestSlotClockBeforeEpoch(t *testing.T) {
	epoch := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(epoch, time.Millisecond, RealTime)
	clock, err := NewSlotClock(tc, epoch, 0)
	if err != nil {
		t.Fatalf("NewSlotClock error: %v", err)
	}

	if got := clock.SlotAt(epoch.Add(-time.Second)); got != 0 {
		t.Fatalf("SlotAt(before epoch) = %d, want 0", got)
	}
}

func TestSlotClockNilClock(t *testing.T) {
	if _, err := NewSlotClock(nil, time.Time{}, 0); err == nil {
		t.Fatal("expected error for nil clock")
	}
}
