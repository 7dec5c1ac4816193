package model

import "testing"

func TestParseSlotBitmap(t *testing.T) {
	b, err := ParseSlotBitmap("10110")
	if err != nil {
		t.Fatalf("ParseSlotBitmap error: %v", err)
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}

	want := []bool{true, false, true, true, false}
	for i, w := range want {
		if b.Bit(i) != w {
			t.Fatalf("Bit(%d) = %v, want %v", i, b.Bit(i), w)
		}
	}
	if b.OnesCount() != 3 {
		t.Fatalf("OnesCount() = %d, want 3", b.OnesCount())
	}
	if b.String() != "10110" {
		t.Fatalf("String() = %q, want %q", b.String(), "10110")
	}
}

func TestParseSlotBitmapRejectsBadCharacters(t *testing.T) {
	if _, err := ParseSlotBitmap("10x1"); err == nil {
		t.Fatal("expected error for non-binary character")
	}
}

func TestSlotBitmapSetBit(t *testing.T) {
	b := NewSlotBitmap(70) // spans two words
	b.SetBit(0, true)
	b.SetBit(69, true)
	if !b.Bit(0) || !b.Bit(69) {
		t.Fatal("set bits not readable")
	}
	b.SetBit(69, false)
	if b.Bit(69) {
		t.Fatal("cleared bit still set")
	}
	if b.OnesCount() != 1 {
		t.Fatalf("OnesCount() = %d, want 1", b.OnesCount())
	}
}

func TestSlotBitmapFromBits(t *testing.T) {
	b := SlotBitmapFromBits([]uint8{1, 0, 1, 1})
	if b.String() != "1011" {
		t.Fatalf("String() = %q, want %q", b.String(), "1011")
	}
}

func TestSlotBitmapEqual(t *testing.T) {
	a, _ := ParseSlotBitmap("1011")
	b, _ := ParseSlotBitmap("1011")
	c, _ := ParseSlotBitmap("1010")
	d, _ := ParseSlotBitmap("10110")

	if !a.Equal(b) {
		t.Fatal("identical bitmaps compare unequal")
	}
	if a.Equal(c) {
		t.Fatal("different bits compare equal")
	}
	if a.Equal(d) {
		t.Fatal("different lengths compare equal")
	}
	if !(SlotBitmap{}).Equal(SlotBitmap{}) {
		t.Fatal("zero bitmaps compare unequal")
	}
}
