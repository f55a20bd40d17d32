package units

import (
	"math"
	"testing"
)

func TestMMToPx(t *testing.T) {
	tests := []struct {
		name     string
		mm       float64
		expected float64
	}{
		{"zero", 0, 0},
		{"one inch", 25.4, 300},
		{"card width", 86, 1015.748031496063},
		{"card height", 54, 637.7952755905512},
		{"negative offset", -2.54, -30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MMToPx(tt.mm)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("MMToPx(%v) = %v, want %v", tt.mm, got, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []float64{0, 0.1, 1, 12.3, 31.8, 54, 86, 97.8, 210, 297, -5, 1234.5678}
	for _, mm := range values {
		got := PxToMm(MMToPx(mm))
		if math.Abs(got-mm) > 1e-9 {
			t.Errorf("PxToMm(MMToPx(%v)) = %v", mm, got)
		}
	}
}

func TestDerivedPixelSizes(t *testing.T) {
	if CardWidthPx != 1016 {
		t.Errorf("CardWidthPx = %d, want 1016", CardWidthPx)
	}
	if CardHeightPx != 638 {
		t.Errorf("CardHeightPx = %d, want 638", CardHeightPx)
	}
	if SheetWidthPx != 2480 {
		t.Errorf("SheetWidthPx = %d, want 2480", SheetWidthPx)
	}
	if SheetHeightPx != 3508 {
		t.Errorf("SheetHeightPx = %d, want 3508", SheetHeightPx)
	}
}

func TestSlotAnchors(t *testing.T) {
	if Slot2XMM != Slot1XMM {
		t.Errorf("slot 2 X = %v, want %v", Slot2XMM, Slot1XMM)
	}
	want := 12.3 + 54 + 31.5
	if math.Abs(Slot2YMM-want) > 1e-9 {
		t.Errorf("Slot2YMM = %v, want %v", Slot2YMM, want)
	}
}
