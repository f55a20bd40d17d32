// Package units converts between physical millimetres and print pixels and
// defines the fixed physical geometry of cards, tray slots and sheets.
package units

import "math"

// Print resolution.
const (
	DPI       = 300.0
	MMPerInch = 25.4
	pxPerMM   = DPI / MMPerInch
)

// CR80 card, landscape.
const (
	CardWidthMM  = 86.0
	CardHeightMM = 54.0
)

// Tray slot anchors on the A4 sheet (top-left corner of each card, mm).
// SlotGapMM is the vertical gap between the bottom of slot 1 and the top of slot 2.
const (
	Slot1XMM  = 31.8
	Slot1YMM  = 12.3
	SlotGapMM = 31.5
	Slot2XMM  = Slot1XMM
	Slot2YMM  = Slot1YMM + CardHeightMM + SlotGapMM
)

// A4 portrait.
const (
	SheetWidthMM  = 210.0
	SheetHeightMM = 297.0
)

// Derived pixel sizes. These are the only rounded values in the package.
var (
	CardWidthPx   = RoundPx(CardWidthMM)
	CardHeightPx  = RoundPx(CardHeightMM)
	SheetWidthPx  = RoundPx(SheetWidthMM)
	SheetHeightPx = RoundPx(SheetHeightMM)
)

// MMToPx converts millimetres to pixels at DPI. No rounding is applied.
func MMToPx(mm float64) float64 {
	return mm * pxPerMM
}

// PxToMm converts pixels at DPI back to millimetres. No rounding is applied.
func PxToMm(px float64) float64 {
	return px / pxPerMM
}

// RoundPx converts millimetres to a whole pixel count.
func RoundPx(mm float64) int {
	return int(math.Round(MMToPx(mm)))
}
