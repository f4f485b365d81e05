package render

import (
	"image/color"
	"math"

	"github.com/olivierh59500/physarum-viewport/internal/model"
)

const (
	// MinTrailScale floors the normalization divisor so an empty field
	// does not blow up.
	MinTrailScale = 0.1
	// NetworkThreshold is the absolute trail level counted as network.
	NetworkThreshold = 0.5
	// VisibleThreshold is the normalized level below which a cell is not drawn.
	VisibleThreshold = 0.01
)

// Scan is the result of one pass over a frame.
type Scan struct {
	MaxTrail float64
	Stats    model.Stats
}

// ScanFrame computes the normalization divisor and the frame stats in a
// single pass over both grids.
func ScanFrame(f *model.Frame) Scan {
	s := Scan{MaxTrail: MinTrailScale}
	for i, v := range f.Trail {
		if v > s.MaxTrail {
			s.MaxTrail = v
		}
		if v > NetworkThreshold {
			s.Stats.NetworkLength++
		}
		if f.Food[i] {
			s.Stats.FoodFound++
		}
	}
	return s
}

// HeatColor maps a normalized trail value to its green→yellow colour. It
// reports false when the cell stays transparent.
func HeatColor(v float64) (color.NRGBA, bool) {
	if !(v > VisibleThreshold) {
		return color.NRGBA{}, false
	}
	green := math.Min(255, 50+150*v)
	boost := 0.0
	if v > 0.5 {
		boost = 200 * (v - 0.5) * 2
	}
	red := math.Min(255, 50*v+boost)
	alpha := math.Min(255, 255*v)
	return color.NRGBA{R: toByte(red), G: toByte(green), B: 50, A: toByte(alpha)}, true
}

// toByte rounds like a clamped byte array store.
func toByte(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}
