// Package interact turns pointer clicks on the displayed surface into
// add-food requests and holds the editable parameter panel.
package interact

import (
	"context"
	"math"
	"time"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
)

// Rect is where the raster is displayed, in window coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (px, py) falls on the displayed raster.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && py >= r.Y && px <= r.X+r.W && py <= r.Y+r.H
}

// MapPointer converts a window position into raster pixel coordinates by
// the displayed-to-backing size ratio. Results are clamped to the raster;
// ok is false when the pointer is outside the displayed area.
func MapPointer(px, py float64, display Rect, backingW, backingH int) (x, y int, ok bool) {
	if display.W <= 0 || display.H <= 0 || backingW <= 0 || backingH <= 0 {
		return 0, 0, false
	}
	if !display.Contains(px, py) {
		return 0, 0, false
	}
	x = int(math.Floor((px - display.X) * float64(backingW) / display.W))
	y = int(math.Floor((py - display.Y) * float64(backingH) / display.H))
	return min(max(x, 0), backingW-1), min(max(y, 0), backingH-1), true
}

// FoodAdder is the remote operation a click issues.
type FoodAdder interface {
	AddFood(ctx context.Context, x, y int) (bool, error)
}

// Marker receives optimistic feedback for accepted food.
type Marker interface {
	Mark(x, y int)
}

// Handler issues add-food requests for clicks.
type Handler struct {
	remote  FoodAdder
	marker  Marker
	timeout time.Duration
	backW   int
	backH   int
}

// NewHandler returns a handler for a backingW x backingH raster.
func NewHandler(remote FoodAdder, marker Marker, backingW, backingH int, timeout time.Duration) *Handler {
	return &Handler{remote: remote, marker: marker, timeout: timeout, backW: backingW, backH: backingH}
}

// Click maps the pointer and sends the request. It blocks until the
// request resolves; callers on a render goroutine should run it with go.
// It reports whether food was placed.
func (h *Handler) Click(ctx context.Context, px, py float64, display Rect) bool {
	x, y, ok := MapPointer(px, py, display, h.backW, h.backH)
	if !ok {
		return false
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	placed, err := h.remote.AddFood(ctx, x, y)
	if err != nil {
		logging.Get().Warnf("add food at (%d,%d): %v", x, y, err)
		return false
	}
	if !placed {
		logging.Get().Debugf("service declined food at (%d,%d)", x, y)
		return false
	}
	if h.marker != nil {
		h.marker.Mark(x, y)
	}
	return true
}

// Fit letterboxes an innerW x innerH raster into an outerW x outerH
// window, keeping its aspect ratio and centring it.
func Fit(outerW, outerH, innerW, innerH int) Rect {
	if outerW <= 0 || outerH <= 0 || innerW <= 0 || innerH <= 0 {
		return Rect{}
	}
	scale := math.Min(float64(outerW)/float64(innerW), float64(outerH)/float64(innerH))
	w, h := float64(innerW)*scale, float64(innerH)*scale
	return Rect{X: (float64(outerW) - w) / 2, Y: (float64(outerH) - h) / 2, W: w, H: h}
}
