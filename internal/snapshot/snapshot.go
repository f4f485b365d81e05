// Package snapshot renders one service frame to a PNG without a window.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"

	"github.com/olivierh59500/physarum-viewport/internal/model"
	"github.com/olivierh59500/physarum-viewport/internal/render"
)

// Source is what a snapshot needs from the service.
type Source interface {
	Reset(ctx context.Context) (bool, error)
	Frame(ctx context.Context) (model.FrameResult, error)
}

// ErrNoFrame means the service has not built a world yet.
var ErrNoFrame = errors.New("service has no frame yet; reset the simulation first")

// Write fetches the current frame (after a reset if asked), renders it,
// resamples it by scale and encodes it to path.
func Write(ctx context.Context, src Source, path string, reset bool, scale float64) (model.Stats, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return model.Stats{}, fmt.Errorf("invalid snapshot scale %v", scale)
	}
	if reset {
		ok, err := src.Reset(ctx)
		if err != nil {
			return model.Stats{}, err
		}
		if !ok {
			return model.Stats{}, errors.New("service refused reset")
		}
	}
	res, err := src.Frame(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	if res.Frame == nil {
		return model.Stats{}, ErrNoFrame
	}

	raster := render.NewRaster(res.Frame.Width, res.Frame.Height)
	stats := render.NewPipeline().Render(raster, res.Frame)

	f, err := os.Create(path)
	if err != nil {
		return model.Stats{}, err
	}
	if err := png.Encode(f, Scale(raster.Image(), scale)); err != nil {
		f.Close()
		return model.Stats{}, fmt.Errorf("encode %s: %w", path, err)
	}
	return stats, f.Close()
}

// Scale resamples img bilinearly. A scale of 1 returns img unchanged;
// the result is never smaller than one pixel a side.
func Scale(img *image.RGBA, scale float64) *image.RGBA {
	if scale == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
