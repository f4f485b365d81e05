// Package render turns simulation frames into pixels: heat-map
// normalization of the trail field, glow compositing, food and nucleus
// markers, and the per-frame network metrics.
package render

import (
	"image"
	"image/color"

	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Palette.
var (
	Background   = color.NRGBA{0, 0, 0, 255}
	FoodColor    = color.NRGBA{255, 255, 255, 230}
	FoodGlow     = color.NRGBA{255, 255, 255, 153}
	NucleusColor = color.NRGBA{255, 255, 0, 230}
	NucleusGlow  = color.NRGBA{255, 255, 0, 179}
)

// Marker geometry in raster pixels.
const (
	FoodRadius       = 3.0
	FoodGlowInner    = 1.0
	FoodGlowRadius   = 8.0
	ClickRadius      = 5.0
	GlowSigma        = 2.0
	nucleusGlowInset = 2.0
)

// Pipeline renders frames. It keeps scratch buffers between frames and
// must not be shared between goroutines.
type Pipeline struct {
	heat  *image.NRGBA
	layer *image.RGBA
	glow  *glow
}

// NewPipeline returns a pipeline with the default glow radius.
func NewPipeline() *Pipeline {
	return &Pipeline{glow: newGlow(GlowSigma)}
}

// Render draws f onto c and returns the stats derived from it.
func (p *Pipeline) Render(c Canvas, f *model.Frame) model.Stats {
	c.Fill(Background)
	scan := ScanFrame(f)

	if p.paintHeat(f, scan.MaxTrail) > 0 {
		p.glow.compose(p.heat, p.layer)
		c.DrawLayer(p.layer)
	}

	if scan.Stats.FoodFound > 0 {
		for i, food := range f.Food {
			if !food {
				continue
			}
			x, y := float64(i%f.Width), float64(i/f.Width)
			c.FillCircle(x, y, FoodRadius, FoodColor)
			c.RadialGlow(x, y, FoodGlowInner, FoodGlowRadius, FoodGlow)
		}
	}

	if n := f.Nucleus; n != nil {
		c.FillCircle(n.X, n.Y, n.Size/2, NucleusColor)
		c.RadialGlow(n.X, n.Y, n.Size/2-nucleusGlowInset, n.Size, NucleusGlow)
	}
	return scan.Stats
}

// paintHeat fills the heat layer and returns the number of lit cells.
func (p *Pipeline) paintHeat(f *model.Frame, maxTrail float64) int {
	rect := image.Rect(0, 0, f.Width, f.Height)
	if p.heat == nil || p.heat.Rect != rect {
		p.heat = image.NewNRGBA(rect)
		p.layer = image.NewRGBA(rect)
	} else {
		clear(p.heat.Pix)
	}

	lit := 0
	for i, v := range f.Trail {
		col, ok := HeatColor(v / maxTrail)
		if !ok {
			continue
		}
		lit++
		o := 4 * i
		p.heat.Pix[o] = col.R
		p.heat.Pix[o+1] = col.G
		p.heat.Pix[o+2] = col.B
		p.heat.Pix[o+3] = col.A
	}
	return lit
}

// Heat exposes the un-blurred heat layer of the last render.
func (p *Pipeline) Heat() *image.NRGBA { return p.heat }
