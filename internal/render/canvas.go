package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Canvas is a raster surface the pipeline draws onto. Coordinates are
// raster pixels.
type Canvas interface {
	Fill(c color.Color)
	// DrawLayer composites a premultiplied layer at the origin, source over.
	DrawLayer(layer *image.RGBA)
	FillCircle(cx, cy, r float64, c color.NRGBA)
	// RadialGlow fills a disc of radius r1 whose alpha fades linearly from
	// c.A at radius r0 to zero at r1.
	RadialGlow(cx, cy, r0, r1 float64, c color.NRGBA)
}

// Raster is a CPU Canvas backed by an *image.RGBA.
type Raster struct {
	img *image.RGBA
}

// NewRaster allocates a transparent width x height raster.
func NewRaster(width, height int) *Raster {
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image exposes the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Fill(c color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) DrawLayer(layer *image.RGBA) {
	draw.Draw(r.img, layer.Bounds(), layer, layer.Bounds().Min, draw.Over)
}

func (r *Raster) FillCircle(cx, cy, radius float64, c color.NRGBA) {
	r.shade(cx, cy, radius, func(float64) float64 { return float64(c.A) / 255 }, c)
}

func (r *Raster) RadialGlow(cx, cy, r0, r1 float64, c color.NRGBA) {
	base := float64(c.A) / 255
	span := r1 - r0
	r.shade(cx, cy, r1, func(d float64) float64 {
		if span <= 0 {
			return 0
		}
		t := (d - r0) / span
		return base * (1 - math.Min(1, math.Max(0, t)))
	}, c)
}

// shade blends c over every pixel whose centre lies within radius,
// with coverage given by alpha(distance).
func (r *Raster) shade(cx, cy, radius float64, alpha func(d float64) float64, c color.NRGBA) {
	if radius <= 0 {
		return
	}
	b := r.img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(cx-radius)))
	x1 := min(b.Max.X, int(math.Ceil(cx+radius))+1)
	y0 := max(b.Min.Y, int(math.Floor(cy-radius)))
	y1 := min(b.Max.Y, int(math.Ceil(cy+radius))+1)
	cr, cg, cb := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if d > radius {
				continue
			}
			a := alpha(d)
			if a <= 0 {
				continue
			}
			i := r.img.PixOffset(x, y)
			p := r.img.Pix[i : i+4]
			p[0] = over(cr*a, p[0], a)
			p[1] = over(cg*a, p[1], a)
			p[2] = over(cb*a, p[2], a)
			p[3] = over(a, p[3], a)
		}
	}
}

// over composites a premultiplied source channel onto a destination byte.
func over(src float64, dst uint8, srcAlpha float64) uint8 {
	v := src + float64(dst)/255*(1-srcAlpha)
	return toByte(v * 255)
}

// GlowSprite renders a radial glow centred in a square transparent image,
// for canvases that stamp sprites instead of shading per pixel.
func GlowSprite(r0, r1 float64, c color.NRGBA) *image.RGBA {
	size := 2*int(math.Ceil(r1)) + 2
	sprite := NewRaster(size, size)
	sprite.RadialGlow(float64(size)/2, float64(size)/2, r0, r1, c)
	return sprite.Image()
}
