package render

import (
	"image"
	"math"
)

// glow holds the float planes used to composite a blurred copy of the
// heat layer over itself. Planes are premultiplied RGBA, 4 floats a pixel.
type glow struct {
	sigma   float64
	kernel  []float32
	sharp   []float32
	blurred []float32
	tmp     []float32
}

func newGlow(sigma float64) *glow {
	return &glow{sigma: sigma, kernel: gaussianKernel(sigma)}
}

func gaussianKernel(sigma float64) []float32 {
	if sigma <= 0 {
		return []float32{1}
	}
	radius := int(math.Ceil(3 * sigma))
	k := make([]float32, 2*radius+1)
	sum := 0.0
	for i := range k {
		d := float64(i - radius)
		w := math.Exp(-d * d / (2 * sigma * sigma))
		k[i] = float32(w)
		sum += w
	}
	for i := range k {
		k[i] = float32(float64(k[i]) / sum)
	}
	return k
}

func (g *glow) resize(n int) {
	if len(g.sharp) == 4*n {
		return
	}
	g.sharp = make([]float32, 4*n)
	g.blurred = make([]float32, 4*n)
	g.tmp = make([]float32, 4*n)
}

// compose writes heat lightened with its own blur into dst.
func (g *glow) compose(heat *image.NRGBA, dst *image.RGBA) {
	b := heat.Bounds()
	w, h := b.Dx(), b.Dy()
	g.resize(w * h)

	for y := 0; y < h; y++ {
		row := heat.Pix[y*heat.Stride : y*heat.Stride+4*w]
		for x := 0; x < w; x++ {
			i := 4 * (y*w + x)
			a := float32(row[4*x+3]) / 255
			g.sharp[i] = float32(row[4*x]) / 255 * a
			g.sharp[i+1] = float32(row[4*x+1]) / 255 * a
			g.sharp[i+2] = float32(row[4*x+2]) / 255 * a
			g.sharp[i+3] = a
		}
	}

	g.blurPass(g.sharp, g.tmp, h, 4*w, w, 4)
	g.blurPass(g.tmp, g.blurred, w, 4, h, 4*w)

	for y := 0; y < h; y++ {
		out := dst.Pix[y*dst.Stride : y*dst.Stride+4*w]
		for x := 0; x < w; x++ {
			i := 4 * (y*w + x)
			as, ab := g.blurred[i+3], g.sharp[i+3]
			for c := 0; c < 3; c++ {
				cs, cb := g.blurred[i+c], g.sharp[i+c]
				co := cs*(1-ab) + cb*(1-as) + max(cs*ab, cb*as)
				out[4*x+c] = unit(co)
			}
			out[4*x+3] = unit(as + ab - as*ab)
		}
	}
}

// blurPass convolves along one axis: lines of length samples, lineStep
// apart, with step between neighbouring samples. Outside the plane counts
// as transparent.
func (g *glow) blurPass(src, dst []float32, lines, lineStep, length, step int) {
	radius := len(g.kernel) / 2
	for line := 0; line < lines; line++ {
		base := line * lineStep
		for p := 0; p < length; p++ {
			var r, gr, bl, a float32
			for k, wt := range g.kernel {
				q := p + k - radius
				if q < 0 || q >= length {
					continue
				}
				j := base + q*step
				r += src[j] * wt
				gr += src[j+1] * wt
				bl += src[j+2] * wt
				a += src[j+3] * wt
			}
			j := base + p*step
			dst[j], dst[j+1], dst[j+2], dst[j+3] = r, gr, bl, a
		}
	}
}

func unit(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
