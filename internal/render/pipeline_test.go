package render

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/olivierh59500/physarum-viewport/internal/model"
)

type circleCall struct {
	x, y, r float64
	c       color.NRGBA
}

// recordingCanvas counts draw calls and forwards them to a Raster.
type recordingCanvas struct {
	*Raster
	fills   int
	layers  []*image.RGBA
	circles []circleCall
	glows   []circleCall
}

func newRecordingCanvas(w, h int) *recordingCanvas {
	return &recordingCanvas{Raster: NewRaster(w, h)}
}

func (r *recordingCanvas) Fill(c color.Color) {
	r.fills++
	r.Raster.Fill(c)
}

func (r *recordingCanvas) DrawLayer(layer *image.RGBA) {
	r.layers = append(r.layers, layer)
	r.Raster.DrawLayer(layer)
}

func (r *recordingCanvas) FillCircle(cx, cy, rad float64, c color.NRGBA) {
	r.circles = append(r.circles, circleCall{cx, cy, rad, c})
	r.Raster.FillCircle(cx, cy, rad, c)
}

func (r *recordingCanvas) RadialGlow(cx, cy, r0, r1 float64, c color.NRGBA) {
	r.glows = append(r.glows, circleCall{cx, cy, r1, c})
	r.Raster.RadialGlow(cx, cy, r0, r1, c)
}

func frameFromRows(trail [][]float64, food [][]bool) *model.Frame {
	f := model.NewFrame(len(trail[0]), len(trail))
	for y := range trail {
		copy(f.Trail[y*f.Width:], trail[y])
		if food != nil {
			copy(f.Food[y*f.Width:], food[y])
		}
	}
	return f
}

func TestSingleCellScenario(t *testing.T) {
	f := frameFromRows([][]float64{{0, 0, 0}, {0, 1.0, 0}, {0, 0, 0}}, nil)
	c := newRecordingCanvas(3, 3)
	p := NewPipeline()

	stats := p.Render(c, f)
	if stats.NetworkLength != 1 || stats.FoodFound != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	heat := p.Heat()
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			px := heat.NRGBAAt(x, y)
			if x == 1 && y == 1 {
				want := color.NRGBA{250, 200, 50, 255}
				if px != want {
					t.Fatalf("centre heat = %v, want %v", px, want)
				}
				continue
			}
			if px.A != 0 {
				t.Fatalf("heat at (%d,%d) should be transparent, got %v", x, y, px)
			}
		}
	}

	if len(c.layers) != 1 {
		t.Fatalf("expected one layer draw, got %d", len(c.layers))
	}
	opaque := 0
	layer := c.layers[0]
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if layer.RGBAAt(x, y).A == 255 {
				opaque++
				if x != 1 || y != 1 {
					t.Fatalf("unexpected opaque glow pixel at (%d,%d)", x, y)
				}
			}
		}
	}
	if opaque != 1 {
		t.Fatalf("expected exactly one opaque pixel, got %d", opaque)
	}
	centre := layer.RGBAAt(1, 1)
	if absDiff(centre.R, 250) > 1 || absDiff(centre.G, 200) > 1 || absDiff(centre.B, 50) > 1 {
		t.Fatalf("lighten must keep the sharp centre colour, got %v", centre)
	}
	if len(c.circles) != 0 || len(c.glows) != 0 {
		t.Fatalf("no food or nucleus expected, got %d circles", len(c.circles))
	}
}

func TestAllZeroFieldDrawsNoHeat(t *testing.T) {
	f := model.NewFrame(16, 12)
	c := newRecordingCanvas(16, 12)
	stats := NewPipeline().Render(c, f)
	if len(c.layers) != 0 {
		t.Fatalf("expected no heat layer draw for an empty field, got %d", len(c.layers))
	}
	if stats.NetworkLength != 0 {
		t.Fatalf("network length = %d", stats.NetworkLength)
	}
	if c.fills != 1 {
		t.Fatalf("expected background fill, got %d", c.fills)
	}
	if got := c.Image().RGBAAt(5, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Fatalf("background pixel = %v", got)
	}
}

func TestScanFloorsNormalization(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		f := model.NewFrame(9, 7)
		peak := 0.0
		for i := range f.Trail {
			v := rng.Float64() * math.Pow(10, float64(rng.Intn(5)-3))
			f.Trail[i] = v
			peak = math.Max(peak, v)
		}
		s := ScanFrame(f)
		if s.MaxTrail < peak {
			t.Fatalf("maxTrail %v below peak %v", s.MaxTrail, peak)
		}
		if s.MaxTrail < MinTrailScale {
			t.Fatalf("maxTrail %v below floor", s.MaxTrail)
		}
	}
}

func TestNetworkLengthIsAbsoluteThreshold(t *testing.T) {
	// Same cells above 0.5 with very different peaks.
	low := frameFromRows([][]float64{{0.51, 0.5, 0.49, 0.6}}, nil)
	high := frameFromRows([][]float64{{0.51, 0.5, 0.49, 600}}, nil)
	if got := ScanFrame(low).Stats.NetworkLength; got != 2 {
		t.Fatalf("low network length = %d", got)
	}
	if got := ScanFrame(high).Stats.NetworkLength; got != 2 {
		t.Fatalf("high network length = %d", got)
	}
}

func TestFoodFoundCountsTruthyCells(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	f := model.NewFrame(40, 30)
	want := 0
	for i := range f.Food {
		if rng.Intn(7) == 0 {
			f.Food[i] = true
			want++
		}
	}
	c := newRecordingCanvas(40, 30)
	stats := NewPipeline().Render(c, f)
	if stats.FoodFound != want {
		t.Fatalf("food found = %d, want %d", stats.FoodFound, want)
	}
	if len(c.circles) != want || len(c.glows) != want {
		t.Fatalf("expected a disc and glow per food cell, got %d/%d", len(c.circles), len(c.glows))
	}
	for _, g := range c.glows {
		if g.r != FoodGlowRadius || g.c != FoodGlow {
			t.Fatalf("unexpected food glow %+v", g)
		}
	}
}

func TestNucleusDrawnWithGlow(t *testing.T) {
	f := model.NewFrame(60, 60)
	f.Nucleus = &model.Nucleus{X: 30, Y: 30, Size: 20}
	c := newRecordingCanvas(60, 60)
	NewPipeline().Render(c, f)
	if len(c.circles) != 1 || c.circles[0].r != 10 || c.circles[0].c != NucleusColor {
		t.Fatalf("unexpected nucleus disc %+v", c.circles)
	}
	if len(c.glows) != 1 || c.glows[0].r != 20 {
		t.Fatalf("unexpected nucleus glow %+v", c.glows)
	}
	centre := c.Image().RGBAAt(30, 30)
	if centre.R < 200 || centre.G < 200 || centre.B > 10 {
		t.Fatalf("nucleus centre should be yellow, got %v", centre)
	}
	edge := c.Image().RGBAAt(30+18, 30)
	if edge.R == 0 || edge.R >= centre.R {
		t.Fatalf("glow should fade outward, edge %v centre %v", edge, centre)
	}
	if far := c.Image().RGBAAt(2, 2); far.R != 0 {
		t.Fatalf("corner should stay background, got %v", far)
	}
}

func TestHeatColorRamp(t *testing.T) {
	cases := []struct {
		v    float64
		want color.NRGBA
		ok   bool
	}{
		{0, color.NRGBA{}, false},
		{0.01, color.NRGBA{}, false},
		{0.25, color.NRGBA{R: 12, G: 88, B: 50, A: 64}, true},
		{0.5, color.NRGBA{R: 25, G: 125, B: 50, A: 128}, true},
		{0.75, color.NRGBA{R: 138, G: 162, B: 50, A: 191}, true},
		{1, color.NRGBA{R: 250, G: 200, B: 50, A: 255}, true},
	}
	for _, tc := range cases {
		got, ok := HeatColor(tc.v)
		if ok != tc.ok {
			t.Fatalf("HeatColor(%v) visible = %v, want %v", tc.v, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("HeatColor(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestPipelineReusesBuffersAcrossSizes(t *testing.T) {
	p := NewPipeline()
	big := model.NewFrame(10, 10)
	big.Trail[0] = 2
	p.Render(NewRaster(10, 10), big)
	small := model.NewFrame(4, 3)
	small.Trail[5] = 1
	stats := p.Render(NewRaster(4, 3), small)
	if stats.NetworkLength != 1 {
		t.Fatalf("network length after resize = %d", stats.NetworkLength)
	}
	if p.Heat().Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("heat layer not resized: %v", p.Heat().Bounds())
	}
	if p.Heat().NRGBAAt(0, 0).A != 0 {
		t.Fatal("stale heat from a previous frame")
	}
}

func TestGlowSpriteFadesToEdge(t *testing.T) {
	img := GlowSprite(1, 8, FoodGlow)
	b := img.Bounds()
	mid := img.RGBAAt(b.Dx()/2, b.Dy()/2)
	if mid.A == 0 {
		t.Fatal("sprite centre should be lit")
	}
	if corner := img.RGBAAt(0, 0); corner.A != 0 {
		t.Fatalf("sprite corner should be transparent, got %v", corner)
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
