package stub

import (
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Noise parameters for the synthetic vein field.
const (
	noiseAlpha  = 2.0
	noiseBeta   = 2.0
	noiseOctave = 3
	noiseScale  = 90.0
	coarseCell  = 4
	foodMargin  = 20
	nucleusGap  = 50.0
)

// world is a stand-in for the real colony: ridged Perlin noise, masked by
// a disc that grows from the nucleus, plays the role of the trail field.
// It only has to look plausible and honour the wire contract.
type world struct {
	width, height int
	trail         []float64
	food          []bool
	nucleus       model.Nucleus
	step          int
	noise         *perlin.Perlin
	rng           *rand.Rand
	coarse        []float64
}

func newWorld(width, height int, cfg model.Config, seed int64) *world {
	w := &world{
		width:   width,
		height:  height,
		trail:   make([]float64, width*height),
		food:    make([]bool, width*height),
		nucleus: model.Nucleus{X: float64(width / 2), Y: float64(height / 2), Size: cfg.NucleusSize},
		noise:   perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, seed),
		rng:     rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < int(cfg.FoodQuantity); i++ {
		w.placeFood(foodMargin)
	}
	return w
}

// placeFood drops one food cell away from the nucleus, retrying until a
// spot qualifies.
func (w *world) placeFood(margin int) {
	if w.width <= 2*margin || w.height <= 2*margin {
		return
	}
	for tries := 0; tries < 1000; tries++ {
		x := margin + w.rng.Intn(w.width-2*margin)
		y := margin + w.rng.Intn(w.height-2*margin)
		if math.Hypot(float64(x)-w.nucleus.X, float64(y)-w.nucleus.Y) > nucleusGap {
			w.food[y*w.width+x] = true
			return
		}
	}
}

func (w *world) addFood(x, y int) bool {
	if x < 0 || x >= w.width || y < 0 || y >= w.height {
		return false
	}
	w.food[y*w.width+x] = true
	return true
}

// advance moves the synthetic field one step forward.
func (w *world) advance(cfg model.Config) {
	w.step++
	cols := (w.width + coarseCell - 1) / coarseCell
	rows := (w.height + coarseCell - 1) / coarseCell
	if len(w.coarse) != cols*rows {
		w.coarse = make([]float64, cols*rows)
	}

	z := float64(w.step) * 0.01 * math.Max(cfg.AgentSpeed, 0.1)
	reach := float64(w.step) * math.Max(cfg.AgentSpeed, 0.1) * math.Sqrt(math.Max(cfg.NumAgents, 1)) / 40
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			px := float64(cx*coarseCell) + coarseCell/2
			py := float64(cy*coarseCell) + coarseCell/2
			d := math.Hypot(px-w.nucleus.X, py-w.nucleus.Y)
			if d > reach {
				w.coarse[cy*cols+cx] = 0
				continue
			}
			n := w.noise.Noise3D(px/noiseScale, py/noiseScale, z)
			ridge := math.Max(0, 1-math.Abs(n)*8)
			w.coarse[cy*cols+cx] = ridge * ridge * ridge * cfg.TrailStrength
		}
	}

	evap := cfg.TrailEvaporationRate
	if evap <= 0 {
		evap = 0.02
	}
	for y := 0; y < w.height; y++ {
		for x := 0; x < w.width; x++ {
			i := y*w.width + x
			target := w.coarse[(y/coarseCell)*cols+x/coarseCell]
			w.trail[i] = w.trail[i]*(1-evap) + target*evap*5
		}
	}

	if w.rng.Float64() < cfg.FoodSpawnRate {
		w.placeFood(10)
	}
}

func (w *world) trailRows() [][]float64 {
	rows := make([][]float64, w.height)
	for y := range rows {
		rows[y] = w.trail[y*w.width : (y+1)*w.width]
	}
	return rows
}

func (w *world) foodRows() [][]bool {
	rows := make([][]bool, w.height)
	for y := range rows {
		rows[y] = w.food[y*w.width : (y+1)*w.width]
	}
	return rows
}
