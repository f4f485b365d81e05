// Package stub is a development stand-in for the simulation service. It
// speaks the same HTTP contract as the real service so the viewport can be
// run and tested without it.
package stub

import (
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Server owns the stand-in world and its run loop.
type Server struct {
	mu      sync.Mutex
	width   int
	height  int
	seed    int64
	cfg     model.Config
	world   *world
	running bool
	fps     float64

	frames    int
	lastCount time.Time
	interval  time.Duration
	stop      chan struct{}
	done      chan struct{}
}

// New returns a server for a width x height raster. No world exists until
// the first reset.
func New(width, height int, seed int64) *Server {
	return &Server{
		width:    width,
		height:   height,
		seed:     seed,
		cfg:      model.DefaultConfig(),
		fps:      30,
		interval: time.Second / 30,
	}
}

// Handler routes the service API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("POST /api/add_food", s.handleAddFood)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return mux
}

// Close stops the run loop if it is active.
func (s *Server) Close() {
	s.Stop()
}

// Start launches the run loop. It reports false if already running.
func (s *Server) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	if s.world == nil {
		s.world = newWorld(s.width, s.height, s.cfg, s.seed)
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.frames = 0
	s.lastCount = time.Now()
	go s.loop(s.stop, s.done)
	logging.Get().Infof("stub: simulation started")
	return true
}

// Stop halts the run loop. It reports false if it was not running.
func (s *Server) Stop() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
	logging.Get().Infof("stub: simulation stopped")
	return true
}

// Reset rebuilds the world from the current config and seed.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = newWorld(s.width, s.height, s.cfg, s.seed)
}

// Step advances the world by n steps without the run loop.
func (s *Server) Step(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.world == nil {
		s.world = newWorld(s.width, s.height, s.cfg, s.seed)
	}
	for i := 0; i < n; i++ {
		s.world.advance(s.cfg)
	}
}

func (s *Server) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		s.world.advance(s.cfg)
		s.frames++
		if now := time.Now(); now.Sub(s.lastCount) >= time.Second {
			s.fps = float64(s.frames)
			s.frames = 0
			s.lastCount = now
		}
		s.mu.Unlock()
	}
}

// updateConfig merges known keys and clamps them into service limits.
// Changing the config rebuilds the world, as the real service does.
func (s *Server) updateConfig(values map[string]float64) model.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range model.Params {
		if v, ok := values[p.Name]; ok {
			*p.Ref(&s.cfg) = clampParam(p, v)
		}
	}
	s.world = newWorld(s.width, s.height, s.cfg, s.seed)
	return s.cfg
}

var limits = map[string][2]float64{
	"num_agents":             {1, 100000},
	"agent_speed":            {0.1, 10},
	"sensor_angle":           {0, 180},
	"sensor_distance":        {1, 50},
	"turn_speed":             {0, 10},
	"trail_strength":         {0, 100},
	"trail_evaporation_rate": {0, 1},
	"trail_diffusion_rate":   {0, 1},
	"food_quantity":          {0, 500},
	"food_spawn_rate":        {0, 1},
	"nucleus_size":           {1, 200},
}

func clampParam(p model.Param, v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	if p.Kind == model.Int {
		v = math.Round(v)
	}
	if lim, ok := limits[p.Name]; ok {
		v = math.Min(math.Max(v, lim[0]), lim[1])
	}
	return v
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		logging.Get().Warnf("stub: bad config body: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid config"})
		return
	}
	cfg := s.updateConfig(values)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": s.Start()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": s.Stop()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.world == nil {
		writeJSON(w, http.StatusOK, map[string]any{"error": "Simulation not running", "is_running": s.running})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"world_data": map[string]any{
			"trail_map": s.world.trailRows(),
			"food_map":  s.world.foodRows(),
			"nucleus":   s.world.nucleus,
		},
		"fps":        s.fps,
		"is_running": s.running,
	})
}

func (s *Server) handleAddFood(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing coordinates"})
		return
	}
	s.mu.Lock()
	ok := s.world != nil && s.world.addFood(*req.X, *req.Y)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := model.Status{Running: s.running, FPS: s.fps}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get().Debugf("stub: write response: %v", err)
	}
}
