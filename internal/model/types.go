package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Config is the set of simulation parameters owned by the remote service.
type Config struct {
	NumAgents            float64 `json:"num_agents"`
	AgentSpeed           float64 `json:"agent_speed"`
	SensorAngle          float64 `json:"sensor_angle"`
	SensorDistance       float64 `json:"sensor_distance"`
	TurnSpeed            float64 `json:"turn_speed"`
	TrailStrength        float64 `json:"trail_strength"`
	TrailEvaporationRate float64 `json:"trail_evaporation_rate"`
	TrailDiffusionRate   float64 `json:"trail_diffusion_rate"`
	FoodQuantity         float64 `json:"food_quantity"`
	FoodSpawnRate        float64 `json:"food_spawn_rate"`
	NucleusSize          float64 `json:"nucleus_size"`
}

// DefaultConfig matches the service's initial parameters.
func DefaultConfig() Config {
	return Config{
		NumAgents:            5000,
		AgentSpeed:           1.0,
		SensorAngle:          45,
		SensorDistance:       9,
		TurnSpeed:            0.5,
		TrailStrength:        5,
		TrailEvaporationRate: 0.02,
		TrailDiffusionRate:   0.1,
		FoodQuantity:         15,
		FoodSpawnRate:        0,
		NucleusSize:          25,
	}
}

// Kind tells whether a parameter is integral or real valued.
type Kind int

const (
	Int Kind = iota
	Real
)

func (k Kind) String() string {
	if k == Int {
		return "int"
	}
	return "real"
}

// Param binds one wire name to its Config field.
type Param struct {
	Name  string
	Label string
	Kind  Kind
	Ref   func(*Config) *float64
}

// Params lists every Config field in display order.
var Params = []Param{
	{"num_agents", "Agents", Int, func(c *Config) *float64 { return &c.NumAgents }},
	{"agent_speed", "Agent speed", Real, func(c *Config) *float64 { return &c.AgentSpeed }},
	{"sensor_angle", "Sensor angle", Int, func(c *Config) *float64 { return &c.SensorAngle }},
	{"sensor_distance", "Sensor distance", Int, func(c *Config) *float64 { return &c.SensorDistance }},
	{"turn_speed", "Turn speed", Real, func(c *Config) *float64 { return &c.TurnSpeed }},
	{"trail_strength", "Trail strength", Int, func(c *Config) *float64 { return &c.TrailStrength }},
	{"trail_evaporation_rate", "Evaporation", Real, func(c *Config) *float64 { return &c.TrailEvaporationRate }},
	{"trail_diffusion_rate", "Diffusion", Real, func(c *Config) *float64 { return &c.TrailDiffusionRate }},
	{"food_quantity", "Food quantity", Int, func(c *Config) *float64 { return &c.FoodQuantity }},
	{"food_spawn_rate", "Food spawn rate", Real, func(c *Config) *float64 { return &c.FoodSpawnRate }},
	{"nucleus_size", "Nucleus size", Int, func(c *Config) *float64 { return &c.NucleusSize }},
}

// DecodeConfig parses a flat config object and requires every parameter
// to be present and numeric.
func DecodeConfig(data []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, err
	}
	var cfg Config
	for _, p := range Params {
		msg, ok := raw[p.Name]
		if !ok {
			return Config{}, fmt.Errorf("missing field %q", p.Name)
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err != nil {
			return Config{}, fmt.Errorf("field %q is not numeric: %s", p.Name, string(msg))
		}
		*p.Ref(&cfg) = v
	}
	return cfg, nil
}

// Nucleus is the colony anchor.
type Nucleus struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Frame is one snapshot of the simulation. Trail and Food are row-major
// with Width*Height cells. Frames are never mutated after construction.
type Frame struct {
	Width, Height int
	Trail         []float64
	Food          []bool
	Nucleus       *Nucleus
}

// NewFrame allocates an all-zero frame.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Trail:  make([]float64, width*height),
		Food:   make([]bool, width*height),
	}
}

// TrailAt returns the trail intensity at (x, y).
func (f *Frame) TrailAt(x, y int) float64 {
	return f.Trail[y*f.Width+x]
}

// FoodAt reports whether food sits at (x, y).
func (f *Frame) FoodAt(x, y int) bool {
	return f.Food[y*f.Width+x]
}

// FrameResult is one poll of the service: the latest frame, if any, and
// the service's run state.
type FrameResult struct {
	Frame   *Frame
	Running bool
	FPS     float64
}

// Status is the service run state without a frame.
type Status struct {
	Running bool    `json:"is_running"`
	FPS     float64 `json:"fps"`
}

// Stats are derived from a single frame and never carried across frames.
type Stats struct {
	FoodFound     int
	NetworkLength int
}

func (s Stats) String() string {
	return fmt.Sprintf("Network length: %d | Food found: %d", s.NetworkLength, s.FoodFound)
}

// FormatParam renders a parameter value for an input field.
func FormatParam(p Param, v float64) string {
	if p.Kind == Int {
		return fmt.Sprintf("%d", int64(math.Trunc(v)))
	}
	return fmt.Sprintf("%g", v)
}
