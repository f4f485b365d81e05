// Package mirror keeps the displayed copy of the simulation parameters in
// step with the service's authoritative config.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Field is one bound input.
type Field interface {
	Text() string
	SetText(string)
}

// Bindings maps parameter names to their inputs.
type Bindings map[string]Field

// ConfigRemote is the part of the service the mirror writes to.
type ConfigRemote interface {
	SetConfig(ctx context.Context, cfg model.Config) (model.Config, error)
}

// Resetter restarts the simulation after a config change.
type Resetter interface {
	Reset(ctx context.Context) error
}

// UserInputError reports an input that could not be coerced. The field
// keeps its previous value.
type UserInputError struct {
	Param string
	Text  string
}

func (e *UserInputError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid number, keeping previous value", e.Param, e.Text)
}

// Mirror holds the last authoritative config and the inputs bound to it.
type Mirror struct {
	mu       sync.Mutex
	remote   ConfigRemote
	resetter Resetter
	bindings Bindings
	current  model.Config
}

// New binds every parameter to an input. It fails if any parameter is
// left unbound.
func New(remote ConfigRemote, resetter Resetter, bindings Bindings) (*Mirror, error) {
	for _, p := range model.Params {
		if bindings[p.Name] == nil {
			return nil, fmt.Errorf("no input bound to %q", p.Name)
		}
	}
	m := &Mirror{remote: remote, resetter: resetter, bindings: bindings}
	m.Load(model.DefaultConfig())
	return m, nil
}

// Current returns the last loaded config.
func (m *Mirror) Current() model.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Load overwrites the mirror and every bound input with cfg.
func (m *Mirror) Load(cfg model.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = cfg
	for _, p := range model.Params {
		m.bindings[p.Name].SetText(model.FormatParam(p, *p.Ref(&cfg)))
	}
}

// ReadDisplayed collects the edited values. Inputs that fail to coerce
// keep the last loaded value and are reported as joined UserInputErrors.
func (m *Mirror) ReadDisplayed() (model.Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg := m.current
	var errs []error
	for _, p := range model.Params {
		text := m.bindings[p.Name].Text()
		v, ok := Coerce(p.Kind, text)
		if !ok {
			errs = append(errs, &UserInputError{Param: p.Name, Text: text})
			continue
		}
		*p.Ref(&cfg) = v
	}
	return cfg, errors.Join(errs...)
}

// Coerce parses text for a parameter kind. Surrounding space is ignored;
// Int accepts integers and truncates finite reals toward zero; empty,
// non-numeric, NaN and infinite input is rejected.
func Coerce(kind model.Kind, text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if kind == model.Int {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return float64(n), true
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if kind == model.Int {
		v = math.Trunc(v)
	}
	return v, true
}

// Apply submits the displayed config, adopts whatever the service
// returns and resets the simulation. Invalid inputs do not block the
// apply: they keep their previous value and are returned once the apply
// has gone through.
func (m *Mirror) Apply(ctx context.Context) error {
	cfg, inputErr := m.ReadDisplayed()
	if inputErr != nil {
		logging.Get().Warnf("config input: %v", inputErr)
	}
	adopted, err := m.remote.SetConfig(ctx, cfg)
	if err != nil {
		logging.Get().Errorf("apply config: %v", err)
		return err
	}
	m.Load(adopted)
	if adopted != cfg {
		logging.Get().Infof("service adjusted the submitted config")
	}
	if m.resetter != nil {
		if err := m.resetter.Reset(ctx); err != nil {
			return fmt.Errorf("reset after apply: %w", err)
		}
	}
	return inputErr
}

// SavePreset writes the displayed config to path as JSON.
func (m *Mirror) SavePreset(path string) error {
	cfg, inputErr := m.ReadDisplayed()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	return inputErr
}

// LoadPreset fills the inputs from a JSON preset without applying it.
func (m *Mirror) LoadPreset(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := model.DecodeConfig(data)
	if err != nil {
		return fmt.Errorf("preset %s: %w", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range model.Params {
		m.bindings[p.Name].SetText(model.FormatParam(p, *p.Ref(&cfg)))
	}
	return nil
}
