package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParamsCoverEveryConfigField(t *testing.T) {
	if len(Params) != 11 {
		t.Fatalf("expected 11 parameters, got %d", len(Params))
	}
	data, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("marshal default config: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal default config: %v", err)
	}
	seen := map[string]bool{}
	for _, p := range Params {
		if _, ok := raw[p.Name]; !ok {
			t.Fatalf("param %q has no matching json field", p.Name)
		}
		if seen[p.Name] {
			t.Fatalf("param %q listed twice", p.Name)
		}
		seen[p.Name] = true
	}
}

func TestParamRefsAreDistinct(t *testing.T) {
	var cfg Config
	for i, p := range Params {
		*p.Ref(&cfg) = float64(i + 1)
	}
	for i, p := range Params {
		if got := *p.Ref(&cfg); got != float64(i+1) {
			t.Fatalf("param %q aliased another field: got %v", p.Name, got)
		}
	}
}

func TestDecodeConfigRequiresAllNumericFields(t *testing.T) {
	data, _ := json.Marshal(DefaultConfig())
	cfg, err := DecodeConfig(data)
	if err != nil {
		t.Fatalf("decode default config: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("round trip mismatch: %+v", cfg)
	}

	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	delete(raw, "nucleus_size")
	missing, _ := json.Marshal(raw)
	if _, err := DecodeConfig(missing); err == nil || !strings.Contains(err.Error(), "nucleus_size") {
		t.Fatalf("expected missing nucleus_size error, got %v", err)
	}

	raw["nucleus_size"] = "big"
	bad, _ := json.Marshal(raw)
	if _, err := DecodeConfig(bad); err == nil || !strings.Contains(err.Error(), "not numeric") {
		t.Fatalf("expected non-numeric error, got %v", err)
	}
}

func TestFormatParam(t *testing.T) {
	intParam, realParam := Params[0], Params[1]
	if got := FormatParam(intParam, 5000); got != "5000" {
		t.Fatalf("int format = %q", got)
	}
	if got := FormatParam(intParam, 12.9); got != "12" {
		t.Fatalf("int format truncates, got %q", got)
	}
	if got := FormatParam(realParam, 0.02); got != "0.02" {
		t.Fatalf("real format = %q", got)
	}
}

func TestFrameAccessors(t *testing.T) {
	f := NewFrame(3, 2)
	f.Trail[1*3+2] = 0.75
	f.Food[0*3+1] = true
	if f.TrailAt(2, 1) != 0.75 {
		t.Fatalf("TrailAt row-major mismatch")
	}
	if !f.FoodAt(1, 0) || f.FoodAt(0, 1) {
		t.Fatalf("FoodAt row-major mismatch")
	}
}
