package mirror

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/olivierh59500/physarum-viewport/internal/model"
	"github.com/olivierh59500/physarum-viewport/internal/remote"
	"github.com/olivierh59500/physarum-viewport/internal/stub"
)

type textField struct{ text string }

func (f *textField) Text() string     { return f.text }
func (f *textField) SetText(s string) { f.text = s }

func newBindings() (Bindings, map[string]*textField) {
	b := Bindings{}
	fields := map[string]*textField{}
	for _, p := range model.Params {
		f := &textField{}
		b[p.Name] = f
		fields[p.Name] = f
	}
	return b, fields
}

type echoRemote struct {
	sent  []model.Config
	clamp func(model.Config) model.Config
	err   error
}

func (r *echoRemote) SetConfig(ctx context.Context, cfg model.Config) (model.Config, error) {
	r.sent = append(r.sent, cfg)
	if r.err != nil {
		return model.Config{}, r.err
	}
	if r.clamp != nil {
		return r.clamp(cfg), nil
	}
	return cfg, nil
}

type countingResetter struct{ resets int }

func (r *countingResetter) Reset(ctx context.Context) error {
	r.resets++
	return nil
}

func TestNewRequiresEveryBinding(t *testing.T) {
	b, _ := newBindings()
	delete(b, "turn_speed")
	if _, err := New(&echoRemote{}, nil, b); err == nil {
		t.Fatal("expected error for missing binding")
	}
}

func TestLoadWritesEveryInput(t *testing.T) {
	b, fields := newBindings()
	m, err := New(&echoRemote{}, nil, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.NumAgents = 1234
	cfg.TrailEvaporationRate = 0.05
	m.Load(cfg)
	if fields["num_agents"].text != "1234" || fields["trail_evaporation_rate"].text != "0.05" {
		t.Fatalf("inputs not updated: %q %q", fields["num_agents"].text, fields["trail_evaporation_rate"].text)
	}
	got, err := m.ReadDisplayed()
	if err != nil || got != cfg {
		t.Fatalf("read back %+v err=%v", got, err)
	}
}

func TestCoercePolicy(t *testing.T) {
	cases := []struct {
		kind model.Kind
		text string
		want float64
		ok   bool
	}{
		{model.Int, "42", 42, true},
		{model.Int, " 7 ", 7, true},
		{model.Int, "2.9", 2, true},
		{model.Int, "-2.9", -2, true},
		{model.Int, "1e3", 1000, true},
		{model.Int, "12abc", 0, false},
		{model.Real, "0.25", 0.25, true},
		{model.Real, ".5", 0.5, true},
		{model.Real, "", 0, false},
		{model.Real, "NaN", 0, false},
		{model.Real, "inf", 0, false},
		{model.Real, "1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, ok := Coerce(tc.kind, tc.text)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("Coerce(%v, %q) = %v,%v want %v,%v", tc.kind, tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplyKeepsPreviousValueForMalformedInput(t *testing.T) {
	b, fields := newBindings()
	r := &echoRemote{}
	resets := &countingResetter{}
	m, _ := New(r, resets, b)

	fields["num_agents"].text = "lots"
	fields["agent_speed"].text = "2.5"

	err := m.Apply(context.Background())
	var inputErr *UserInputError
	if !errors.As(err, &inputErr) || inputErr.Param != "num_agents" {
		t.Fatalf("expected UserInputError for num_agents, got %v", err)
	}
	if len(r.sent) != 1 {
		t.Fatalf("apply should still submit, sent %d", len(r.sent))
	}
	sent := r.sent[0]
	if sent.NumAgents != model.DefaultConfig().NumAgents || sent.AgentSpeed != 2.5 {
		t.Fatalf("unexpected submitted config %+v", sent)
	}
	if fields["num_agents"].text != "5000" {
		t.Fatalf("malformed input should be replaced by the adopted value, got %q", fields["num_agents"].text)
	}
	if resets.resets != 1 {
		t.Fatalf("expected one reset, got %d", resets.resets)
	}
}

func TestApplyAdoptsServiceNormalization(t *testing.T) {
	b, fields := newBindings()
	r := &echoRemote{clamp: func(c model.Config) model.Config {
		c.SensorAngle = 90
		return c
	}}
	m, _ := New(r, &countingResetter{}, b)
	fields["sensor_angle"].text = "400"
	if err := m.Apply(context.Background()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Current().SensorAngle != 90 || fields["sensor_angle"].text != "90" {
		t.Fatalf("service value not adopted: %v %q", m.Current().SensorAngle, fields["sensor_angle"].text)
	}
}

func TestApplyFailureLeavesMirrorAndSkipsReset(t *testing.T) {
	b, fields := newBindings()
	boom := errors.New("service down")
	resets := &countingResetter{}
	m, _ := New(&echoRemote{err: boom}, resets, b)
	fields["food_quantity"].text = "3"

	if err := m.Apply(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if resets.resets != 0 {
		t.Fatal("reset must not run after a failed apply")
	}
	if m.Current().FoodQuantity != model.DefaultConfig().FoodQuantity {
		t.Fatal("mirror must keep the last authoritative config")
	}
	if fields["food_quantity"].text != "3" {
		t.Fatal("edited input should survive a failed apply")
	}
}

func TestApplyThenGetConfigAgainstStub(t *testing.T) {
	srv := stub.New(40, 30, 1)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	client := remote.New(ts.URL, ts.Client())

	b, fields := newBindings()
	m, _ := New(client, nil, b)
	fields["num_agents"].text = "999999"
	fields["turn_speed"].text = "0.75"

	if err := m.Apply(context.Background()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := client.Config(context.Background())
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if got != m.Current() {
		t.Fatalf("service %+v differs from mirror %+v", got, m.Current())
	}
	if got.NumAgents != 100000 || got.TurnSpeed != 0.75 {
		t.Fatalf("unexpected adopted config %+v", got)
	}
}

func TestPresetRoundTrip(t *testing.T) {
	b, fields := newBindings()
	m, _ := New(&echoRemote{}, nil, b)
	fields["nucleus_size"].text = "40"
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := m.SavePreset(path); err != nil {
		t.Fatalf("save preset: %v", err)
	}

	fields["nucleus_size"].text = "10"
	if err := m.LoadPreset(path); err != nil {
		t.Fatalf("load preset: %v", err)
	}
	if fields["nucleus_size"].text != "40" {
		t.Fatalf("preset not restored, got %q", fields["nucleus_size"].text)
	}
	if m.Current().NucleusSize != model.DefaultConfig().NucleusSize {
		t.Fatal("loading a preset must not change the authoritative copy")
	}
}
