package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/olivierh59500/physarum-viewport/internal/interact"
	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/mirror"
	"github.com/olivierh59500/physarum-viewport/internal/model"
	"github.com/olivierh59500/physarum-viewport/internal/present"
	"github.com/olivierh59500/physarum-viewport/internal/remote"
	"github.com/olivierh59500/physarum-viewport/internal/render"
	"github.com/olivierh59500/physarum-viewport/internal/scheduler"
)

const helpText = "SPACE start/stop  R reset  TAB panel  ENTER apply  S/L save/load preset  ESC quit"

var (
	hudText    = color.NRGBA{255, 255, 255, 255}
	statusText = color.NRGBA{255, 110, 90, 255}
)

// Viewport is the ebiten game: it shows the frames the scheduler fetches,
// turns clicks into food and edits the service config.
type Viewport struct {
	opts   Options
	client *remote.Client
	sched  *scheduler.Scheduler
	mirror *mirror.Mirror
	form   *interact.Form

	// Written by the scheduler and request goroutines, drained by Draw.
	inbox *present.Inbox

	// Game goroutine only.
	pipeline  *render.Pipeline
	backing   *ebiten.Image
	surface   *surface
	clicks    *interact.Handler
	display   interact.Rect
	stats     model.Stats
	shownFPS  float64
	showPanel bool
	face      text.Face
	ticks     int
}

// NewViewport wires the scheduler, mirror and click handling to client.
// Nothing is requested from the service until Bootstrap.
func NewViewport(client *remote.Client, opts Options) (*Viewport, error) {
	v := &Viewport{
		opts:     opts,
		client:   client,
		form:     interact.NewForm(),
		inbox:    present.NewInbox(),
		pipeline: render.NewPipeline(),
		face:     text.NewGoXFace(basicfont.Face7x13),
	}
	v.sched = scheduler.New(client, v.inbox, v.inbox.Repaint(), opts.FetchTimeout)
	m, err := mirror.New(client, v.sched, v.form.Bindings())
	if err != nil {
		return nil, err
	}
	v.mirror = m
	v.allocate(opts.Width, opts.Height)
	return v, nil
}

// Bootstrap loads the service config into the panel and shows a fresh
// world. A failure is reported in the banner; the viewport stays usable.
func (v *Viewport) Bootstrap(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.RequestTimeout)
	defer cancel()

	if st, err := v.client.Status(ctx); err == nil {
		logging.Get().Infof("connected to %s (running=%v, fps=%.1f)", v.opts.Server, st.Running, st.FPS)
	}
	cfg, err := v.client.Config(ctx)
	if err != nil {
		v.report("load config", err)
		return
	}
	v.mirror.Load(cfg)
	if err := v.sched.Reset(ctx); err != nil {
		v.report("reset", err)
	}
}

// Close stops polling. The service keeps whatever run state it has.
func (v *Viewport) Close() {
	v.sched.Close()
}

func (v *Viewport) report(op string, err error) {
	msg := fmt.Sprintf("%s: %v", op, err)
	var inputErr *mirror.UserInputError
	if errors.As(err, &inputErr) {
		logging.Get().Warnf("%s", msg)
	} else {
		logging.Get().Errorf("%s", msg)
	}
	v.inbox.Report(msg)
}

// async runs a service request off the game goroutine.
func (v *Viewport) async(op string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.opts.RequestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			v.report(op, err)
		}
	}()
}

func (v *Viewport) allocate(w, h int) {
	v.backing = ebiten.NewImage(w, h)
	v.backing.Fill(render.Background)
	v.surface = newSurface(v.backing)
	v.clicks = interact.NewHandler(v.client, v.inbox, w, h, v.opts.RequestTimeout)
}

// Update handles input once per tick.
func (v *Viewport) Update() error {
	v.ticks++
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		v.showPanel = !v.showPanel
	}
	if v.showPanel {
		v.handlePanelInput()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if v.sched.Running() {
			v.async("stop", v.sched.Stop)
		} else {
			v.async("start", v.sched.Start)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.async("reset", v.sched.Reset)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		v.async("apply config", v.mirror.Apply)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if err := v.mirror.SavePreset(v.opts.Preset); err != nil {
			v.report("save preset", err)
		} else {
			logging.Get().Infof("saved preset to %s", v.opts.Preset)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		if err := v.mirror.LoadPreset(v.opts.Preset); err != nil {
			v.report("load preset", err)
		} else {
			logging.Get().Infof("loaded preset from %s; press ENTER to apply", v.opts.Preset)
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		clicks, display := v.clicks, v.display
		go clicks.Click(context.Background(), float64(mx), float64(my), display)
	}
	return nil
}

func (v *Viewport) handlePanelInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		v.form.Move(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		v.form.Move(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		v.form.Backspace()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) {
		v.form.Clear()
	}
	v.form.Type(ebiten.AppendInputChars(nil))
}

// Draw renders the latest frame, letterboxed, with the HUD on top, then
// lets the scheduler fetch the next one.
func (v *Viewport) Draw(screen *ebiten.Image) {
	batch := v.inbox.Drain()
	if batch.Resize(v.backing.Bounds().Dx(), v.backing.Bounds().Dy()) {
		logging.Get().Infof("raster is %dx%d", batch.Frame.Width, batch.Frame.Height)
		v.allocate(batch.Frame.Width, batch.Frame.Height)
	}
	if batch.Frame != nil {
		v.stats = v.pipeline.Render(v.surface, batch.Frame)
		v.shownFPS = batch.FPS
	}
	// Markers sit on the raster until the next frame paints over them.
	for _, m := range batch.Marks {
		v.surface.FillCircle(float64(m.X), float64(m.Y), render.ClickRadius, render.FoodColor)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	bw, bh := v.backing.Bounds().Dx(), v.backing.Bounds().Dy()
	v.display = interact.Fit(sw, sh, bw, bh)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(v.display.W/float64(bw), v.display.H/float64(bh))
	op.GeoM.Translate(v.display.X, v.display.Y)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(v.backing, op)

	v.drawHUD(screen, batch.Status)
	if v.showPanel {
		drawPanel(screen, v.form, v.face, v.ticks/30%2 == 0)
	}

	v.inbox.Signal()
}

func (v *Viewport) drawHUD(screen *ebiten.Image, status string) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(10, 8)
	op.ColorScale.ScaleWithColor(hudText)
	text.Draw(screen, fmt.Sprintf("%s | FPS: %.1f", v.stats, v.shownFPS), v.face, op)

	if status != "" {
		op := &text.DrawOptions{}
		op.GeoM.Translate(10, 24)
		op.ColorScale.ScaleWithColor(statusText)
		text.Draw(screen, status, v.face, op)
	}
	ebitenutil.DebugPrintAt(screen, helpText, 10, screen.Bounds().Dy()-20)
}

// Layout uses the window size as the screen size; Draw letterboxes the
// raster into it.
func (v *Viewport) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
