package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/remote"
	"github.com/olivierh59500/physarum-viewport/internal/snapshot"
)

// Options configures the viewport.
type Options struct {
	Server         string
	Width, Height  int
	Scale          float64
	TPS            int
	FetchTimeout   time.Duration
	RequestTimeout time.Duration
	Preset         string
	Snapshot       string
	SnapshotReset  bool
	LogLevel       string
}

// DefaultOptions matches the service's default 800x600 raster.
func DefaultOptions() Options {
	return Options{
		Server:         "http://127.0.0.1:5000",
		Width:          800,
		Height:         600,
		Scale:          1,
		TPS:            60,
		FetchTimeout:   2 * time.Second,
		RequestTimeout: 5 * time.Second,
		Preset:         "slime_preset.json",
		LogLevel:       "info",
	}
}

func parseOptions(args []string) (Options, error) {
	opts := DefaultOptions()
	fs := flag.NewFlagSet("physarum-viewport", flag.ContinueOnError)
	fs.StringVar(&opts.Server, "server", opts.Server, "simulation service base URL")
	fs.IntVar(&opts.Width, "width", opts.Width, "raster width in pixels")
	fs.IntVar(&opts.Height, "height", opts.Height, "raster height in pixels")
	fs.Float64Var(&opts.Scale, "scale", opts.Scale, "initial window scale; also resamples -snapshot output")
	fs.IntVar(&opts.TPS, "tps", opts.TPS, "input ticks per second")
	fs.DurationVar(&opts.FetchTimeout, "fetch-timeout", opts.FetchTimeout, "bound on a single frame fetch")
	fs.DurationVar(&opts.RequestTimeout, "request-timeout", opts.RequestTimeout, "bound on control requests")
	fs.StringVar(&opts.Preset, "preset", opts.Preset, "parameter preset file for save/load keys")
	fs.StringVar(&opts.Snapshot, "snapshot", "", "render one frame to this PNG and exit")
	fs.BoolVar(&opts.SnapshotReset, "snapshot-reset", false, "reset the simulation before taking the snapshot")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "error, warn, info or debug")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return opts, fmt.Errorf("raster size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.Scale <= 0 {
		return opts, fmt.Errorf("scale must be positive, got %v", opts.Scale)
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.Get().SetLevel(level)

	client := remote.New(opts.Server, &http.Client{})

	if opts.Snapshot != "" {
		ctx, cancel := context.WithTimeout(context.Background(), opts.RequestTimeout+opts.FetchTimeout)
		defer cancel()
		stats, err := snapshot.Write(ctx, client, opts.Snapshot, opts.SnapshotReset, opts.Scale)
		if err != nil {
			log.Fatal(err)
		}
		logging.Get().Infof("snapshot %s: %s", opts.Snapshot, stats)
		return
	}

	vp, err := NewViewport(client, opts)
	if err != nil {
		log.Fatal(err)
	}
	go vp.Bootstrap(context.Background())

	ebiten.SetWindowSize(int(float64(opts.Width)*opts.Scale), int(float64(opts.Height)*opts.Scale))
	ebiten.SetWindowTitle("Physarum Viewport")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(opts.TPS)

	// Run the game loop
	if err := ebiten.RunGame(vp); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}
	vp.Close()
}
