// Command slimestub serves a stand-in simulation API for developing the
// viewport without the real service.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/stub"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	width := flag.Int("width", 800, "raster width")
	height := flag.Int("height", 600, "raster height")
	seed := flag.Int64("seed", time.Now().UnixNano(), "noise and food seed")
	level := flag.String("log-level", "info", "error, warn, info or debug")
	flag.Parse()

	lvl, err := logging.ParseLevel(*level)
	if err != nil {
		log.Fatal(err)
	}
	logging.Get().SetLevel(lvl)

	srv := stub.New(*width, *height, *seed)
	defer srv.Close()

	logging.Get().Infof("stub service on %s (%dx%d, seed %d)", *addr, *width, *height, *seed)
	if err := http.ListenAndServe(*addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
