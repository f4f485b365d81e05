package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/physarum-viewport/internal/interact"
)

const (
	panelX       = 10
	panelY       = 40
	panelWidth   = 300
	panelRowH    = 18
	panelPadding = 6
)

var (
	panelBackground = color.NRGBA{0, 0, 0, 190}
	panelSelection  = color.NRGBA{80, 80, 160, 200}
	panelText       = color.NRGBA{220, 220, 220, 255}
)

// drawPanel overlays the parameter form on screen.
func drawPanel(screen *ebiten.Image, form *interact.Form, face text.Face, cursor bool) {
	h := float32(form.Len()*panelRowH + 2*panelPadding)
	vector.DrawFilledRect(screen, panelX, panelY, panelWidth, h, panelBackground, false)
	for i := 0; i < form.Len(); i++ {
		y := float64(panelY + panelPadding + i*panelRowH)
		if i == form.Selected() {
			vector.DrawFilledRect(screen, panelX, float32(y), panelWidth, panelRowH, panelSelection, false)
		}
		label, value := form.Row(i)
		if i == form.Selected() && cursor {
			value += "_"
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(panelX+panelPadding, y+2)
		op.ColorScale.ScaleWithColor(panelText)
		text.Draw(screen, fmt.Sprintf("%-22s %s", label, value), face, op)
	}
}
