package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivierh59500/physarum-viewport/internal/render"
)

// surface is a render.Canvas on an ebiten image. It must only be used on
// the game goroutine.
type surface struct {
	img     *ebiten.Image
	layer   *ebiten.Image
	sprites *render.SpriteCache[*ebiten.Image]
}

func newSurface(img *ebiten.Image) *surface {
	return &surface{img: img, sprites: render.NewSpriteCache(render.MaxSprites, newGlowImage)}
}

func newGlowImage(r0, r1 float64, c color.NRGBA) *ebiten.Image {
	return ebiten.NewImageFromImage(render.GlowSprite(r0, r1, c))
}

func (s *surface) Fill(c color.Color) {
	s.img.Fill(c)
}

// DrawLayer uploads the premultiplied layer and draws it over the image.
func (s *surface) DrawLayer(layer *image.RGBA) {
	size := layer.Bounds().Size()
	if s.layer == nil || s.layer.Bounds().Size() != size {
		s.layer = ebiten.NewImage(size.X, size.Y)
	}
	s.layer.WritePixels(layer.Pix)
	s.img.DrawImage(s.layer, nil)
}

func (s *surface) FillCircle(cx, cy, r float64, c color.NRGBA) {
	vector.DrawFilledCircle(s.img, float32(cx), float32(cy), float32(r), c, true)
}

// RadialGlow stamps a cached sprite; glows repeat with the same radii
// and colour every frame.
func (s *surface) RadialGlow(cx, cy, r0, r1 float64, c color.NRGBA) {
	sprite := s.sprites.Get(r0, r1, c)
	half := float64(sprite.Bounds().Dx()) / 2
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(cx-half, cy-half)
	s.img.DrawImage(sprite, op)
}
