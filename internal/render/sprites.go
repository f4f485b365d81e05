package render

import "image/color"

// MaxSprites bounds a SpriteCache. Food and nucleus glows need two
// entries per config; the rest of the room absorbs nucleus size changes.
const MaxSprites = 32

type spriteKey struct {
	r0, r1 float64
	c      color.NRGBA
}

// SpriteCache memoizes glow sprites of any image type. When full it is
// emptied before the next insert, so a service that changes radii every
// frame cannot grow it without bound.
type SpriteCache[T any] struct {
	limit   int
	build   func(r0, r1 float64, c color.NRGBA) T
	sprites map[spriteKey]T
}

func NewSpriteCache[T any](limit int, build func(r0, r1 float64, c color.NRGBA) T) *SpriteCache[T] {
	if limit < 1 {
		limit = 1
	}
	return &SpriteCache[T]{limit: limit, build: build, sprites: make(map[spriteKey]T)}
}

// Get returns the sprite for a glow, building it on a miss.
func (sc *SpriteCache[T]) Get(r0, r1 float64, c color.NRGBA) T {
	key := spriteKey{r0, r1, c}
	if s, ok := sc.sprites[key]; ok {
		return s
	}
	if len(sc.sprites) >= sc.limit {
		clear(sc.sprites)
	}
	s := sc.build(r0, r1, c)
	sc.sprites[key] = s
	return s
}

func (sc *SpriteCache[T]) Len() int { return len(sc.sprites) }
