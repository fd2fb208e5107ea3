// Package offset compensates capture misalignment with a learned translation.
package offset

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/region"
)

// Corrector holds an optional pixel offset and applies it to frames.
// The offset is written by calibration and read by the tick loop.
type Corrector struct {
	mu     sync.RWMutex
	offset *model.Offset
	width  int
	height int
}

// Option configures a Corrector.
type Option func(*Corrector)

// WithOutputSize overrides the 1280x720 output size.
func WithOutputSize(w, h int) Option {
	return func(c *Corrector) {
		if w > 0 && h > 0 {
			c.width, c.height = w, h
		}
	}
}

// NewCorrector returns a Corrector with no offset.
func NewCorrector(opts ...Option) *Corrector {
	c := &Corrector{width: region.ReferenceWidth, height: region.ReferenceHeight}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOffset caches o; the last write wins.
func (c *Corrector) SetOffset(o model.Offset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = &o
}

// Offset returns the cached offset, if any.
func (c *Corrector) Offset() (model.Offset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.offset == nil {
		return model.Offset{}, false
	}
	return *c.offset, true
}

// Clear forgets the cached offset.
func (c *Corrector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = nil
}

// Apply returns frame shifted so that out(x,y) = frame(x+X, y+Y), cropped to
// the output size with black where the source has no pixels. Without a
// non-zero offset frame itself is returned.
func (c *Corrector) Apply(frame *image.RGBA) *image.RGBA {
	o, ok := c.Offset()
	if frame == nil || !ok || o.IsZero() {
		return frame
	}

	out := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	sp := frame.Bounds().Min.Add(image.Pt(o.X, o.Y))
	draw.Draw(out, out.Bounds(), frame, sp, draw.Src)
	return out
}
