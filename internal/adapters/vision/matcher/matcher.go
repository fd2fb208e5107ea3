// Package matcher decides whether a fixed marker is on screen by comparing a
// filtered crop of the frame with a mask built from a reference screenshot.
package matcher

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/okian/gearscan/internal/domain/region"
	"github.com/okian/gearscan/pkg/logger"
)

// Default thresholds.
const (
	DefaultThreshold     = 0.90
	DefaultOrigThreshold = 0.20
)

// Matcher is a reference-mask matcher over one rectangle of the frame.
type Matcher struct {
	rect          region.Rect
	mask          []bool
	maskCount     int
	fg            Filter
	bg            *Filter
	threshold     float64
	origThreshold float64
	label         string
	logger        logger.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithForeground sets the filter that marks marker pixels. Defaults to White.
func WithForeground(f Filter) Option {
	return func(m *Matcher) { m.fg = f }
}

// WithBackground sets the filter marker-free pixels must satisfy. Without one
// any non-foreground pixel counts as background.
func WithBackground(f Filter) Option {
	return func(m *Matcher) { m.bg = &f }
}

// WithThreshold sets the minimum agreement ratio with the mask.
func WithThreshold(v float64) Option {
	return func(m *Matcher) { m.threshold = v }
}

// WithOrigThreshold sets the maximum ratio of foreground pixels found outside
// the mask, relative to the mask size.
func WithOrigThreshold(v float64) Option {
	return func(m *Matcher) { m.origThreshold = v }
}

// WithLabel names the matcher in logs.
func WithLabel(label string) Option {
	return func(m *Matcher) { m.label = label }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// New builds a matcher for rect. The mask is the foreground filter applied to
// the same rectangle of reference.
func New(rect region.Rect, reference *image.RGBA, opts ...Option) (*Matcher, error) {
	if rect.W <= 0 || rect.H <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyRect, rect.W, rect.H)
	}
	if reference == nil {
		return nil, ErrNoReference
	}
	m := &Matcher{
		rect:          rect,
		fg:            White(),
		threshold:     DefaultThreshold,
		origThreshold: DefaultOrigThreshold,
		logger:        logger.GetOrNop().Named("matcher"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.mask, m.maskCount = Mask(region.Crop(reference, rect), m.fg)
	if m.maskCount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMask, m.label)
	}
	return m, nil
}

// Score returns the agreement with the mask, averaged over marker and
// background pixels, and the ratio of stray foreground pixels outside the
// mask relative to the mask size.
func (m *Matcher) Score(frame *image.RGBA) (agreement, orig float64) {
	crop := region.Crop(frame, m.rect)
	fg, _ := Mask(crop, m.fg)
	var bg []bool
	if m.bg != nil {
		bg, _ = Mask(crop, *m.bg)
	}
	hits, quiet, stray := 0, 0, 0
	for i, ref := range m.mask {
		switch {
		case ref:
			if fg[i] {
				hits++
			}
		case fg[i]:
			stray++
		case bg == nil || bg[i]:
			quiet++
		}
	}
	fgRatio := float64(hits) / float64(m.maskCount)
	bgRatio := 1.0
	if rest := len(m.mask) - m.maskCount; rest > 0 {
		bgRatio = float64(quiet) / float64(rest)
	}
	return (fgRatio + bgRatio) / 2, float64(stray) / float64(m.maskCount)
}

// Match implements recognize.PresenceMatcher.
func (m *Matcher) Match(frame *image.RGBA) bool {
	if frame == nil {
		return false
	}
	agreement, orig := m.Score(frame)
	matched := agreement >= m.threshold && orig <= m.origThreshold
	m.logger.Debug(context.Background(), "marker score",
		logger.String("label", m.label),
		logger.Float64("agreement", agreement),
		logger.Float64("orig", orig),
		logger.Bool("matched", matched),
	)
	return matched
}

// Label returns the configured label.
func (m *Matcher) Label() string { return m.label }

// LoadImage decodes a PNG or JPEG file into RGBA.
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode reference %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}
