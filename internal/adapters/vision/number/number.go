// Package number reads short runs of glyphs, such as cash, level and
// experience values, by segmenting bright columns and classifying each glyph.
package number

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/okian/gearscan/internal/adapters/vision/knn"
	"github.com/okian/gearscan/internal/adapters/vision/matcher"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
)

// Glyph is one segmented character.
type Glyph struct {
	Bounds image.Rectangle
	Image  *image.RGBA
}

// Recognizer implements recognize.NumberRecognizer.
type Recognizer struct {
	glyphs recognize.LabelClassifier
	fg     matcher.Filter
	logger logger.Logger
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithForeground sets the filter that marks glyph pixels.
func WithForeground(f matcher.Filter) Option {
	return func(r *Recognizer) { r.fg = f }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Recognizer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a recognizer classifying glyphs with glyphs.
func New(glyphs recognize.LabelClassifier, opts ...Option) *Recognizer {
	r := &Recognizer{
		glyphs: glyphs,
		fg:     matcher.WhiteWithin(matcher.Span{Min: 0, Max: 64}, matcher.Span{Min: 180, Max: 255}),
		logger: logger.GetOrNop().Named("number"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load builds a recognizer from a sample tree readable by knn.LoadDir.
func Load(dir string, opts ...Option) (*Recognizer, error) {
	c := knn.New()
	n, err := c.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no glyph samples in %s", recognize.ErrUntrained, dir)
	}
	return New(c, opts...), nil
}

// Segment splits region into glyphs left to right. Blobs whose size falls
// outside the given ranges are dropped.
func (r *Recognizer) Segment(region *image.RGBA, width, height recognize.Range) []Glyph {
	if region == nil {
		return nil
	}
	b := region.Bounds()
	mask, n := matcher.Mask(region, r.fg)
	if n == 0 {
		return nil
	}
	cols := make([]bool, b.Dx())
	for i, on := range mask {
		if on {
			cols[i%b.Dx()] = true
		}
	}

	var out []Glyph
	for x := 0; x < len(cols); {
		if !cols[x] {
			x++
			continue
		}
		x0 := x
		for x < len(cols) && cols[x] {
			x++
		}
		g, ok := glyph(mask, b.Dx(), b.Dy(), x0, x)
		if !ok {
			continue
		}
		if !width.Contains(g.Bounds.Dx()) || !height.Contains(g.Bounds.Dy()) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// glyph crops columns [x0,x1) of mask to their vertical extent.
func glyph(mask []bool, w, h, x0, x1 int) (Glyph, bool) {
	y0, y1 := -1, -1
	for y := 0; y < h; y++ {
		for x := x0; x < x1; x++ {
			if mask[y*w+x] {
				if y0 < 0 {
					y0 = y
				}
				y1 = y + 1
				break
			}
		}
	}
	if y0 < 0 {
		return Glyph{}, false
	}
	bounds := image.Rect(x0, y0, x1, y1)
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := color.RGBA{A: 255}
			if mask[y*w+x] {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x-x0, y-y0, c)
		}
	}
	return Glyph{Bounds: bounds, Image: img}, true
}

func (r *Recognizer) read(region *image.RGBA, width, height recognize.Range) ([]string, error) {
	if r.glyphs == nil || !r.glyphs.Trained() {
		return nil, recognize.ErrUntrained
	}
	glyphs := r.Segment(region, width, height)
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("%w: no glyphs", recognize.ErrNotRecognized)
	}
	labels := make([]string, 0, len(glyphs))
	for i, g := range glyphs {
		label, _, err := r.glyphs.Predict(g.Image)
		if err != nil {
			if errors.Is(err, recognize.ErrNotRecognized) {
				return nil, fmt.Errorf("glyph %d: %w", i, err)
			}
			return nil, fmt.Errorf("%w: glyph %d: %v", recognize.ErrNotRecognized, i, err)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// MatchDigits implements recognize.NumberRecognizer.
func (r *Recognizer) MatchDigits(region *image.RGBA, opts ...recognize.DigitOption) (int, error) {
	o := recognize.ApplyDigitOptions(opts...)
	labels, err := r.read(region, o.CharWidth, o.CharHeight)
	if err != nil {
		return 0, err
	}
	if !o.NumDigits.Contains(len(labels)) {
		return 0, fmt.Errorf("%w: %d digits, want %d..%d", recognize.ErrNotRecognized, len(labels), o.NumDigits.Min, o.NumDigits.Max)
	}
	text := strings.Join(labels, "")
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %q is not a number", recognize.ErrNotRecognized, text)
	}
	r.logger.Debug(context.Background(), "digits read", logger.String("text", text))
	return v, nil
}

// Match implements recognize.NumberRecognizer.
func (r *Recognizer) Match(region *image.RGBA) (string, error) {
	labels, err := r.read(region, recognize.Range{}, recognize.Range{})
	if err != nil {
		return "", err
	}
	return strings.Join(labels, ""), nil
}
