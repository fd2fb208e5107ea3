// Package gearpower classifies gear ability icons.
package gearpower

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/okian/gearscan/internal/adapters/vision/knn"
	"github.com/okian/gearscan/internal/adapters/vision/matcher"
	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/pkg/logger"
)

// Unknown labels an icon whose sample directory is not a known ability.
const Unknown = "unknown"

var abilities = map[string]string{
	"bomb_range_up":       "Bomb Range Up",
	"bomb_sniffer":        "Bomb Sniffer",
	"cold_blooded":        "Cold Blooded",
	"comeback":            "Comeback",
	"damage_up":           "Damage Up",
	"defense_up":          "Defense Up",
	"haunt":               "Haunt",
	"ink_recovery_up":     "Ink Recovery Up",
	"ink_resistance_up":   "Ink Resistance Up",
	"ink_saver_main":      "Ink Saver (Main)",
	"ink_saver_sub":       "Ink Saver (Sub)",
	"last_ditch_effort":   "Last-Ditch Effort",
	"locked":              "Locked",
	"ninja_squid":         "Ninja Squid",
	"opening_gambit":      "Opening Gambit",
	"quick_respawn":       "Quick Respawn",
	"quick_super_jump":    "Quick Super Jump",
	"recon":               "Recon",
	"run_speed_up":        "Run Speed Up",
	"special_charge_up":   "Special Charge Up",
	"special_duration_up": "Special Duration Up",
	"special_saver":       "Special Saver",
	"stealth_jump":        "Stealth Jump",
	"swim_speed_up":       "Swim Speed Up",
	"tenacity":            "Tenacity",
}

// Known reports whether label is an ability id.
func Known(label string) bool {
	_, ok := abilities[label]
	return ok
}

// DisplayName returns the human readable name of an ability id, or the id
// itself when it is not known.
func DisplayName(label string) string {
	if name, ok := abilities[label]; ok {
		return name
	}
	return label
}

// Classifier implements recognize.LabelClassifier for ability icons. Icons
// are reduced to their bright strokes before the nearest-neighbour lookup.
type Classifier struct {
	knn    *knn.Classifier
	fg     matcher.Filter
	logger logger.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithKNN replaces the underlying nearest-neighbour classifier.
func WithKNN(c *knn.Classifier) Option {
	return func(g *Classifier) {
		if c != nil {
			g.knn = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Classifier) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns an untrained classifier.
func New(opts ...Option) *Classifier {
	g := &Classifier{
		knn:    knn.New(knn.WithSize(24, 24), knn.WithK(3)),
		fg:     matcher.WhiteWithin(matcher.Span{Min: 0, Max: 96}, matcher.Span{Min: 160, Max: 255}),
		logger: logger.GetOrNop().Named("gearpower"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Normalize returns icon reduced to white strokes on black.
func (g *Classifier) Normalize(icon image.Image) *image.RGBA {
	b := icon.Bounds()
	src, ok := icon.(*image.RGBA)
	if !ok {
		src = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(src, src.Bounds(), icon, b.Min, draw.Src)
	}
	mask, _ := matcher.Mask(src, g.fg)
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i, on := range mask {
		px := color.RGBA{A: 255}
		if on {
			px = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		out.SetRGBA(i%b.Dx(), i/b.Dx(), px)
	}
	return out
}

// Add stores icon as an example of ability label.
func (g *Classifier) Add(label string, icon image.Image) {
	g.knn.Add(label, g.Normalize(icon))
}

// Trained implements recognize.LabelClassifier.
func (g *Classifier) Trained() bool { return g.knn.Trained() }

// Predict implements recognize.LabelClassifier.
func (g *Classifier) Predict(icon *image.RGBA) (string, float64, error) {
	if icon == nil || icon.Bounds().Empty() {
		return "", 0, recognize.ErrNotRecognized
	}
	return g.knn.Predict(g.Normalize(icon))
}

// LoadDir trains from one sub-directory per ability id. Directories that are
// not ability ids are loaded under Unknown.
func (g *Classifier) LoadDir(dir string) (int, error) {
	warned := make(map[string]bool)
	return knn.WalkSamples(dir, func(label string, icon image.Image) {
		if !Known(label) {
			if !warned[label] {
				warned[label] = true
				g.logger.Warn(context.Background(), "unknown ability samples", logger.String("dir", label))
			}
			label = Unknown
		}
		g.Add(label, icon)
	})
}

// Load builds a trained classifier from dir.
func Load(dir string, opts ...Option) (*Classifier, error) {
	g := New(opts...)
	n, err := g.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no ability samples in %s", recognize.ErrUntrained, dir)
	}
	return g, nil
}
