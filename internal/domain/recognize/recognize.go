// Package recognize declares the recognizer capabilities the analyzer and the
// scenes depend on. Implementations live under internal/adapters/vision.
package recognize

import (
	"image"
)

// PresenceMatcher decides whether a frame shows a fixed on-screen marker.
type PresenceMatcher interface {
	Match(frame *image.RGBA) bool
}

// NumberRecognizer reads digits and short numeric labels from a region.
type NumberRecognizer interface {
	// MatchDigits reads a non-negative integer made only of digits.
	MatchDigits(region *image.RGBA, opts ...DigitOption) (int, error)

	// Match reads the region as free text made of the known glyphs,
	// e.g. "1200/3000".
	Match(region *image.RGBA) (string, error)
}

// LabelClassifier maps a region onto one of its trained labels.
type LabelClassifier interface {
	Predict(region *image.RGBA) (label string, distance float64, err error)
	Trained() bool
}

// MatcherFunc adapts a function to PresenceMatcher.
type MatcherFunc func(frame *image.RGBA) bool

// Match calls f.
func (f MatcherFunc) Match(frame *image.RGBA) bool { return f(frame) }

// All matches when every matcher matches; it short-circuits on the first miss.
func All(matchers ...PresenceMatcher) PresenceMatcher {
	return MatcherFunc(func(frame *image.RGBA) bool {
		if frame == nil {
			return false
		}
		for _, m := range matchers {
			if !m.Match(frame) {
				return false
			}
		}
		return true
	})
}
