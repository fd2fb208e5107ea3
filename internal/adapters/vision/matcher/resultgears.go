package matcher

import (
	"fmt"
	"image"

	"github.com/okian/gearscan/internal/domain/recognize"
	"github.com/okian/gearscan/internal/domain/region"
)

// ResultGears builds the presence matcher of the result gears screen: the
// money, level and gears captions must all be visible.
func ResultGears(reference *image.RGBA, opts ...Option) (recognize.PresenceMatcher, error) {
	specs := []struct {
		rect  region.Rect
		label string
		opts  []Option
	}{
		{region.MoneyMarker, "result_gears/money", []Option{
			WithForeground(White()),
			WithBackground(BlackWithin(Span{0, 64})),
		}},
		{region.LevelMarker, "result_gears/level", []Option{
			WithForeground(HueRange(Span{35, 45}, Span{200, 255})),
			WithBackground(Black()),
		}},
		{region.GearsMarker, "result_gears/gears", []Option{
			WithForeground(White()),
			WithBackground(Black()),
		}},
	}

	matchers := make([]recognize.PresenceMatcher, 0, len(specs))
	for _, s := range specs {
		all := append([]Option{WithLabel(s.label)}, s.opts...)
		m, err := New(s.rect, reference, append(all, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.label, err)
		}
		matchers = append(matchers, m)
	}
	return recognize.All(matchers...), nil
}

// LoadResultGears loads the reference screenshot at path and builds the
// result gears presence matcher from it.
func LoadResultGears(path string, opts ...Option) (recognize.PresenceMatcher, error) {
	ref, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return ResultGears(ref, opts...)
}
