package matcher_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gearscan/internal/adapters/vision/matcher"
	"github.com/okian/gearscan/internal/domain/region"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	white  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black  = color.RGBA{A: 255}
	yellow = color.RGBA{R: 170, G: 255, A: 255}
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// leftHalf returns the left half of rect as a rectangle.
func leftHalf(r region.Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W/2, r.Y+r.H)
}

func screen(level color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, region.ReferenceWidth, region.ReferenceHeight))
	fill(img, img.Bounds(), black)
	fill(img, leftHalf(region.MoneyMarker), white)
	fill(img, leftHalf(region.LevelMarker), level)
	fill(img, leftHalf(region.GearsMarker), white)
	return img
}

func TestToHSV(t *testing.T) {
	Convey("Colours convert onto the 0..179 hue scale", t, func() {
		So(matcher.ToHSV(white), ShouldResemble, matcher.HSV{H: 0, S: 0, V: 255})
		So(matcher.ToHSV(black), ShouldResemble, matcher.HSV{})
		So(matcher.ToHSV(yellow).H, ShouldEqual, 40)
		So(matcher.ToHSV(color.RGBA{R: 255, A: 255}), ShouldResemble, matcher.HSV{H: 0, S: 255, V: 255})
		So(matcher.ToHSV(color.RGBA{B: 255, A: 255}).H, ShouldEqual, 120)
	})

	Convey("Filters classify pixels", t, func() {
		So(matcher.White().Keep(white), ShouldBeTrue)
		So(matcher.White().Keep(yellow), ShouldBeFalse)
		So(matcher.Black().Keep(black), ShouldBeTrue)
		So(matcher.Black().Keep(color.RGBA{R: 60, G: 60, B: 60, A: 255}), ShouldBeFalse)
		So(matcher.BlackWithin(matcher.Span{Min: 0, Max: 64}).Keep(color.RGBA{R: 60, G: 60, B: 60, A: 255}), ShouldBeTrue)
		So(matcher.HueRange(matcher.Span{Min: 35, Max: 45}, matcher.Span{Min: 200, Max: 255}).Keep(yellow), ShouldBeTrue)
	})
}

func TestMask(t *testing.T) {
	Convey("Given a strip of white, yellow and black pixels", t, func() {
		img := image.NewRGBA(image.Rect(0, 0, 3, 2))
		fill(img, image.Rect(0, 0, 1, 2), white)
		fill(img, image.Rect(1, 0, 2, 2), yellow)
		fill(img, image.Rect(2, 0, 3, 2), black)

		Convey("White keeps the first column only", func() {
			mask, n := matcher.Mask(img, matcher.White())
			So(n, ShouldEqual, 2)
			So(mask, ShouldResemble, []bool{true, false, false, true, false, false})
		})

		Convey("A hue range keeps the yellow column", func() {
			mask, n := matcher.Mask(img, matcher.HueRange(matcher.Span{Min: 35, Max: 45}, matcher.Span{Min: 200, Max: 255}))
			So(n, ShouldEqual, 2)
			So(mask, ShouldResemble, []bool{false, true, false, false, true, false})
		})

		Convey("A nil image yields an empty mask", func() {
			mask, n := matcher.Mask(nil, matcher.Black())
			So(mask, ShouldBeEmpty)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestMatcher(t *testing.T) {
	Convey("Given a matcher built from a reference screen", t, func() {
		ref := screen(yellow)
		m, err := matcher.New(region.MoneyMarker, ref, matcher.WithBackground(matcher.Black()), matcher.WithLabel("money"))
		So(err, ShouldBeNil)
		So(m.Label(), ShouldEqual, "money")

		Convey("The reference itself matches perfectly", func() {
			agreement, orig := m.Score(ref)
			So(agreement, ShouldEqual, 1.0)
			So(orig, ShouldEqual, 0.0)
			So(m.Match(ref), ShouldBeTrue)
		})

		Convey("A blank screen does not match", func() {
			blank := screen(yellow)
			fill(blank, blank.Bounds(), black)
			So(m.Match(blank), ShouldBeFalse)
		})

		Convey("A washed-out screen fails on stray foreground", func() {
			washed := screen(yellow)
			fill(washed, washed.Bounds(), white)
			agreement, orig := m.Score(washed)
			So(agreement, ShouldEqual, 0.5)
			So(orig, ShouldBeGreaterThan, matcher.DefaultOrigThreshold)
			So(m.Match(washed), ShouldBeFalse)
		})

		Convey("Nil frames never match", func() {
			So(m.Match(nil), ShouldBeFalse)
		})
	})

	Convey("Construction fails without usable input", t, func() {
		_, err := matcher.New(region.Rect{}, screen(yellow))
		So(errors.Is(err, matcher.ErrEmptyRect), ShouldBeTrue)

		_, err = matcher.New(region.MoneyMarker, nil)
		So(errors.Is(err, matcher.ErrNoReference), ShouldBeTrue)

		blank := image.NewRGBA(image.Rect(0, 0, region.ReferenceWidth, region.ReferenceHeight))
		_, err = matcher.New(region.MoneyMarker, blank)
		So(errors.Is(err, matcher.ErrEmptyMask), ShouldBeTrue)
	})
}

func TestResultGears(t *testing.T) {
	Convey("Given the result gears presence matcher", t, func() {
		p, err := matcher.ResultGears(screen(yellow))
		So(err, ShouldBeNil)

		Convey("All three captions visible matches", func() {
			So(p.Match(screen(yellow)), ShouldBeTrue)
		})

		Convey("A level caption in the wrong colour does not match", func() {
			So(p.Match(screen(white)), ShouldBeFalse)
		})
	})

	Convey("A reference without the level caption is rejected", t, func() {
		_, err := matcher.ResultGears(screen(white))
		So(errors.Is(err, matcher.ErrEmptyMask), ShouldBeTrue)
	})

	Convey("The reference can be loaded from a PNG file", t, func() {
		path := filepath.Join(t.TempDir(), "result_gears.png")
		f, err := os.Create(path)
		So(err, ShouldBeNil)
		So(png.Encode(f, screen(yellow)), ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		p, err := matcher.LoadResultGears(path)
		So(err, ShouldBeNil)
		So(p.Match(screen(yellow)), ShouldBeTrue)

		_, err = matcher.LoadResultGears(filepath.Join(t.TempDir(), "missing.png"))
		So(err, ShouldNotBeNil)
	})
}
