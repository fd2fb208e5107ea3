package gearpower_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gearscan/internal/adapters/vision/gearpower"
	"github.com/okian/gearscan/internal/domain/recognize"
	. "github.com/smartystreets/goconvey/convey"
)

var stroke = color.RGBA{R: 250, G: 250, B: 250, A: 255}

// icon paints a 36x36 icon on bg with a horizontal or vertical stroke.
func icon(bg color.RGBA, horizontal bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 36, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 36; x++ {
			c := bg
			if horizontal && y >= 14 && y < 22 || !horizontal && x >= 14 && x < 22 {
				c = stroke
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	blue = color.RGBA{R: 30, G: 60, B: 200, A: 255}
	red  = color.RGBA{R: 120, G: 10, B: 10, A: 255}
)

func TestClassifier(t *testing.T) {
	Convey("Given a classifier trained on two icons", t, func() {
		g := gearpower.New()
		So(g.Trained(), ShouldBeFalse)
		g.Add("run_speed_up", icon(blue, true))
		g.Add("ink_saver_main", icon(blue, false))

		Convey("Then the background colour does not affect the prediction", func() {
			label, dist, err := g.Predict(icon(red, true))
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "run_speed_up")
			So(dist, ShouldEqual, 0.0)

			label, _, err = g.Predict(icon(red, false))
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "ink_saver_main")
		})

		Convey("Then empty icons are not recognized", func() {
			_, _, err := g.Predict(nil)
			So(errors.Is(err, recognize.ErrNotRecognized), ShouldBeTrue)
		})
	})

	Convey("Normalize keeps only the bright strokes", t, func() {
		out := gearpower.New().Normalize(icon(blue, true))
		So(out.RGBAAt(0, 0), ShouldResemble, color.RGBA{A: 255})
		So(out.RGBAAt(0, 15), ShouldResemble, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	})

	Convey("Ability ids have display names", t, func() {
		So(gearpower.Known("swim_speed_up"), ShouldBeTrue)
		So(gearpower.DisplayName("ink_saver_sub"), ShouldEqual, "Ink Saver (Sub)")
		So(gearpower.Known("turbo"), ShouldBeFalse)
		So(gearpower.DisplayName("turbo"), ShouldEqual, "turbo")
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a sample tree", t, func() {
		dir := t.TempDir()
		save := func(label string, img image.Image) {
			So(os.MkdirAll(filepath.Join(dir, label), 0o755), ShouldBeNil)
			f, err := os.Create(filepath.Join(dir, label, "0.png"))
			So(err, ShouldBeNil)
			So(png.Encode(f, img), ShouldBeNil)
			So(f.Close(), ShouldBeNil)
		}
		save("run_speed_up", icon(blue, true))
		save("mystery", icon(blue, false))

		g, err := gearpower.Load(dir)
		So(err, ShouldBeNil)

		Convey("Then unknown directories train the unknown label", func() {
			label, _, err := g.Predict(icon(red, false))
			So(err, ShouldBeNil)
			So(label, ShouldEqual, gearpower.Unknown)
		})
	})

	Convey("An empty tree is untrained", t, func() {
		_, err := gearpower.Load(t.TempDir())
		So(errors.Is(err, recognize.ErrUntrained), ShouldBeTrue)
	})
}
