package knn_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/gearscan/internal/adapters/vision/knn"
	"github.com/okian/gearscan/internal/domain/recognize"
	. "github.com/smartystreets/goconvey/convey"
)

func solid(w, h int, v uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

// halves is white on the left and black on the right.
func halves(w, h int) *image.RGBA {
	img := solid(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

func TestClassifier(t *testing.T) {
	Convey("Given an empty classifier", t, func() {
		c := knn.New()

		Convey("Predict reports it is untrained", func() {
			So(c.Trained(), ShouldBeFalse)
			_, _, err := c.Predict(solid(8, 8, 255))
			So(errors.Is(err, recognize.ErrUntrained), ShouldBeTrue)
		})

		Convey("When trained with distinct patches", func() {
			c.Add("white", solid(10, 10, 255))
			c.Add("black", solid(12, 7, 0))
			c.Add("split", halves(20, 20))

			Convey("Then identical patches classify exactly regardless of size", func() {
				label, dist, err := c.Predict(solid(30, 30, 255))
				So(err, ShouldBeNil)
				So(label, ShouldEqual, "white")
				So(dist, ShouldBeLessThan, 0.1)

				label, _, err = c.Predict(halves(40, 40))
				So(err, ShouldBeNil)
				So(label, ShouldEqual, "split")
			})

			Convey("Then close patches pick the nearest label", func() {
				label, dist, err := c.Predict(solid(8, 8, 20))
				So(err, ShouldBeNil)
				So(label, ShouldEqual, "black")
				So(dist, ShouldBeGreaterThan, 0)
			})

			Convey("Then labels are listed", func() {
				So(c.Labels(), ShouldResemble, []string{"black", "split", "white"})
				So(c.Len(), ShouldEqual, 3)
			})

			Convey("Then empty patches are not recognized", func() {
				_, _, err := c.Predict(nil)
				So(errors.Is(err, recognize.ErrNotRecognized), ShouldBeTrue)
				_, _, err = c.Predict(image.NewRGBA(image.Rectangle{}))
				So(errors.Is(err, recognize.ErrNotRecognized), ShouldBeTrue)
			})
		})
	})

	Convey("Given a distance limit", t, func() {
		c := knn.New(knn.WithMaxDistance(0.5))
		c.Add("white", solid(4, 4, 255))

		_, _, err := c.Predict(solid(4, 4, 0))
		So(errors.Is(err, recognize.ErrNotRecognized), ShouldBeTrue)

		label, _, err := c.Predict(solid(4, 4, 254))
		So(err, ShouldBeNil)
		So(label, ShouldEqual, "white")
	})

	Convey("Given k=3", t, func() {
		c := knn.New(knn.WithK(3), knn.WithSize(4, 4))
		c.Add("dark", solid(4, 4, 40))
		c.Add("dark", solid(4, 4, 60))
		c.Add("light", solid(4, 4, 110))

		Convey("The majority wins over the single nearest sample", func() {
			label, dist, err := c.Predict(solid(4, 4, 100))
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "dark")
			So(dist, ShouldBeGreaterThan, 0)
		})
	})
}

func TestLoadDir(t *testing.T) {
	Convey("Given a sample tree with one directory per label", t, func() {
		dir := t.TempDir()
		write := func(label, name string, img image.Image) {
			So(os.MkdirAll(filepath.Join(dir, label), 0o755), ShouldBeNil)
			f, err := os.Create(filepath.Join(dir, label, name))
			So(err, ShouldBeNil)
			So(png.Encode(f, img), ShouldBeNil)
			So(f.Close(), ShouldBeNil)
		}
		write("ink_saver_main", "a.png", solid(6, 6, 255))
		write("run_speed_up", "a.png", solid(6, 6, 0))
		So(os.WriteFile(filepath.Join(dir, "run_speed_up", "notes.txt"), []byte("x"), 0o644), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644), ShouldBeNil)

		c := knn.New()
		n, err := c.LoadDir(dir)

		Convey("Then decodable images are loaded under their directory label", func() {
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
			label, _, err := c.Predict(solid(6, 6, 0))
			So(err, ShouldBeNil)
			So(label, ShouldEqual, "run_speed_up")
		})
	})

	Convey("A missing directory is an error", t, func() {
		_, err := knn.New().LoadDir(filepath.Join(t.TempDir(), "nope"))
		So(err, ShouldNotBeNil)
	})
}
