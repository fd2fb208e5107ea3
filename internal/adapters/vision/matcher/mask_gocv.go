//go:build gocv

package matcher

import (
	"image"

	"gocv.io/x/gocv"
)

// Mask applies f to img with cv::inRange over the HSV conversion of img. The
// mask is row-major over img's bounds; the count is the number of kept pixels.
func Mask(img *image.RGBA, f Filter) ([]bool, int) {
	if img == nil {
		return nil, 0
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, 0
	}
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return maskPixels(img, f)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	lower := gocv.NewScalar(float64(f.Hue.Min), float64(f.Sat.Min), float64(f.Vis.Min), 0)
	upper := gocv.NewScalar(float64(f.Hue.Max), float64(f.Sat.Max), float64(f.Vis.Max), 0)
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	out := make([]bool, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out[y*b.Dx()+x] = mask.GetUCharAt(y, x) > 0
		}
	}
	return out, gocv.CountNonZero(mask)
}
