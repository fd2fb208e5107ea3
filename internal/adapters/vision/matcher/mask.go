//go:build !gocv

package matcher

import "image"

// Mask applies f to img. The mask is row-major over img's bounds; the count
// is the number of kept pixels.
func Mask(img *image.RGBA, f Filter) ([]bool, int) {
	if img == nil {
		return nil, 0
	}
	return maskPixels(img, f)
}
