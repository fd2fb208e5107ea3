package matcher

import (
	"image"
	"image/color"
)

// HSV is a pixel in OpenCV's 8-bit HSV space: H in 0..179, S and V in 0..255.
type HSV struct {
	H, S, V int
}

// ToHSV converts c, ignoring alpha.
func ToHSV(c color.RGBA) HSV {
	r, g, b := int(c.R), int(c.G), int(c.B)
	maxc := max(r, g, b)
	minc := min(r, g, b)
	delta := maxc - minc

	out := HSV{V: maxc}
	if maxc == 0 || delta == 0 {
		return out
	}
	out.S = (delta*255 + maxc/2) / maxc

	var h float64
	switch maxc {
	case r:
		h = 60 * float64(g-b) / float64(delta)
	case g:
		h = 120 + 60*float64(b-r)/float64(delta)
	default:
		h = 240 + 60*float64(r-g)/float64(delta)
	}
	if h < 0 {
		h += 360
	}
	out.H = int(h/2+0.5) % 180
	return out
}

// Span is an inclusive channel interval.
type Span struct {
	Min, Max int
}

func (s Span) contains(v int) bool { return v >= s.Min && v <= s.Max }

var (
	anyHue     = Span{0, 179}
	anyChannel = Span{0, 255}
)

// Filter keeps pixels whose HSV value lies inside all three spans, the same
// box cv::inRange takes as lower and upper bounds.
type Filter struct {
	Hue, Sat, Vis Span
}

// Keep reports whether c passes the filter.
func (f Filter) Keep(c color.RGBA) bool {
	hsv := ToHSV(c)
	return f.Hue.contains(hsv.H) && f.Sat.contains(hsv.S) && f.Vis.contains(hsv.V)
}

// White keeps low-saturation bright pixels.
func White() Filter {
	return WhiteWithin(Span{0, 32}, Span{230, 255})
}

// WhiteWithin is White with explicit saturation and visibility spans.
func WhiteWithin(sat, vis Span) Filter {
	return Filter{Hue: anyHue, Sat: sat, Vis: vis}
}

// Black keeps dark pixels.
func Black() Filter {
	return BlackWithin(Span{0, 32})
}

// BlackWithin is Black with an explicit visibility span.
func BlackWithin(vis Span) Filter {
	return Filter{Hue: anyHue, Sat: anyChannel, Vis: vis}
}

// HueRange keeps pixels whose hue (0..179) and visibility fall in range.
func HueRange(hue, vis Span) Filter {
	return Filter{Hue: hue, Sat: anyChannel, Vis: vis}
}

// maskPixels applies f pixel by pixel. The mask is row-major over img's
// bounds; the count is the number of kept pixels.
func maskPixels(img *image.RGBA, f Filter) ([]bool, int) {
	b := img.Bounds()
	out := make([]bool, b.Dx()*b.Dy())
	n := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if f.Keep(img.RGBAAt(b.Min.X+x, b.Min.Y+y)) {
				out[y*b.Dx()+x] = true
				n++
			}
		}
	}
	return out, n
}
