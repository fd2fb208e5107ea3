// Package region maps a 1280x720 result screen onto its named sub-regions.
package region

import (
	"image"

	"github.com/okian/gearscan/internal/domain/model"
)

// Rect is a pixel rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H int
}

// Image converts r into an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Within returns r translated by the top-left corner of parent.
func (r Rect) Within(parent Rect) Rect {
	return Rect{X: parent.X + r.X, Y: parent.Y + r.Y, W: r.W, H: r.H}
}

// Reference resolution the coordinates below are measured at.
const (
	ReferenceWidth  = 1280
	ReferenceHeight = 720
)

// Result value regions.
var (
	Cash  = Rect{X: 798, Y: 110, W: 294, H: 55}
	Level = Rect{X: 643, Y: 284, W: 103, H: 63}
	Exp   = Rect{X: 1007, Y: 335, W: 180, H: 43}
)

// Presence marker regions.
var (
	MoneyMarker = Rect{X: 866, Y: 48, W: 99, H: 41}
	LevelMarker = Rect{X: 869, Y: 213, W: 91, H: 41}
	GearsMarker = Rect{X: 887, Y: 410, W: 73, H: 45}
)

// Gear panel geometry.
const (
	gearPanelX0     = 613
	gearPanelStride = 209
	gearPanelY      = 457
	gearPanelW      = 204
	gearPanelH      = 233
)

// gearLayout holds sub-region rectangles relative to a gear panel.
var gearLayout = map[model.GearField]Rect{
	model.GearName: {X: 3, Y: 9, W: 194, H: 25},
	model.GearMain: {X: 78, Y: 105, W: 52, H: 50},
	model.GearSub1: {X: 41, Y: 158, W: 37, H: 36},
	model.GearSub2: {X: 85, Y: 158, W: 37, H: 36},
	model.GearSub3: {X: 130, Y: 158, W: 37, H: 36},
}

// GearPanel returns the rectangle of gear slot n (0..2).
func GearPanel(n int) Rect {
	return Rect{X: gearPanelX0 + n*gearPanelStride, Y: gearPanelY, W: gearPanelW, H: gearPanelH}
}

// GearRect returns the absolute rectangle of field inside gear slot n.
func GearRect(n int, field model.GearField) Rect {
	return gearLayout[field].Within(GearPanel(n))
}

// Crop copies the part of frame under r into a new image whose bounds start
// at the origin. Parts of r outside the frame are left transparent.
func Crop(frame *image.RGBA, r Rect) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.W, r.H))
	if frame == nil {
		return out
	}
	src := r.Image().Add(frame.Bounds().Min).Intersect(frame.Bounds())
	if src.Empty() {
		return out
	}
	dst := src.Sub(frame.Bounds().Min).Sub(image.Pt(r.X, r.Y))
	for y := 0; y < src.Dy(); y++ {
		so := frame.PixOffset(src.Min.X, src.Min.Y+y)
		do := out.PixOffset(dst.Min.X, dst.Min.Y+y)
		copy(out.Pix[do:do+4*src.Dx()], frame.Pix[so:so+4*src.Dx()])
	}
	return out
}

// Regions is every named crop of one result frame.
type Regions struct {
	Cash  *image.RGBA
	Level *image.RGBA
	Exp   *image.RGBA
	Gears [model.GearSlotCount]map[model.GearField]*image.RGBA
}

// Extract crops all named regions of frame.
func Extract(frame *image.RGBA) Regions {
	r := Regions{
		Cash:  Crop(frame, Cash),
		Level: Crop(frame, Level),
		Exp:   Crop(frame, Exp),
	}
	for n := range r.Gears {
		r.Gears[n] = ExtractGear(frame, n)
	}
	return r
}

// ExtractGear crops the sub-regions of gear slot n.
func ExtractGear(frame *image.RGBA, n int) map[model.GearField]*image.RGBA {
	out := make(map[model.GearField]*image.RGBA, len(model.GearFields))
	for _, f := range model.GearFields {
		out[f] = Crop(frame, GearRect(n, f))
	}
	return out
}
