// Package model contains domain models passed between layers.
package model

import (
	"image"
	"image/draw"
)

// Frame is one captured video frame.
type Frame struct {
	Image *image.RGBA // nil when the capture produced nothing this tick
	Msec  int64       // monotonic capture time in milliseconds
	Seq   uint64      // source sequence number
}

// Offset is a pixel translation learned during calibration.
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// IsZero reports whether the offset moves nothing.
func (o Offset) IsZero() bool {
	return o.X == 0 && o.Y == 0
}

// CloneRGBA returns a deep copy of img with its bounds preserved, or nil.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
