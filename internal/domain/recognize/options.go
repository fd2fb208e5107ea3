package recognize

// Range is an inclusive integer interval; a zero bound means unbounded.
type Range struct {
	Min, Max int
}

// Contains reports whether v lies inside r.
func (r Range) Contains(v int) bool {
	if r.Min > 0 && v < r.Min {
		return false
	}
	if r.Max > 0 && v > r.Max {
		return false
	}
	return true
}

// DigitOptions constrain digit reading.
type DigitOptions struct {
	NumDigits  Range
	CharWidth  Range
	CharHeight Range
}

// DigitOption mutates DigitOptions.
type DigitOption func(*DigitOptions)

// WithNumDigits bounds the number of glyphs.
func WithNumDigits(min, max int) DigitOption {
	return func(o *DigitOptions) { o.NumDigits = Range{Min: min, Max: max} }
}

// WithCharWidth bounds the pixel width of a glyph; narrower or wider blobs are ignored.
func WithCharWidth(min, max int) DigitOption {
	return func(o *DigitOptions) { o.CharWidth = Range{Min: min, Max: max} }
}

// WithCharHeight bounds the pixel height of a glyph.
func WithCharHeight(min, max int) DigitOption {
	return func(o *DigitOptions) { o.CharHeight = Range{Min: min, Max: max} }
}

// ApplyDigitOptions folds opts over the unconstrained defaults.
func ApplyDigitOptions(opts ...DigitOption) DigitOptions {
	var o DigitOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
