package model

import (
	"fmt"
	"image"
	"sort"
)

// GearField names one sub-region of a gear panel.
type GearField string

const (
	GearName GearField = "name"
	GearMain GearField = "main"
	GearSub1 GearField = "sub1"
	GearSub2 GearField = "sub2"
	GearSub3 GearField = "sub3"
)

// GearFields lists every gear sub-region in panel order.
var GearFields = []GearField{GearName, GearMain, GearSub1, GearSub2, GearSub3}

// AbilityFields lists the sub-regions that hold a gear ability icon.
var AbilityFields = []GearField{GearMain, GearSub1, GearSub2, GearSub3}

// GearSlotCount is the number of gear panels on the result screen.
const GearSlotCount = 3

// GearSlot is one gear panel. Slot order is positional: slot n sits at the
// n-th fixed x-offset of the screen.
type GearSlot struct {
	Images    map[GearField]*image.RGBA `json:"-"`
	Abilities map[GearField]string      `json:"abilities,omitempty"`
}

// Ability returns the resolved ability label for field.
func (g GearSlot) Ability(field GearField) (string, bool) {
	v, ok := g.Abilities[field]
	return v, ok
}

// ResultRecord is what the result screen tells about the player after a match.
// It is only published once Cash, Level and Exp are all resolved; gear
// abilities may be partially missing.
type ResultRecord struct {
	Cash  int                     `json:"cash"`
	Level int                     `json:"level"`
	Exp   string                  `json:"exp"`
	Gears [GearSlotCount]GearSlot `json:"gears"`

	CashImage  *image.RGBA `json:"-"`
	LevelImage *image.RGBA `json:"-"`
	ExpImage   *image.RGBA `json:"-"`
}

// Field is one printable key/value of a record.
type Field struct {
	Key   string
	Value string
}

// Fields flattens the record into an ordered listing; images print as "(image)".
func (r *ResultRecord) Fields() []Field {
	if r == nil {
		return nil
	}
	out := []Field{
		{Key: "cash", Value: fmt.Sprint(r.Cash)},
		{Key: "level", Value: fmt.Sprint(r.Level)},
		{Key: "exp", Value: r.Exp},
	}
	for _, img := range []struct {
		key string
		img *image.RGBA
	}{{"img_cash", r.CashImage}, {"img_level", r.LevelImage}, {"img_exp", r.ExpImage}} {
		if img.img != nil {
			out = append(out, Field{Key: img.key, Value: "(image)"})
		}
	}
	for n, g := range r.Gears {
		for _, f := range GearFields {
			if g.Images[f] != nil {
				out = append(out, Field{Key: fmt.Sprintf("gear %d : img_%s", n, f), Value: "(image)"})
			}
		}
		keys := make([]string, 0, len(g.Abilities))
		for f := range g.Abilities {
			keys = append(keys, string(f))
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, Field{Key: fmt.Sprintf("gear %d : %s", n, k), Value: g.Abilities[GearField(k)]})
		}
	}
	return out
}
