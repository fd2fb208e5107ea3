package model_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/okian/gearscan/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCloneRGBA(t *testing.T) {
	Convey("Given a frame", t, func() {
		src := image.NewRGBA(image.Rect(0, 0, 4, 3))
		src.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})

		Convey("When cloning it", func() {
			dst := model.CloneRGBA(src)

			Convey("Then pixels match but memory is independent", func() {
				So(dst.Bounds(), ShouldResemble, src.Bounds())
				So(dst.RGBAAt(1, 1), ShouldResemble, src.RGBAAt(1, 1))
				src.SetRGBA(1, 1, color.RGBA{G: 10, A: 255})
				So(dst.RGBAAt(1, 1).R, ShouldEqual, 200)
			})
		})

		Convey("A sub-image keeps its bounds", func() {
			sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
			dst := model.CloneRGBA(sub)
			So(dst.Bounds(), ShouldResemble, image.Rect(1, 1, 3, 3))
			So(dst.RGBAAt(1, 1).R, ShouldEqual, 200)
		})

		Convey("Nil stays nil", func() {
			So(model.CloneRGBA(nil), ShouldBeNil)
		})
	})
}

func TestOffset(t *testing.T) {
	Convey("Zero offsets are detected", t, func() {
		So(model.Offset{}.IsZero(), ShouldBeTrue)
		So(model.Offset{X: 1}.IsZero(), ShouldBeFalse)
		So(model.Offset{Y: -2}.IsZero(), ShouldBeFalse)
	})
}

func TestResultRecordFields(t *testing.T) {
	Convey("Given a resolved record", t, func() {
		rec := &model.ResultRecord{Cash: 1234567, Level: 42, Exp: "1200/3000"}
		rec.CashImage = image.NewRGBA(image.Rect(0, 0, 1, 1))
		rec.Gears[1] = model.GearSlot{
			Images:    map[model.GearField]*image.RGBA{model.GearName: image.NewRGBA(image.Rect(0, 0, 1, 1))},
			Abilities: map[model.GearField]string{model.GearSub1: "ink_saver_main", model.GearMain: "run_speed_up"},
		}

		fields := rec.Fields()

		Convey("Then scalars come first and images print as placeholders", func() {
			So(fields[0], ShouldResemble, model.Field{Key: "cash", Value: "1234567"})
			So(fields[1], ShouldResemble, model.Field{Key: "level", Value: "42"})
			So(fields[2], ShouldResemble, model.Field{Key: "exp", Value: "1200/3000"})
			So(fields[3], ShouldResemble, model.Field{Key: "img_cash", Value: "(image)"})
		})

		Convey("Then gear abilities are listed in a stable order", func() {
			tail := fields[len(fields)-2:]
			So(tail[0], ShouldResemble, model.Field{Key: "gear 1 : main", Value: "run_speed_up"})
			So(tail[1], ShouldResemble, model.Field{Key: "gear 1 : sub1", Value: "ink_saver_main"})
		})

		Convey("Then Ability reports absence", func() {
			_, ok := rec.Gears[0].Ability(model.GearMain)
			So(ok, ShouldBeFalse)
			v, ok := rec.Gears[1].Ability(model.GearMain)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "run_speed_up")
		})
	})

	Convey("A nil record has no fields", t, func() {
		var rec *model.ResultRecord
		So(rec.Fields(), ShouldBeNil)
	})
}

func TestNotificationDedupeKey(t *testing.T) {
	Convey("Notifications of one occurrence share a key per kind", t, func() {
		still := model.Notification{ID: "a", OccurrenceID: "occ", Kind: model.KindStill}
		first := model.Notification{ID: "b", OccurrenceID: "occ", Kind: model.KindComplete}
		again := model.Notification{ID: "c", OccurrenceID: "occ", Kind: model.KindComplete}

		So(first.DedupeKey(), ShouldEqual, again.DedupeKey())
		So(still.DedupeKey(), ShouldNotEqual, first.DedupeKey())
	})

	Convey("Notifications outside an occurrence are keyed by id", t, func() {
		n := model.Notification{ID: "solo", Kind: model.KindComplete}
		So(n.DedupeKey(), ShouldEqual, "solo")
	})
}
