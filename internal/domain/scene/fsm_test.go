package scene_test

import (
	"context"
	"testing"

	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/internal/domain/scene"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMachine(t *testing.T) {
	Convey("Given a two-state machine", t, func() {
		ctx := context.Background()
		sc := scene.NewContext()
		var calls []scene.State
		var switches [][2]scene.State

		var m *scene.Machine
		m = scene.NewMachine(map[scene.State]scene.Handler{
			scene.StateDefault: func(context.Context, *scene.Context) bool {
				calls = append(calls, scene.StateDefault)
				m.Switch(scene.StateTracking)
				return true
			},
			scene.StateTracking: func(context.Context, *scene.Context) bool {
				calls = append(calls, scene.StateTracking)
				return false
			},
		})
		m.OnSwitch(func(from, to scene.State) { switches = append(switches, [2]scene.State{from, to}) })

		Convey("It starts in Default with no open window", func() {
			So(m.State(), ShouldEqual, scene.StateDefault)
			sc.Advance(nil, 0)
			So(m.MatchedIn(sc, 1000), ShouldBeFalse)
		})

		Convey("Each tick runs exactly the handler of the current state", func() {
			sc.Advance(nil, 100)
			So(m.Tick(ctx, sc), ShouldBeTrue)
			sc.Advance(nil, 200)
			So(m.Tick(ctx, sc), ShouldBeFalse)
			So(calls, ShouldResemble, []scene.State{scene.StateDefault, scene.StateTracking})
			So(switches, ShouldResemble, [][2]scene.State{{scene.StateDefault, scene.StateTracking}})
		})

		Convey("Only matching ticks refresh the window", func() {
			sc.Advance(nil, 100)
			m.Tick(ctx, sc)
			sc.Advance(nil, 1099)
			m.Tick(ctx, sc)
			So(m.MatchedIn(sc, 1000), ShouldBeTrue)
			sc.Advance(nil, 1100)
			So(m.MatchedIn(sc, 1000), ShouldBeFalse)
		})

		Convey("Switching to the same state does not fire the hook", func() {
			m.Switch(scene.StateDefault)
			So(switches, ShouldBeEmpty)
		})

		Convey("Reset returns to Default and closes the window", func() {
			sc.Advance(nil, 100)
			m.Tick(ctx, sc)
			m.Reset()
			So(m.State(), ShouldEqual, scene.StateDefault)
			So(m.MatchedIn(sc, 1000), ShouldBeFalse)
		})
	})

	Convey("States print their names", t, func() {
		So(scene.StateDefault.String(), ShouldEqual, "default")
		So(scene.StateTracking.String(), ShouldEqual, "tracking")
		So(scene.State(7).String(), ShouldEqual, "state(7)")
	})

	Convey("Within is exclusive at the window edge", t, func() {
		So(scene.Within(1999, 1000, 1000), ShouldBeTrue)
		So(scene.Within(2000, 1000, 1000), ShouldBeFalse)
	})
}

type fakeScene struct {
	name    string
	match   bool
	resets  int
	offsets []model.Offset
	sawPeer map[string]bool
	peer    string
}

func (f *fakeScene) Name() string { return f.name }

func (f *fakeScene) Tick(_ context.Context, sc *scene.Context) bool {
	if f.peer != "" {
		f.sawPeer[f.peer] = sc.IsMatched(f.peer)
	}
	return f.match
}

func (f *fakeScene) Reset() { f.resets++ }

type calibratedScene struct{ fakeScene }

func (c *calibratedScene) OnCalibration(o model.Offset) { c.offsets = append(c.offsets, o) }

func TestDispatcher(t *testing.T) {
	Convey("Given a timer scene followed by a dependent scene", t, func() {
		timer := &fakeScene{name: scene.GameTimerIconName, match: true}
		result := &calibratedScene{fakeScene{name: "result", peer: scene.GameTimerIconName, sawPeer: map[string]bool{}}}
		d := scene.NewDispatcher(timer, result)
		sc := scene.NewContext()

		Convey("When ticking", func() {
			sc.Advance(nil, 0)
			matched := d.Tick(context.Background(), sc)

			Convey("Then later scenes see earlier outcomes", func() {
				So(matched, ShouldBeTrue)
				So(result.sawPeer[scene.GameTimerIconName], ShouldBeTrue)
				So(sc.IsMatched("result"), ShouldBeFalse)
			})

			Convey("Then the next frame starts with a clean match set", func() {
				sc.Advance(nil, 100)
				So(sc.IsMatched(scene.GameTimerIconName), ShouldBeFalse)
			})
		})

		Convey("Calibration reaches only calibrated scenes", func() {
			So(d.Calibrate(model.Offset{X: 2}), ShouldEqual, 1)
			So(result.offsets, ShouldResemble, []model.Offset{{X: 2}})
		})

		Convey("Reset reaches every scene", func() {
			d.Reset()
			So(timer.resets, ShouldEqual, 1)
			So(result.resets, ShouldEqual, 1)
			So(len(d.Scenes()), ShouldEqual, 2)
		})
	})
}

func TestContextStores(t *testing.T) {
	Convey("Given a context", t, func() {
		sc := scene.NewContext()
		sc.PutResult("r", 1)
		sc.PutGame("g", 2)

		Convey("ResetGame clears only game values", func() {
			sc.ResetGame()
			_, ok := sc.Game("g")
			So(ok, ShouldBeFalse)
			v, ok := sc.Result("r")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
		})
	})
}
