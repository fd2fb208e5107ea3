// Package scene implements the frame-by-frame lifecycle of on-screen scenes.
package scene

import (
	"context"

	"github.com/okian/gearscan/internal/domain/model"
)

// Scene consumes one frame per tick. Ticks must be serialized by the host.
type Scene interface {
	Name() string
	Tick(ctx context.Context, sc *Context) bool
	Reset()
}

// Calibrator accepts an offset discovered by a sibling detector.
type Calibrator interface {
	OnCalibration(o model.Offset)
}

// Notifier delivers scene notifications to external listeners.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n model.Notification)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n model.Notification) { f(ctx, n) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.Notification) {}

// Dispatcher ticks a fixed list of scenes in order.
type Dispatcher struct {
	scenes []Scene
}

// NewDispatcher returns a dispatcher over scenes.
func NewDispatcher(scenes ...Scene) *Dispatcher {
	return &Dispatcher{scenes: scenes}
}

// Scenes returns the registered scenes.
func (d *Dispatcher) Scenes() []Scene {
	return d.scenes
}

// Tick runs every scene on the current frame, recording each outcome in sc so
// later scenes can check for mutually exclusive ones. It reports whether any
// scene matched.
func (d *Dispatcher) Tick(ctx context.Context, sc *Context) bool {
	matchedAny := false
	for _, s := range d.scenes {
		matched := s.Tick(ctx, sc)
		sc.MarkMatched(s.Name(), matched)
		matchedAny = matchedAny || matched
	}
	return matchedAny
}

// Reset resets every scene.
func (d *Dispatcher) Reset() {
	for _, s := range d.scenes {
		s.Reset()
	}
}

// Calibrate forwards an offset to every scene that accepts one.
func (d *Dispatcher) Calibrate(o model.Offset) int {
	n := 0
	for _, s := range d.scenes {
		if c, ok := s.(Calibrator); ok {
			c.OnCalibration(o)
			n++
		}
	}
	return n
}
