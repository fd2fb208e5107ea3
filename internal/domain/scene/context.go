package scene

import (
	"image"
	"sync"
)

// Context is the per-tick view a scene works on. It is owned by the host:
// scenes read Frame and Msec and write into the result and game stores.
type Context struct {
	Frame *image.RGBA
	Msec  int64

	mu      sync.RWMutex
	scenes  map[string]any
	game    map[string]any
	matched map[string]bool
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{
		scenes:  make(map[string]any),
		game:    make(map[string]any),
		matched: make(map[string]bool),
	}
}

// Advance installs the next frame and clears the per-tick match set.
func (c *Context) Advance(frame *image.RGBA, msec int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Frame = frame
	c.Msec = msec
	clear(c.matched)
}

// PutResult stores a scene result under key, replacing any previous value.
func (c *Context) PutResult(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes[key] = v
}

// Result returns the scene result stored under key.
func (c *Context) Result(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.scenes[key]
	return v, ok
}

// PutGame stores a game-session value.
func (c *Context) PutGame(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.game[key] = v
}

// Game returns a game-session value.
func (c *Context) Game(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.game[key]
	return v, ok
}

// ResetGame drops every game-session value; results survive.
func (c *Context) ResetGame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.game)
}

// MarkMatched records whether scene matched during the current tick.
func (c *Context) MarkMatched(scene string, matched bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matched[scene] = matched
}

// IsMatched reports whether scene matched during the current tick.
func (c *Context) IsMatched(scene string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.matched[scene]
}
