package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/epulse/internal/model"
)

// Engine feeds timestamped events through Reduce in delivery order.
type Engine struct {
	state State
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides how result identifiers are generated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// NewEngine returns an inactive engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch applies ev and returns the completed result, if any. Events without a
// timestamp are stamped with the engine clock.
func (e *Engine) Dispatch(ev Event) *model.Result {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	next, result := Reduce(e.state, ev)
	e.state = next
	if result != nil {
		result.ID = e.newID()
	}
	return result
}

// Activate starts a session for target.
func (e *Engine) Activate(target string) {
	e.Dispatch(Event{Kind: EventActivate, Target: target})
}

// Reset returns the engine to its pre-activation state.
func (e *Engine) Reset() {
	e.Dispatch(Event{Kind: EventReset})
}

// KeyPress delivers a plain key press.
func (e *Engine) KeyPress(key string) *model.Result {
	return e.Dispatch(Event{Kind: EventKeyPress, Key: key})
}

// KeyRelease delivers a key release.
func (e *Engine) KeyRelease(key string) {
	e.Dispatch(Event{Kind: EventKeyRelease, Key: key})
}

// Tick prunes stale keys from the visualization.
func (e *Engine) Tick() {
	e.Dispatch(Event{Kind: EventTick})
}

// State returns the current session state.
func (e *Engine) State() State {
	return e.state
}

// LiveWPM returns the current speed estimate.
func (e *Engine) LiveWPM() int {
	return LiveWPM(e.state, e.now())
}

// LiveAccuracy returns the current accuracy estimate.
func (e *Engine) LiveAccuracy() int {
	return LiveAccuracy(e.state)
}
