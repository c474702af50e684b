// Package session implements the typing session state machine.
//
// All input flows through Reduce, a pure function of (State, Event). Engine wraps it with
// a clock and an ID generator for interactive use.
package session

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/stats"
)

// EventKind identifies the type of a session event.
type EventKind int

const (
	// EventActivate starts (or restarts) a session against Event.Target.
	EventActivate EventKind = iota
	// EventReset clears the session without producing a result.
	EventReset
	// EventKeyPress delivers a key press.
	EventKeyPress
	// EventKeyRelease delivers a key release.
	EventKeyRelease
	// EventTick prunes released keys from the visualization.
	EventTick
)

// Key names with special handling.
const (
	KeyBackspace = "Backspace"
	KeySpace     = " "
)

// KeyHoldWindow is how long a released key stays visible after its last press.
const KeyHoldWindow = 500 * time.Millisecond

var modifierKeys = map[string]struct{}{
	"Shift":    {},
	"Control":  {},
	"Alt":      {},
	"Meta":     {},
	"CapsLock": {},
	"Tab":      {},
}

// Event is a single input to the session reducer.
type Event struct {
	Kind   EventKind
	At     time.Time
	Target string
	Key    string
	Ctrl   bool
	Alt    bool
	Meta   bool
}

// State is the full session state. Values returned by Reduce never share mutable
// backing storage with their input.
type State struct {
	Target      []rune
	Typed       []rune
	StartedAt   time.Time
	CompletedAt time.Time
	Active      bool
	Complete    bool
	Errors      int
	Keystrokes  int
	ErrorKeys   map[string]int
	Keys        []model.KeyInfo
}

// Reduce applies ev to s. It returns a result, without an ID, exactly when ev completes
// the session.
func Reduce(s State, ev Event) (State, *model.Result) {
	switch ev.Kind {
	case EventActivate:
		if ev.Target == "" {
			return s, nil
		}
		return State{
			Target:    []rune(ev.Target),
			StartedAt: ev.At,
			Active:    true,
			Keys:      s.Keys,
		}, nil
	case EventReset:
		return State{Target: s.Target}, nil
	case EventKeyPress:
		return keyPress(s, ev)
	case EventKeyRelease:
		s.Keys = releaseKey(s.Keys, normalizeKey(ev.Key), ev.At)
		return s, nil
	case EventTick:
		s.Keys = pruneKeys(s.Keys, ev.At)
		return s, nil
	default:
		return s, nil
	}
}

func keyPress(s State, ev Event) (State, *model.Result) {
	if !s.Active || s.Complete {
		return s, nil
	}
	id := normalizeKey(ev.Key)
	s.Keys = pressKey(s.Keys, id, ev.At)

	if ev.Ctrl || ev.Alt || ev.Meta {
		return s, nil
	}
	if _, ok := modifierKeys[ev.Key]; ok {
		return s, nil
	}

	if ev.Key == KeyBackspace {
		if len(s.Typed) > 0 {
			s.Typed = append([]rune(nil), s.Typed[:len(s.Typed)-1]...)
		}
		s.Keystrokes++
		return s, nil
	}

	if utf8.RuneCountInString(ev.Key) != 1 {
		return s, nil
	}
	r, _ := utf8.DecodeRuneInString(ev.Key)
	expected := s.Target[len(s.Typed)]
	correct := r == expected
	s.Keys = markKey(s.Keys, id, correct)

	typed := make([]rune, len(s.Typed), len(s.Typed)+1)
	copy(typed, s.Typed)
	s.Typed = append(typed, r)
	s.Keystrokes++
	if !correct {
		s.Errors++
		s.ErrorKeys = incrementCopy(s.ErrorKeys, string(expected))
	}

	if len(s.Typed) < len(s.Target) {
		return s, nil
	}
	s.Complete = true
	s.Active = false
	s.CompletedAt = ev.At
	return s, buildResult(s)
}

func buildResult(s State) *model.Result {
	duration := s.CompletedAt.Sub(s.StartedAt).Seconds()
	var errorKeys map[string]int
	if len(s.ErrorKeys) > 0 {
		errorKeys = make(map[string]int, len(s.ErrorKeys))
		for k, v := range s.ErrorKeys {
			errorKeys[k] = v
		}
	}
	return &model.Result{
		WPM:        stats.WPMSeconds(len(s.Target), duration),
		Accuracy:   stats.Accuracy(s.Keystrokes, s.Errors),
		Timestamp:  s.CompletedAt.UnixMilli(),
		TextLength: len(s.Target),
		Duration:   duration,
		ErrorKeys:  errorKeys,
	}
}

// LiveWPM estimates speed from the characters typed so far.
func LiveWPM(s State, now time.Time) int {
	if s.StartedAt.IsZero() || len(s.Typed) == 0 {
		return 0
	}
	end := now
	if !s.CompletedAt.IsZero() {
		end = s.CompletedAt
	}
	return stats.WPM(len(s.Typed), end.Sub(s.StartedAt))
}

// LiveAccuracy reports accuracy over the keystrokes accepted so far.
func LiveAccuracy(s State) int {
	return stats.Accuracy(s.Keystrokes, s.Errors)
}

// Progress returns the completed fraction of the target in [0, 1].
func Progress(s State) float64 {
	if len(s.Target) == 0 {
		return 0
	}
	return float64(len(s.Typed)) / float64(len(s.Target))
}

func incrementCopy(m map[string]int, key string) map[string]int {
	out := make(map[string]int, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key]++
	return out
}

// normalizeKey maps a key name to its physical key identity.
func normalizeKey(key string) string {
	if utf8.RuneCountInString(key) == 1 {
		return strings.ToLower(key)
	}
	return key
}
