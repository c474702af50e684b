package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epulse/internal/model"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(clock *fakeClock) *Engine {
	return NewEngine(WithClock(clock.Now), WithIDGenerator(func() string { return "result-1" }))
}

func typeAll(e *Engine, keys ...string) []*model.Result {
	var results []*model.Result
	for _, k := range keys {
		if r := e.KeyPress(k); r != nil {
			results = append(results, r)
		}
	}
	return results
}

func TestExactReproductionIsFullyAccurate(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	target := "the quick fox"
	e.Activate(target)

	var results []*model.Result
	for _, r := range target {
		clock.Advance(200 * time.Millisecond)
		results = append(results, typeAll(e, string(r))...)
	}

	require.Len(t, results, 1)
	res := results[0]
	assert.Equal(t, "result-1", res.ID)
	assert.Equal(t, 100, res.Accuracy)
	assert.Equal(t, len([]rune(target)), res.TextLength)
	assert.InDelta(t, 2.6, res.Duration, 1e-9)
	assert.Equal(t, clock.now.UnixMilli(), res.Timestamp)
	assert.Nil(t, res.ErrorKeys)

	st := e.State()
	assert.True(t, st.Complete)
	assert.False(t, st.Active)
}

func TestBackspaceNeverReducesErrors(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	e.Activate("cat")

	results := typeAll(e, "x", "x", KeyBackspace)
	assert.Empty(t, results)
	st := e.State()
	assert.Equal(t, "x", string(st.Typed))
	assert.Equal(t, 2, st.Errors)
	assert.Equal(t, 3, st.Keystrokes)

	results = typeAll(e, KeyBackspace, "c", "a")
	assert.Empty(t, results)
	clock.Advance(time.Second)
	results = typeAll(e, "t")
	require.Len(t, results, 1)

	st = e.State()
	assert.Equal(t, "cat", string(st.Typed))
	assert.Equal(t, 2, st.Errors)
	assert.Equal(t, 7, st.Keystrokes)
	assert.Equal(t, 71, results[0].Accuracy)
	assert.Equal(t, map[string]int{"c": 1, "a": 1}, results[0].ErrorKeys)
}

func TestWPMForFiftyCharsInOneMinute(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	target := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	require.Len(t, target, 50)
	e.Activate(target)

	typeAll(e, make49("a")...)
	clock.Advance(time.Minute)
	results := typeAll(e, "a")
	require.Len(t, results, 1)
	assert.Equal(t, 10, results[0].WPM)
	assert.InDelta(t, 60.0, results[0].Duration, 1e-9)
}

func TestInputIgnoredWhenInactiveOrComplete(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)

	assert.Nil(t, e.KeyPress("a"))
	assert.Zero(t, e.State().Keystrokes)

	e.Activate("ab")
	typeAll(e, "a", "b")
	require.True(t, e.State().Complete)

	assert.Nil(t, e.KeyPress("c"))
	assert.Nil(t, e.KeyPress(KeyBackspace))
	st := e.State()
	assert.Equal(t, "ab", string(st.Typed))
	assert.Equal(t, 2, st.Keystrokes)
}

func TestModifiersAndNamedKeysOnlyTouchVisualization(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	e.Activate("Ab")

	for _, k := range []string{"Shift", "CapsLock", "Tab", "Enter", "ArrowLeft"} {
		assert.Nil(t, e.KeyPress(k))
	}
	assert.Nil(t, e.Dispatch(Event{Kind: EventKeyPress, Key: "a", Ctrl: true}))

	st := e.State()
	assert.Empty(t, st.Typed)
	assert.Zero(t, st.Keystrokes)
	assert.Len(t, st.Keys, 6)

	assert.Nil(t, e.KeyPress("A"))
	st = e.State()
	assert.Equal(t, "A", string(st.Typed))
	assert.Zero(t, st.Errors)
}

func TestActivateRestartsAndResetClears(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	e.Activate("hello")
	typeAll(e, "h", "x")

	clock.Advance(5 * time.Second)
	e.Activate("hello")
	st := e.State()
	assert.True(t, st.Active)
	assert.Empty(t, st.Typed)
	assert.Zero(t, st.Errors)
	assert.Equal(t, clock.now, st.StartedAt)

	typeAll(e, "h")
	e.Reset()
	st = e.State()
	assert.False(t, st.Active)
	assert.True(t, st.StartedAt.IsZero())
	assert.Equal(t, "hello", string(st.Target))
	assert.Nil(t, e.KeyPress("h"))
}

func TestInvariantsHoldForArbitraryInput(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	e.Activate("go fmt")
	input := []string{"g", "x", KeyBackspace, KeyBackspace, KeyBackspace, "g", "o", "o", " ", "q", "m", "t", "z"}
	for _, k := range input {
		e.KeyPress(k)
		st := e.State()
		assert.GreaterOrEqual(t, st.Errors, 0)
		assert.LessOrEqual(t, st.Errors, st.Keystrokes)
		assert.LessOrEqual(t, len(st.Typed), len(st.Target))
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s, _ := Reduce(State{}, Event{Kind: EventActivate, Target: "abc", At: t0})
	s1, _ := Reduce(s, Event{Kind: EventKeyPress, Key: "x", At: t0})
	s2, _ := Reduce(s1, Event{Kind: EventKeyPress, Key: "b", At: t0})
	_, _ = Reduce(s1, Event{Kind: EventKeyPress, Key: "q", At: t0})

	assert.Equal(t, "x", string(s1.Typed))
	assert.Equal(t, map[string]int{"a": 1}, s1.ErrorKeys)
	assert.Equal(t, "xb", string(s2.Typed))
}

func TestLiveMetrics(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	assert.Equal(t, 0, e.LiveWPM())
	assert.Equal(t, 100, e.LiveAccuracy())

	e.Activate("hello world")
	assert.Equal(t, 0, e.LiveWPM())
	typeAll(e, "h", "e", "l", "l", "o")
	clock.Advance(6 * time.Second)
	assert.Equal(t, 10, e.LiveWPM())
	assert.Equal(t, 100, e.LiveAccuracy())
	assert.InDelta(t, 5.0/11.0, Progress(e.State()), 1e-9)
}

func TestKeyVisualizationLifecycle(t *testing.T) {
	clock := &fakeClock{now: t0}
	e := newTestEngine(clock)
	e.Activate("ab")

	e.KeyPress("x")
	st := e.State()
	require.Len(t, st.Keys, 1)
	assert.True(t, st.Keys[0].IsPressed)
	assert.True(t, st.Keys[0].IsIncorrect)

	clock.Advance(100 * time.Millisecond)
	e.KeyRelease("x")
	require.Len(t, e.State().Keys, 1)
	assert.False(t, e.State().Keys[0].IsPressed)

	clock.Advance(KeyHoldWindow)
	e.Tick()
	assert.Empty(t, e.State().Keys)
}

func make49(key string) []string {
	out := make([]string, 49)
	for i := range out {
		out[i] = key
	}
	return out
}
