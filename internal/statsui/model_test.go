package statsui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/epulse/internal/analytics"
	"github.com/verte-zerg/epulse/internal/model"
)

type fakeSource struct {
	state analytics.State
	err   error
	loads int
}

func (f *fakeSource) Load(context.Context) error {
	f.loads++
	return f.err
}

func (f *fakeSource) State() analytics.State { return f.state }

type fakeHistory struct {
	results []model.Result
	total   int
	limit   int
}

func (f *fakeHistory) ListResults(_ context.Context, limit int) ([]model.Result, error) {
	f.limit = limit
	return f.results, nil
}

func (f *fakeHistory) CountResults(context.Context) (int, error) {
	return f.total, nil
}

func sampleState() (analytics.State, []model.Result) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.Local)
	s := analytics.Default()
	var results []model.Result
	for i, wpm := range []int{30, 35, 40} {
		r := model.Result{
			ID:         string(rune('a' + i)),
			WPM:        wpm,
			Accuracy:   94,
			Timestamp:  now.Add(time.Duration(i) * time.Minute).UnixMilli(),
			TextLength: 120,
			Duration:   30,
			ErrorKeys:  map[string]int{"e": 2},
		}
		s = analytics.Record(s, r, now)
		results = append([]model.Result{r}, results...)
	}
	return s, results
}

func sized(m *Model) *Model {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestModelOverview(t *testing.T) {
	state, results := sampleState()
	src := &fakeSource{state: state}
	hist := &fakeHistory{results: results}
	m := sized(NewModel(src, hist, 0))

	assert.Equal(t, 1, src.loads)
	assert.Equal(t, defaultHistoryLimit, hist.limit)
	view := m.View()
	for _, want := range []string{"Overview", "Avg WPM", "35", "Personal bests", "fastest", "Recent sessions"} {
		assert.Contains(t, view, want)
	}
}

func TestModelTabs(t *testing.T) {
	state, results := sampleState()
	m := sized(NewModel(&fakeSource{state: state}, &fakeHistory{results: results, total: 7}, 10))

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, tabProgress, m.activeTab)
	assert.Contains(t, m.View(), "Last 14 days")
	assert.Contains(t, m.View(), "morning")

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	view := m.View()
	assert.Contains(t, view, "Next goal")
	assert.Contains(t, view, state.NextGoal)
	assert.Contains(t, view, "Most missed keys")

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, tabHistory, m.activeTab)
	assert.Contains(t, m.View(), "completed")
	assert.Contains(t, m.View(), "120")
	assert.Contains(t, m.View(), "showing 3 of 7 results")

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabOverview, m.activeTab)
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabHistory, m.activeTab)
}

func TestModelEmptyState(t *testing.T) {
	m := sized(NewModel(&fakeSource{state: analytics.Default()}, nil, 0))
	assert.Contains(t, m.View(), "No sessions recorded yet.")

	m.activeTab = tabHistory
	assert.Contains(t, m.View(), "Results log unavailable.")
}

func TestModelReloadShowsError(t *testing.T) {
	src := &fakeSource{state: analytics.Default()}
	m := sized(NewModel(src, &fakeHistory{}, 0))

	src.err = errors.New("disk gone")
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, 2, src.loads)
	assert.Contains(t, m.View(), "disk gone")
}

func TestModelQuit(t *testing.T) {
	m := NewModel(&fakeSource{state: analytics.Default()}, nil, 0)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "abc", truncateLine("abc", 5))
	assert.Equal(t, "ab...", truncateLine("abcdefgh", 5))
	assert.Equal(t, "ab", truncateLine("abcdefgh", 2))
}
