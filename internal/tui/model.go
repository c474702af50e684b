// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/epulse/internal/analytics"
	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/session"
	"github.com/verte-zerg/epulse/internal/texts"
)

const (
	tickInterval = 100 * time.Millisecond
	// Terminals report presses only, so releases are synthesized after this delay.
	releaseDelay = 120 * time.Millisecond
)

// Recorder folds a completed result into the analytics state.
type Recorder interface {
	Record(ctx context.Context, r model.Result) (analytics.State, error)
}

// Options wires a Model.
type Options struct {
	Config    model.Config
	Catalog   texts.Catalog
	Generator *texts.Generator
	// Words is the drill vocabulary; empty uses the built-in list.
	Words     []string
	Recorder  Recorder
	Analytics analytics.State
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config    model.Config
	catalog   texts.Catalog
	gen       *texts.Generator
	words     []string
	recorder  Recorder
	logger    *zap.Logger
	analytics analytics.State

	engine *session.Engine
	level  texts.Level
	target string

	last         *model.Result
	lastErr      error
	ticking      bool
	showKeyboard bool

	width  int
	height int
}

type tickMsg time.Time

type releaseMsg struct {
	key string
}

type recordedMsg struct {
	state analytics.State
	err   error
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	resultStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a typing TUI model.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := opts.Generator
	if gen == nil {
		gen = texts.NewGenerator()
	}
	var engineOpts []session.Option
	if opts.Clock != nil {
		engineOpts = append(engineOpts, session.WithClock(opts.Clock))
	}
	m := &Model{
		config:       opts.Config,
		catalog:      opts.Catalog,
		gen:          gen,
		words:        opts.Words,
		recorder:     opts.Recorder,
		logger:       logger,
		analytics:    opts.Analytics,
		engine:       session.NewEngine(engineOpts...),
		level:        initialLevel(opts.Config.Level, opts.Analytics.SkillLevel),
		showKeyboard: true,
	}
	m.nextText()
	return m
}

func initialLevel(configured string, skill analytics.SkillLevel) texts.Level {
	if configured != "" {
		if level, err := texts.ParseLevel(configured); err == nil {
			return level
		}
	}
	return texts.ForSkill(string(skill))
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.engine.Tick()
		st := m.engine.State()
		if st.Active || len(st.Keys) > 0 {
			return m, tick()
		}
		m.ticking = false
		return m, nil
	case releaseMsg:
		m.engine.KeyRelease(msg.key)
		return m, nil
	case recordedMsg:
		m.lastErr = msg.err
		m.analytics = msg.state
		if msg.err != nil {
			m.logger.Warn("recording result", zap.Error(msg.err))
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyTab:
		m.nextText()
		return nil
	case tea.KeyCtrlR:
		m.restart()
		return nil
	case tea.KeyCtrlL:
		m.cycleLevel()
		return nil
	case tea.KeyCtrlK:
		m.showKeyboard = !m.showKeyboard
		return nil
	case tea.KeyEnter:
		if m.engine.State().Complete {
			m.nextText()
		}
		return nil
	case tea.KeyBackspace, tea.KeyDelete:
		return m.press(session.KeyBackspace, msg.Alt)
	case tea.KeySpace:
		return m.press(session.KeySpace, msg.Alt)
	case tea.KeyRunes:
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			cmds = append(cmds, m.press(string(r), msg.Alt))
		}
		return tea.Batch(cmds...)
	default:
		return nil
	}
}

// press feeds one key to the engine. The session starts on the first typed key.
func (m *Model) press(key string, alt bool) tea.Cmd {
	st := m.engine.State()
	if st.Complete {
		return nil
	}
	if !st.Active {
		if key == session.KeyBackspace {
			return nil
		}
		m.engine.Activate(m.target)
	}

	res := m.engine.Dispatch(session.Event{Kind: session.EventKeyPress, Key: key, Alt: alt})
	cmds := []tea.Cmd{releaseAfter(key)}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, tick())
	}
	if res != nil {
		m.last = res
		m.logger.Debug("session complete",
			zap.String("id", res.ID),
			zap.Int("wpm", res.WPM),
			zap.Int("accuracy", res.Accuracy),
			zap.String("level", string(m.level)))
		cmds = append(cmds, m.record(*res))
	}
	return tea.Batch(cmds...)
}

func (m *Model) record(r model.Result) tea.Cmd {
	if m.recorder == nil {
		return nil
	}
	recorder := m.recorder
	return func() tea.Msg {
		st, err := recorder.Record(context.Background(), r)
		return recordedMsg{state: st, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func releaseAfter(key string) tea.Cmd {
	return tea.Tick(releaseDelay, func(time.Time) tea.Msg {
		return releaseMsg{key: key}
	})
}

func (m *Model) nextText() {
	if m.level == texts.Words {
		m.target = m.gen.Drill(m.words, texts.DrillOptions{
			Words:    m.config.DrillWords,
			CapsPct:  m.config.CapsPct,
			PunctPct: m.config.PunctPct,
			PunctSet: []rune(m.config.PunctSet),
		})
	} else {
		m.target = m.gen.Pick(m.catalog.Texts(m.level), m.target)
	}
	m.engine.Reset()
}

func (m *Model) restart() {
	m.engine.Reset()
}

func (m *Model) cycleLevel() {
	order := append(append([]texts.Level(nil), texts.Levels...), texts.All, texts.Words)
	next := order[0]
	for i, l := range order {
		if l == m.level {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.level = next
	m.nextText()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.target == "" {
		return "No texts available for level " + string(m.level) + "\n"
	}
	st := m.engine.State()

	var body string
	if st.Complete && m.last != nil {
		body = m.renderResult()
	} else {
		body = m.renderText(st)
	}

	if m.width == 0 || m.height == 0 {
		return body
	}

	sections := []string{m.renderHeader(), "", body}
	if m.showKeyboard && m.width >= keyboardWidth() && m.height >= 16 {
		sections = append(sections, "", renderKeyboard(st.Keys))
	}
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)

	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	main := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return main + "\n" + footerLine
}

func (m *Model) renderText(st session.State) string {
	typed := st.Typed
	if !st.Active && !st.Complete {
		typed = nil
	}
	target := []rune(m.target)
	cursor := len(typed)
	if cursor >= len(target) {
		cursor = -1
	}
	styled := buildStyledRunes(target, typed, cursor)
	if m.width == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	return lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth))
}

func (m *Model) renderHeader() string {
	count := m.catalog.Count(m.level)
	detail := texts.Describe(m.level)
	if m.level != texts.Words {
		detail = fmt.Sprintf("%s · %d texts", detail, count)
	}
	return headerStyle.Render(string(m.level)) + footerStyle.Render("  "+detail)
}

func (m *Model) renderResult() string {
	r := m.last
	lines := []string{
		resultStyle.Render(fmt.Sprintf("%d WPM · %d%% accuracy", r.WPM, r.Accuracy)),
		footerStyle.Render(fmt.Sprintf("%d chars in %.1fs", r.TextLength, r.Duration)),
	}
	if m.lastErr != nil {
		lines = append(lines, incorrectStyle.Render("result not saved: "+m.lastErr.Error()))
	} else if m.analytics.NextGoal != "" {
		lines = append(lines, footerStyle.Render("Next goal: "+m.analytics.NextGoal))
	}
	lines = append(lines, "", footerStyle.Render("enter next · ctrl+r retry · ctrl+l level · esc quit"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderFooter() string {
	st := m.engine.State()
	progress := int(session.Progress(st) * 100)
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("%d WPM · %d%%", m.engine.LiveWPM(), m.engine.LiveAccuracy()),
	}
	a := m.analytics
	if a.SkillLevel != "" {
		segments = append(segments, string(a.SkillLevel))
	}
	if a.TotalTests > 0 {
		segments = append(segments,
			fmt.Sprintf("Avg %d WPM · %d%%", a.AverageWPM, a.AverageAccuracy),
			fmt.Sprintf("Streak %d", a.CurrentStreak),
			fmt.Sprintf("Today %d", a.TestsToday))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
