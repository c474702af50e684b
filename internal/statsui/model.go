// Package statsui provides the Bubble Tea analytics dashboard.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/epulse/internal/analytics"
	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/stats"
)

const (
	tabOverview = iota
	tabProgress
	tabGuidance
	tabHistory
)

const (
	plotHeight          = 10
	defaultHistoryLimit = 200
	topErrorKeys        = 10
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// StateLoader reloads and exposes the analytics snapshot.
type StateLoader interface {
	Load(ctx context.Context) error
	State() analytics.State
}

// HistoryLister lists logged results, most recent first.
type HistoryLister interface {
	ListResults(ctx context.Context, limit int) ([]model.Result, error)
	CountResults(ctx context.Context) (int, error)
}

// Model implements the Bubble Tea analytics UI.
type Model struct {
	source  StateLoader
	history HistoryLister
	limit   int

	state   analytics.State
	results []model.Result
	total   int
	errMsg  string

	tabs          []string
	activeTab     int
	viewports     []viewport.Model
	historyTable  table.Model
	historyLayout tableLayout

	width  int
	height int
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs the dashboard. history may be nil, which hides the results log.
// A non-positive limit uses the default history size.
func NewModel(source StateLoader, history HistoryLister, limit int) *Model {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	m := &Model{
		source:  source,
		history: history,
		limit:   limit,
		tabs:    []string{"Overview", "Progress", "Guidance", "History"},
	}
	m.historyTable = buildHistoryTable(nil, 0, 1)
	m.initViewports()
	m.refresh()
	return m
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			m.updateLayout()
			return m, nil
		case "g", "home":
			if m.activeTab == tabHistory {
				m.historyTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabHistory {
				m.historyTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabHistory {
				var cmd tea.Cmd
				m.historyTable, cmd = m.historyTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setHistoryTableSize(m.width, vpHeight-1)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabHistory {
		m.historyTable.Focus()
	} else {
		m.historyTable.Blur()
	}
}

// refresh reloads analytics and the results log. A load failure keeps the previous snapshot.
func (m *Model) refresh() {
	ctx := context.Background()
	m.errMsg = ""
	if m.source != nil {
		if err := m.source.Load(ctx); err != nil {
			m.errMsg = err.Error()
		}
		m.state = m.source.State()
	}
	if m.history != nil {
		results, err := m.history.ListResults(ctx, m.limit)
		if err != nil {
			m.errMsg = err.Error()
		} else {
			m.results = results
		}
		total, err := m.history.CountResults(ctx)
		if err != nil {
			m.errMsg = err.Error()
		} else {
			m.total = total
		}
	}
	cols, rows := historyTableData(m.results)
	m.historyTable.SetColumns(cols)
	m.historyTable.SetRows(rows)
	m.historyLayout.rowCount = len(rows)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.state, width))
	m.viewports[tabProgress].SetContent(renderProgress(m.state, width))
	m.viewports[tabGuidance].SetContent(renderGuidance(m.state))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Skill: %s  tests=%d  today=%d  streak=%d",
		m.state.SkillLevel, m.state.TotalTests, m.state.TestsToday, m.state.CurrentStreak)
	return tabs + "\n" + padLines(headerStyle.Render(truncateLine(summary, m.width)), m.width)
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabHistory {
		switch {
		case m.history == nil:
			return fitLines("Results log unavailable.", m.width, height)
		case len(m.results) == 0:
			return fitLines("No results logged.", m.width, height)
		default:
			view := tableMutedStyle.Render(m.historyTable.View()) + "\n" +
				headerStyle.Render(fmt.Sprintf("showing %d of %d results", len(m.results), m.total))
			return fitLines(view, m.width, height)
		}
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func renderOverview(s analytics.State, width int) string {
	if s.TotalTests == 0 {
		return "No sessions recorded yet."
	}
	sections := []string{
		renderSummaryCards(s, width),
		sectionStyle.Render("Personal bests"),
		strings.Join(analytics.PersonalBestsTable(s).Lines(), "\n"),
	}
	if len(s.RecentResults) > 1 {
		sections = append(sections, "", renderPlot("Recent sessions", analytics.RecentSeries(s), width))
	}
	return strings.TrimRight(strings.Join(sections, "\n"), "\n")
}

func renderSummaryCards(s analytics.State, width int) string {
	cards := []string{
		metricCard("Tests", strconv.Itoa(s.TotalTests)),
		metricCard("Avg WPM", strconv.Itoa(s.AverageWPM)),
		metricCard("Best WPM", strconv.Itoa(s.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%d%%", s.AverageAccuracy)),
		metricCard("Streak", fmt.Sprintf("%d / %d", s.CurrentStreak, s.LongestStreak)),
		metricCard("Consistency", fmt.Sprintf("%.0f", s.ConsistencyScore)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderPlot(title string, series []stats.Series, width int) string {
	var buf bytes.Buffer
	opts := stats.PlotOptions{Width: stats.PlotWidthFor(width), Height: plotHeight, ForceColor: true}
	if err := stats.PlotSeries(&buf, title, series, opts); err != nil {
		return fmt.Sprintf("Failed to render plot: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderProgress(s analytics.State, width int) string {
	t := analytics.ProgressTable(s)
	if len(t.Rows) == 0 {
		return "No activity in the last 14 days."
	}
	wpm := make([]float64, 0, len(t.Rows))
	acc := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		v, _ := strconv.ParseFloat(row[1], 64)
		a, _ := strconv.ParseFloat(strings.TrimSuffix(row[2], "%"), 64)
		wpm = append(wpm, v)
		acc = append(acc, a)
	}
	sections := []string{sectionStyle.Render("Last 14 days"), strings.Join(t.Lines(), "\n")}
	if len(t.Rows) > 1 {
		series := []stats.Series{{Name: "best wpm", Values: wpm}, {Name: "accuracy", Values: acc}}
		sections = append(sections, "", renderPlot("Daily progress", series, width))
	}
	if tod := analytics.TimeOfDayTable(s); len(tod.Rows) > 0 {
		sections = append(sections, "", sectionStyle.Render("Time of day"), strings.Join(tod.Lines(), "\n"))
	}
	return strings.Join(sections, "\n")
}

func renderGuidance(s analytics.State) string {
	lines := []string{sectionStyle.Render("Next goal"), "  " + s.NextGoal}
	if len(s.ImprovementAreas) > 0 {
		lines = append(lines, "", sectionStyle.Render("Focus areas"))
		for _, area := range s.ImprovementAreas {
			lines = append(lines, "  - "+area)
		}
	}
	if len(s.DynamicTips) > 0 {
		lines = append(lines, "", sectionStyle.Render("Tips"))
		for _, tip := range s.DynamicTips {
			lines = append(lines, "  - "+tip)
		}
	}
	if errs := analytics.ErrorTable(s, topErrorKeys); len(errs.Rows) > 0 {
		lines = append(lines, "", sectionStyle.Render("Most missed keys"))
		lines = append(lines, errs.Lines()...)
	}
	return strings.Join(lines, "\n")
}

func historyTableData(results []model.Result) ([]table.Column, []table.Row) {
	t := analytics.HistoryTable(results)
	widths := []int{16, 5, 8, 5, 8}
	cols := make([]table.Column, len(t.Headers))
	for i, h := range t.Headers {
		cols[i] = table.Column{Title: h, Width: maxInt(widths[i], len(h))}
	}
	rows := make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = table.Row(r)
	}
	return cols, rows
}

func buildHistoryTable(results []model.Result, width, height int) table.Model {
	cols, rows := historyTableData(results)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(historyTableStyles())
	return t
}

func (m *Model) setHistoryTableSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.historyLayout.width == width && m.historyLayout.height == viewportHeight {
		return
	}
	m.historyLayout.width = width
	m.historyLayout.height = viewportHeight
	m.historyTable.SetWidth(width)
	m.historyTable.SetHeight(viewportHeight)
}

func historyTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
