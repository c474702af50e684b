package analytics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/stats"
)

// TrendWindow is the moving-average window of the smoothed WPM series.
const TrendWindow = 5

// ReportOptions controls plain-text report rendering.
type ReportOptions struct {
	// PlotWidth is passed to the progress chart; zero sizes it to the terminal.
	PlotWidth  int
	ForceColor bool
	// TopErrors caps the error-pattern table.
	TopErrors int
}

// KeyCount is a key and how many errors were recorded against it.
type KeyCount struct {
	Key   string
	Count int
}

// TopErrorKeys returns the n most frequently mistyped keys, most frequent first.
func TopErrorKeys(patterns map[string]int, n int) []KeyCount {
	out := make([]KeyCount, 0, len(patterns))
	for k, c := range patterns {
		if c > 0 {
			out = append(out, KeyCount{Key: k, Count: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SummaryTable lists headline numbers.
func SummaryTable(s State) stats.Table {
	return stats.Table{
		Headers:    []string{"metric", "value"},
		RightAlign: map[int]bool{1: true},
		Rows: [][]string{
			{"skill level", string(s.SkillLevel)},
			{"tests", strconv.Itoa(s.TotalTests)},
			{"tests today", strconv.Itoa(s.TestsToday)},
			{"avg wpm", strconv.Itoa(s.AverageWPM)},
			{"avg accuracy", fmt.Sprintf("%d%%", s.AverageAccuracy)},
			{"best wpm", strconv.Itoa(s.BestWPM)},
			{"typing time", formatMinutes(s.TotalTypingTime)},
			{"streak", fmt.Sprintf("%d (best %d)", s.CurrentStreak, s.LongestStreak)},
			{"perfect tests", strconv.Itoa(s.PerfectAccuracyTests)},
			{"consistency", fmt.Sprintf("%.0f", s.ConsistencyScore)},
			{"improvement", fmt.Sprintf("%+.1f wpm", s.ImprovementRate)},
		},
	}
}

// PersonalBestsTable lists the records and when they were set.
func PersonalBestsTable(s State) stats.Table {
	pb := s.PersonalBests
	return stats.Table{
		Headers:    []string{"record", "value", "date"},
		RightAlign: map[int]bool{1: true},
		Rows: [][]string{
			{"fastest", fmt.Sprintf("%.0f wpm", pb.FastestWPM.Value), dashIfEmpty(pb.FastestWPM.Date)},
			{"most accurate", fmt.Sprintf("%.0f%%", pb.HighestAccuracy.Value), dashIfEmpty(pb.HighestAccuracy.Date)},
			{"longest", fmt.Sprintf("%.1fs", pb.LongestSession.Value), dashIfEmpty(pb.LongestSession.Date)},
		},
	}
}

// ProgressTable lists daily progress in date order.
func ProgressTable(s State) stats.Table {
	t := stats.Table{
		Headers:    []string{"date", "best wpm", "accuracy", "tests", "avg time"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, p := range sortedProgress(s.WeeklyProgress) {
		t.Rows = append(t.Rows, []string{
			p.Date,
			strconv.Itoa(p.WPM),
			fmt.Sprintf("%d%%", p.Accuracy),
			strconv.Itoa(p.Tests),
			fmt.Sprintf("%.1fs", p.AvgTime),
		})
	}
	return t
}

// TimeOfDayTable lists bucketed performance.
func TimeOfDayTable(s State) stats.Table {
	t := stats.Table{
		Headers:    []string{"time", "wpm", "accuracy", "tests"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true},
	}
	for _, tod := range TimesOfDay {
		b, ok := s.TimeOfDayPerformance[tod]
		if !ok || b.Count == 0 {
			continue
		}
		t.Rows = append(t.Rows, []string{
			string(tod),
			strconv.Itoa(b.WPM),
			fmt.Sprintf("%d%%", b.Accuracy),
			strconv.Itoa(b.Count),
		})
	}
	return t
}

// ErrorTable lists the most mistyped keys.
func ErrorTable(s State, n int) stats.Table {
	t := stats.Table{
		Headers:    []string{"key", "errors"},
		RightAlign: map[int]bool{1: true},
	}
	for _, kc := range TopErrorKeys(s.ErrorPatterns, n) {
		t.Rows = append(t.Rows, []string{displayKey(kc.Key), strconv.Itoa(kc.Count)})
	}
	return t
}

// HistoryTable lists results, in the order given.
func HistoryTable(results []model.Result) stats.Table {
	t := stats.Table{
		Headers:    []string{"completed", "wpm", "accuracy", "chars", "duration"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.CompletedAt().Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			strconv.Itoa(r.TextLength),
			fmt.Sprintf("%.1fs", r.Duration),
		})
	}
	return t
}

// WriteReport renders the full analytics report.
func WriteReport(w io.Writer, s State, opts ReportOptions) error {
	if opts.TopErrors <= 0 {
		opts.TopErrors = 10
	}
	if s.TotalTests == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}

	if err := writeSection(w, "Summary", SummaryTable(s)); err != nil {
		return err
	}
	if err := writeSection(w, "Personal bests", PersonalBestsTable(s)); err != nil {
		return err
	}

	progress := sortedProgress(s.WeeklyProgress)
	if len(progress) > 0 {
		if err := writeSection(w, "Last 14 days", ProgressTable(s)); err != nil {
			return err
		}
	}
	if len(s.RecentResults) > 1 {
		if _, err := fmt.Fprintf(w, "\nRecent wpm  %s\n", RecentSparkline(s)); err != nil {
			return err
		}
		if err := stats.PlotSeries(w, "Recent sessions", RecentSeries(s), stats.PlotOptions{
			Width:      opts.PlotWidth,
			ForceColor: opts.ForceColor,
		}); err != nil {
			return err
		}
	}
	if tod := TimeOfDayTable(s); len(tod.Rows) > 0 {
		if err := writeSection(w, "Time of day", tod); err != nil {
			return err
		}
	}
	if errs := ErrorTable(s, opts.TopErrors); len(errs.Rows) > 0 {
		if err := writeSection(w, "Most missed keys", errs); err != nil {
			return err
		}
	}
	return writeGuidance(w, s)
}

// RecentSeries returns WPM, its moving average over TrendWindow results, and accuracy of
// recent results, oldest first.
func RecentSeries(s State) []stats.Series {
	wpm, acc := recentValues(s)
	return []stats.Series{
		{Name: "wpm", Values: wpm},
		{Name: fmt.Sprintf("wpm avg(%d)", TrendWindow), Values: stats.MovingAverage(wpm, TrendWindow)},
		{Name: "accuracy", Values: acc},
	}
}

// RecentSparkline renders recent WPM, oldest first, as a one-line trend.
func RecentSparkline(s State) string {
	wpm, _ := recentValues(s)
	return stats.Sparkline(wpm)
}

func recentValues(s State) (wpm, acc []float64) {
	n := len(s.RecentResults)
	wpm = make([]float64, n)
	acc = make([]float64, n)
	for i, r := range s.RecentResults {
		wpm[n-1-i] = float64(r.WPM)
		acc[n-1-i] = float64(r.Accuracy)
	}
	return wpm, acc
}

func writeSection(w io.Writer, title string, t stats.Table) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	_, err := t.WriteTo(w)
	return err
}

func writeGuidance(w io.Writer, s State) error {
	if _, err := fmt.Fprintf(w, "\nNext goal: %s\n", s.NextGoal); err != nil {
		return err
	}
	lists := []struct {
		title string
		items []string
	}{
		{"Focus areas", s.ImprovementAreas},
		{"Tips", s.DynamicTips},
	}
	for _, l := range lists {
		if len(l.items) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s\n", l.title); err != nil {
			return err
		}
		for _, item := range l.items {
			if _, err := fmt.Fprintf(w, "  - %s\n", item); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedProgress(progress []DayProgress) []DayProgress {
	out := append([]DayProgress(nil), progress...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

func formatMinutes(minutes float64) string {
	d := time.Duration(minutes * float64(time.Minute)).Round(time.Second)
	return d.String()
}

func displayKey(key string) string {
	if key == " " {
		return "space"
	}
	return key
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
