package analytics

import (
	"math"
	"time"

	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/stats"
)

const (
	consistencyWindow     = 10
	consistencyMinResults = 3
	improvementMinResults = 5
)

// Record folds r into prev as of now and returns the updated state. prev is not modified.
func Record(prev State, r model.Result, now time.Time) State {
	prev = prev.normalize()
	today := now.Format(DateLayout)
	isNewDay := prev.LastActivityDate != today

	next := prev
	next.RecentResults = prependResult(prev.RecentResults, r)

	next.CurrentStreak, next.LongestStreak = updateStreak(prev, now)
	if isNewDay {
		next.TestsToday = 1
	} else {
		next.TestsToday = prev.TestsToday + 1
	}
	if r.WPM > prev.BestWPM {
		next.BestWPM = r.WPM
	}
	next.TotalTests = prev.TotalTests + 1
	next.TotalTypingTime = prev.TotalTypingTime + r.Duration/60
	if r.Accuracy == 100 {
		next.PerfectAccuracyTests = prev.PerfectAccuracyTests + 1
	}
	next.LastActivityDate = today

	next.AverageWPM, next.AverageAccuracy = averages(next.RecentResults)
	next.PersonalBests = updatePersonalBests(prev.PersonalBests, r, today)
	next.WeeklyProgress = updateProgress(prev.WeeklyProgress, r, now)
	next.TimeOfDayPerformance = updateTimeOfDay(prev.TimeOfDayPerformance, r, now)

	next.ConsistencyScore = Consistency(next.RecentResults)
	next.ImprovementRate = ImprovementRate(next.RecentResults)
	next.ErrorPatterns = ErrorPatterns(next.RecentResults)

	next.SkillLevel = ClassifySkill(next.AverageWPM, next.AverageAccuracy)
	next.ImprovementAreas = ImprovementAreas(next)
	next.DynamicTips = Tips(next)
	next.NextGoal = NextGoal(next)
	return next
}

// Rollover applies calendar-day rollover to a freshly loaded state: the daily counter
// resets, and the streak breaks when more than one day has passed since the last session.
func Rollover(s State, now time.Time) State {
	today := now.Format(DateLayout)
	if s.LastActivityDate == "" || s.LastActivityDate == today {
		return s
	}
	s.TestsToday = 0
	if days, ok := daysBetween(s.LastActivityDate, now); !ok || days > 1 {
		s.CurrentStreak = 0
	}
	return s
}

// TimeOfDayFor buckets a local time.
func TimeOfDayFor(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < 12:
		return Morning
	case h < 18:
		return Afternoon
	default:
		return Evening
	}
}

// Consistency scores speed stability over the most recent results on a 0-100 scale.
func Consistency(recent []model.Result) float64 {
	if len(recent) < consistencyMinResults {
		return 0
	}
	speeds := wpmValues(recent[:min(len(recent), consistencyWindow)])
	return stats.Clamp(100-2*stats.StdDev(speeds), 0, 100)
}

// ImprovementRate compares mean WPM of the newer half of the most recent results
// against the older half.
func ImprovementRate(recent []model.Result) float64 {
	if len(recent) < improvementMinResults {
		return 0
	}
	window := recent[:min(len(recent), consistencyWindow)]
	speeds := wpmValues(window)
	// oldest first
	for i, j := 0, len(speeds)-1; i < j; i, j = i+1, j-1 {
		speeds[i], speeds[j] = speeds[j], speeds[i]
	}
	half := len(speeds) / 2
	return stats.Mean(speeds[half:]) - stats.Mean(speeds[:half])
}

// ErrorPatterns sums per-key error counts over recent results.
func ErrorPatterns(recent []model.Result) map[string]int {
	out := map[string]int{}
	for _, r := range recent {
		for key, n := range r.ErrorKeys {
			out[key] += n
		}
	}
	return out
}

func prependResult(recent []model.Result, r model.Result) []model.Result {
	n := min(len(recent)+1, MaxRecentResults)
	out := make([]model.Result, 0, n)
	out = append(out, r)
	out = append(out, recent[:n-1]...)
	return out
}

func updateStreak(prev State, now time.Time) (current, longest int) {
	current, longest = prev.CurrentStreak, prev.LongestStreak
	today := now.Format(DateLayout)
	switch {
	case prev.LastActivityDate == today:
		if current == 0 {
			current = 1
		}
	case prev.LastActivityDate == now.AddDate(0, 0, -1).Format(DateLayout):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func averages(recent []model.Result) (wpm, accuracy int) {
	if len(recent) == 0 {
		return 0, 0
	}
	var wpmSum, accSum int
	for _, r := range recent {
		wpmSum += r.WPM
		accSum += r.Accuracy
	}
	n := float64(len(recent))
	return int(math.Round(float64(wpmSum) / n)), int(math.Round(float64(accSum) / n))
}

func updatePersonalBests(pb PersonalBests, r model.Result, today string) PersonalBests {
	if float64(r.WPM) > pb.FastestWPM.Value {
		pb.FastestWPM = PersonalBest{Value: float64(r.WPM), Date: today}
	}
	if float64(r.Accuracy) > pb.HighestAccuracy.Value {
		pb.HighestAccuracy = PersonalBest{Value: float64(r.Accuracy), Date: today}
	}
	if r.Duration > pb.LongestSession.Value {
		pb.LongestSession = PersonalBest{Value: r.Duration, Date: today}
	}
	return pb
}

func updateProgress(prev []DayProgress, r model.Result, now time.Time) []DayProgress {
	today := now.Format(DateLayout)
	cutoff := now.AddDate(0, 0, -ProgressWindowDays).Format(DateLayout)

	out := make([]DayProgress, 0, len(prev)+1)
	found := false
	for _, p := range prev {
		if p.Date == today {
			found = true
			tests := p.Tests + 1
			p.WPM = max(p.WPM, r.WPM)
			p.Accuracy = roundedIncrementalMean(p.Accuracy, p.Tests, r.Accuracy)
			p.AvgTime = (p.AvgTime*float64(p.Tests) + r.Duration) / float64(tests)
			p.Tests = tests
		}
		// ISO dates order lexically.
		if p.Date < cutoff {
			continue
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, DayProgress{
			Date:     today,
			WPM:      r.WPM,
			Accuracy: r.Accuracy,
			Tests:    1,
			AvgTime:  r.Duration,
		})
	}
	return out
}

func updateTimeOfDay(prev map[TimeOfDay]Bucket, r model.Result, now time.Time) map[TimeOfDay]Bucket {
	out := make(map[TimeOfDay]Bucket, len(prev)+1)
	for k, v := range prev {
		out[k] = v
	}
	tod := TimeOfDayFor(now)
	b, ok := out[tod]
	if !ok || b.Count == 0 {
		out[tod] = Bucket{WPM: r.WPM, Accuracy: r.Accuracy, Count: 1}
		return out
	}
	out[tod] = Bucket{
		WPM:      roundedIncrementalMean(b.WPM, b.Count, r.WPM),
		Accuracy: roundedIncrementalMean(b.Accuracy, b.Count, r.Accuracy),
		Count:    b.Count + 1,
	}
	return out
}

func roundedIncrementalMean(mean, count, value int) int {
	return int(math.Round(float64(mean*count+value) / float64(count+1)))
}

func wpmValues(results []model.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = float64(r.WPM)
	}
	return out
}

// daysBetween returns whole calendar days from the persisted date to now.
func daysBetween(date string, now time.Time) (int, bool) {
	then, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return 0, false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ty, tm, td := then.Date()
	start := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(today.Sub(start).Hours() / 24), true
}
