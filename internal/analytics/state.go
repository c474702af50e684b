// Package analytics maintains rolling typing statistics across sessions.
package analytics

import (
	"github.com/verte-zerg/epulse/internal/model"
)

// SkillLevel classifies a typist by rolling average speed and accuracy.
type SkillLevel string

// Skill levels, lowest first.
const (
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
	Expert       SkillLevel = "Expert"
)

// TimeOfDay names a local-time bucket.
type TimeOfDay string

// Time-of-day buckets.
const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// TimesOfDay lists buckets in display order.
var TimesOfDay = []TimeOfDay{Morning, Afternoon, Evening}

const (
	// MaxRecentResults bounds the rolling result list.
	MaxRecentResults = 100
	// ProgressWindowDays is how many days of daily progress are kept.
	ProgressWindowDays = 14
	// DateLayout formats calendar dates in persisted state.
	DateLayout = "2006-01-02"
)

// PersonalBest is a record value and the date it was set.
type PersonalBest struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// PersonalBests holds the tracked records.
type PersonalBests struct {
	FastestWPM      PersonalBest `json:"fastestWPM"`
	HighestAccuracy PersonalBest `json:"highestAccuracy"`
	LongestSession  PersonalBest `json:"longestSession"`
}

// DayProgress summarizes one calendar day.
type DayProgress struct {
	Date     string  `json:"date"`
	WPM      int     `json:"wpm"`
	Accuracy int     `json:"accuracy"`
	Tests    int     `json:"tests"`
	AvgTime  float64 `json:"avgTime"`
}

// Bucket is an incrementally averaged time-of-day sample.
type Bucket struct {
	WPM      int `json:"wpm"`
	Accuracy int `json:"accuracy"`
	Count    int `json:"count"`
}

// State is the persisted analytics snapshot.
type State struct {
	TestsToday      int     `json:"testsToday"`
	BestWPM         int     `json:"bestWPM"`
	AverageWPM      int     `json:"averageWPM"`
	AverageAccuracy int     `json:"averageAccuracy"`
	TotalTests      int     `json:"totalTests"`
	TotalTypingTime float64 `json:"totalTypingTime"` // minutes

	RecentResults    []model.Result `json:"recentResults"`
	LastActivityDate string         `json:"lastTestDate"`
	WeeklyProgress   []DayProgress  `json:"weeklyProgress"`

	ConsistencyScore     float64              `json:"consistencyScore"`
	ImprovementRate      float64              `json:"improvementRate"`
	ErrorPatterns        map[string]int       `json:"errorPatterns"`
	TimeOfDayPerformance map[TimeOfDay]Bucket `json:"timeOfDayPerformance"`

	CurrentStreak        int           `json:"currentStreak"`
	LongestStreak        int           `json:"longestStreak"`
	PerfectAccuracyTests int           `json:"perfectAccuracyTests"`
	PersonalBests        PersonalBests `json:"personalBests"`

	ImprovementAreas []string   `json:"improvementAreas"`
	DynamicTips      []string   `json:"dynamicTips"`
	SkillLevel       SkillLevel `json:"skillLevel"`
	NextGoal         string     `json:"nextGoal"`
}

// Default returns the state of a user with no recorded sessions.
func Default() State {
	return State{
		RecentResults:        []model.Result{},
		WeeklyProgress:       []DayProgress{},
		ErrorPatterns:        map[string]int{},
		TimeOfDayPerformance: map[TimeOfDay]Bucket{},
		ImprovementAreas: []string{
			"Focus on accuracy first",
			"Practice common words",
			"Work on finger placement",
		},
		DynamicTips: []string{
			"Start with accuracy, speed will follow",
			"Practice 15 minutes daily",
			"Use proper finger positioning",
		},
		SkillLevel: Beginner,
		NextGoal:   "Reach 25 WPM with 90% accuracy",
	}
}

// normalize fills nil collections left by partial persisted data.
func (s State) normalize() State {
	def := Default()
	if s.RecentResults == nil {
		s.RecentResults = def.RecentResults
	}
	if s.WeeklyProgress == nil {
		s.WeeklyProgress = def.WeeklyProgress
	}
	if s.ErrorPatterns == nil {
		s.ErrorPatterns = def.ErrorPatterns
	}
	if s.TimeOfDayPerformance == nil {
		s.TimeOfDayPerformance = def.TimeOfDayPerformance
	}
	if s.SkillLevel == "" {
		s.SkillLevel = def.SkillLevel
	}
	if s.NextGoal == "" {
		s.NextGoal = def.NextGoal
	}
	return s
}
