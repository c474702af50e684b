package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySkill(t *testing.T) {
	cases := []struct {
		wpm, acc int
		want     SkillLevel
	}{
		{0, 0, Beginner},
		{29, 99, Beginner},
		{30, 90, Intermediate},
		{49, 99, Intermediate},
		{50, 94, Advanced},
		{80, 95, Advanced},
		{70, 96, Expert},
		{90, 89, Beginner},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifySkill(tc.wpm, tc.acc), "wpm=%d acc=%d", tc.wpm, tc.acc)
	}
}

func TestTipsKeepFirstThree(t *testing.T) {
	s := State{AverageWPM: 20, AverageAccuracy: 80, ConsistencyScore: 10}
	assert.Equal(t, []string{
		"Slow down and focus on accuracy - it's more important than speed",
		"Practice typing without looking at the keyboard",
		"Practice the home row keys (ASDF JKL;) until they're automatic",
	}, Tips(s))

	s = State{AverageWPM: 55, AverageAccuracy: 90, ConsistencyScore: 90, CurrentStreak: 0}
	assert.Equal(t, []string{
		"Great accuracy! Now work on maintaining it while increasing speed",
		"Work on difficult letter combinations and punctuation",
		"Try longer texts to build endurance",
	}, Tips(s))

	s = State{AverageWPM: 80, AverageAccuracy: 97, ConsistencyScore: 50, CurrentStreak: 0}
	assert.Equal(t, []string{
		"Focus on maintaining steady rhythm rather than bursts of speed",
		"Try to practice daily, even if just for 5 minutes",
	}, Tips(s))
}

func TestImprovementAreas(t *testing.T) {
	s := State{AverageWPM: 20, AverageAccuracy: 80, ConsistencyScore: 10}
	assert.Equal(t, []string{
		"Accuracy needs improvement",
		"Work on typing consistency",
		"Build typing speed gradually",
	}, ImprovementAreas(s))

	s = State{AverageWPM: 60, AverageAccuracy: 97, ConsistencyScore: 90, CurrentStreak: 3}
	assert.Equal(t, []string{
		"Maintain excellent performance",
		"Challenge yourself with harder texts",
		"Help others improve their typing",
	}, ImprovementAreas(s))
}

func TestNextGoal(t *testing.T) {
	cases := []struct {
		level SkillLevel
		acc   int
		want  string
	}{
		{Beginner, 85, "Achieve 90% accuracy consistently"},
		{Beginner, 92, "Reach 30 WPM with 90% accuracy"},
		{Intermediate, 91, "Improve accuracy to 94%"},
		{Intermediate, 95, "Reach 50 WPM with 94% accuracy"},
		{Advanced, 95, "Achieve 96% accuracy"},
		{Advanced, 96, "Reach 70 WPM with 96% accuracy"},
		{Expert, 99, "Maintain expert level and help others improve"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NextGoal(State{SkillLevel: tc.level, AverageAccuracy: tc.acc}))
	}
}
