package analytics

const maxGuidance = 3

// ClassifySkill maps rolling averages to a skill level.
func ClassifySkill(avgWPM, avgAccuracy int) SkillLevel {
	switch {
	case avgWPM >= 70 && avgAccuracy >= 96:
		return Expert
	case avgWPM >= 50 && avgAccuracy >= 94:
		return Advanced
	case avgWPM >= 30 && avgAccuracy >= 90:
		return Intermediate
	default:
		return Beginner
	}
}

// Tips returns up to three practice tips for s.
func Tips(s State) []string {
	var tips []string
	if s.AverageAccuracy < 85 {
		tips = append(tips,
			"Slow down and focus on accuracy - it's more important than speed",
			"Practice typing without looking at the keyboard")
	} else if s.AverageAccuracy < 95 {
		tips = append(tips, "Great accuracy! Now work on maintaining it while increasing speed")
	}

	switch {
	case s.AverageWPM < 30:
		tips = append(tips,
			"Practice the home row keys (ASDF JKL;) until they're automatic",
			"Use proper finger positioning for each key")
	case s.AverageWPM < 50:
		tips = append(tips,
			"Try typing common word combinations to build muscle memory",
			"Practice typing without pausing between words")
	case s.AverageWPM < 70:
		tips = append(tips,
			"Work on difficult letter combinations and punctuation",
			"Try longer texts to build endurance")
	}

	if s.ConsistencyScore < 70 {
		tips = append(tips, "Focus on maintaining steady rhythm rather than bursts of speed")
	}
	if s.CurrentStreak == 0 {
		tips = append(tips, "Try to practice daily, even if just for 5 minutes")
	}
	return firstN(tips, maxGuidance)
}

// ImprovementAreas returns up to three areas to work on.
func ImprovementAreas(s State) []string {
	var areas []string
	if s.AverageAccuracy < 90 {
		areas = append(areas, "Accuracy needs improvement")
	}
	if s.ConsistencyScore < 70 {
		areas = append(areas, "Work on typing consistency")
	}
	if s.AverageWPM < 40 {
		areas = append(areas, "Build typing speed gradually")
	}
	if s.CurrentStreak < 3 {
		areas = append(areas, "Establish daily practice routine")
	}
	if len(areas) == 0 {
		areas = append(areas,
			"Maintain excellent performance",
			"Challenge yourself with harder texts",
			"Help others improve their typing")
	}
	return firstN(areas, maxGuidance)
}

// NextGoal suggests the next milestone for the current skill level.
func NextGoal(s State) string {
	switch s.SkillLevel {
	case Intermediate:
		if s.AverageAccuracy < 94 {
			return "Improve accuracy to 94%"
		}
		return "Reach 50 WPM with 94% accuracy"
	case Advanced:
		if s.AverageAccuracy < 96 {
			return "Achieve 96% accuracy"
		}
		return "Reach 70 WPM with 96% accuracy"
	case Expert:
		return "Maintain expert level and help others improve"
	default:
		if s.AverageAccuracy < 90 {
			return "Achieve 90% accuracy consistently"
		}
		return "Reach 30 WPM with 90% accuracy"
	}
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		items = items[:n]
	}
	return items
}
