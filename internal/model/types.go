// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	// Level is a text level name; empty means follow the current skill level.
	Level        string
	TextsPath    string
	WordListPath string
	DrillWords   int
	CapsPct      float64
	PunctPct     float64
	PunctSet     string
}

// ForwardConfig controls best-effort delivery of results to the results endpoint.
type ForwardConfig struct {
	Enabled     bool
	URL         string
	Timeout     time.Duration
	MaxInFlight int
}

// Result is the record produced once per completed typing session.
type Result struct {
	ID         string  `json:"id"`
	WPM        int     `json:"wpm"`
	Accuracy   int     `json:"accuracy"`
	Timestamp  int64   `json:"timestamp"`
	TextLength int     `json:"textLength"`
	Duration   float64 `json:"duration"`
	// ErrorKeys counts mismatched keystrokes by the key that was expected.
	ErrorKeys map[string]int `json:"errorKeys,omitempty"`
}

// CompletedAt returns the result timestamp as local time.
func (r Result) CompletedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// KeyInfo is the visualization state of a single physical key.
type KeyInfo struct {
	Key         string
	IsPressed   bool
	IsCorrect   bool
	IsIncorrect bool
	LastPressAt time.Time
}
