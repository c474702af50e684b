package session

import (
	"time"

	"github.com/verte-zerg/epulse/internal/model"
)

func findKey(keys []model.KeyInfo, id string) int {
	for i, k := range keys {
		if k.Key == id {
			return i
		}
	}
	return -1
}

func pressKey(keys []model.KeyInfo, id string, at time.Time) []model.KeyInfo {
	out := append([]model.KeyInfo(nil), keys...)
	if idx := findKey(out, id); idx >= 0 {
		out[idx].IsPressed = true
		out[idx].LastPressAt = at
		return out
	}
	return append(out, model.KeyInfo{Key: id, IsPressed: true, LastPressAt: at})
}

func markKey(keys []model.KeyInfo, id string, correct bool) []model.KeyInfo {
	idx := findKey(keys, id)
	if idx < 0 {
		return keys
	}
	keys[idx].IsCorrect = correct
	keys[idx].IsIncorrect = !correct
	return keys
}

func releaseKey(keys []model.KeyInfo, id string, at time.Time) []model.KeyInfo {
	idx := findKey(keys, id)
	if idx < 0 {
		return keys
	}
	out := append([]model.KeyInfo(nil), keys...)
	out[idx].IsPressed = false
	return pruneKeys(out, at)
}

// pruneKeys drops released keys whose last press is older than KeyHoldWindow.
func pruneKeys(keys []model.KeyInfo, now time.Time) []model.KeyInfo {
	out := make([]model.KeyInfo, 0, len(keys))
	for _, k := range keys {
		if k.IsPressed || now.Sub(k.LastPressAt) < KeyHoldWindow {
			out = append(out, k)
		}
	}
	return out
}
