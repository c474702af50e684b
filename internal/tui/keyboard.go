package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/session"
)

var keyboardRows = [][]string{
	{"`", "1", "2", "3", "4", "5", "6", "7", "8", "9", "0", "-", "=", session.KeyBackspace},
	{"Tab", "q", "w", "e", "r", "t", "y", "u", "i", "o", "p", "[", "]", "\\"},
	{"CapsLock", "a", "s", "d", "f", "g", "h", "j", "k", "l", ";", "'", "Enter"},
	{"Shift", "z", "x", "c", "v", "b", "n", "m", ",", ".", "/", "Shift"},
	{"Control", "Meta", "Alt", session.KeySpace, "Alt", "Meta", "Control"},
}

var keyLabels = map[string]string{
	session.KeyBackspace: "⌫",
	"Tab":                "tab",
	"CapsLock":           "caps",
	"Enter":              "enter",
	"Shift":              "shift",
	"Control":            "ctrl",
	"Meta":               "meta",
	"Alt":                "alt",
	session.KeySpace:     "      space      ",
}

// shiftedKeys maps shifted symbols to the physical key that produces them.
var shiftedKeys = map[string]string{
	"~": "`", "!": "1", "@": "2", "#": "3", "$": "4", "%": "5", "^": "6", "&": "7",
	"*": "8", "(": "9", ")": "0", "_": "-", "+": "=", "{": "[", "}": "]", "|": "\\",
	":": ";", `"`: "'", "<": ",", ">": ".", "?": "/",
}

var (
	keyStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	keyPressedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	keyCorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	keyIncorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

// physicalKey maps a visualization key id to its keyboard position.
func physicalKey(id string) string {
	if base, ok := shiftedKeys[id]; ok {
		return base
	}
	return id
}

func keyStyleFor(info model.KeyInfo, ok bool) lipgloss.Style {
	switch {
	case !ok:
		return keyStyle
	case info.IsIncorrect:
		return keyIncorrectStyle
	case info.IsCorrect:
		return keyCorrectStyle
	default:
		return keyPressedStyle
	}
}

func renderKeyboard(keys []model.KeyInfo) string {
	lit := make(map[string]model.KeyInfo, len(keys))
	for _, k := range keys {
		lit[physicalKey(k.Key)] = k
	}

	rows := make([]string, 0, len(keyboardRows))
	for _, row := range keyboardRows {
		cells := make([]string, 0, len(row))
		for _, key := range row {
			label, ok := keyLabels[key]
			if !ok {
				label = key
			}
			info, pressed := lit[key]
			cells = append(cells, keyStyleFor(info, pressed).Render("["+label+"]"))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return lipgloss.JoinVertical(lipgloss.Center, rows...)
}

func keyboardWidth() int {
	widest := 0
	for _, row := range keyboardRows {
		w := len(row) - 1
		for _, key := range row {
			label, ok := keyLabels[key]
			if !ok {
				label = key
			}
			w += runewidth.StringWidth(label) + 2
		}
		if w > widest {
			widest = w
		}
	}
	return widest
}
