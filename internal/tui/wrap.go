package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func buildStyledRunes(targetRunes, typedRunes []rune, cursor int) []styledRune {
	current, hasCurrent := wordAt(targetRunes, cursor)

	out := make([]styledRune, 0, len(targetRunes))
	for i, target := range targetRunes {
		displayed := target
		style := pendingStyle
		switch {
		case i < len(typedRunes) && typedRunes[i] == target:
			style = correctStyle
		case i < len(typedRunes) && target == ' ':
			displayed = '•'
			style = incorrectStyle
		case i < len(typedRunes):
			style = incorrectStyle
		case target != ' ' && hasCurrent && i >= current.start && i < current.end:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

// wordAt returns the word containing cursor, or the next word when cursor sits on a space.
// A negative cursor selects the first word.
func wordAt(targetRunes []rune, cursor int) (wordRange, bool) {
	if cursor < 0 {
		cursor = 0
	}
	var last wordRange
	found := false
	start := -1
	for i := 0; i <= len(targetRunes); i++ {
		if i < len(targetRunes) && targetRunes[i] != ' ' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start == -1 {
			continue
		}
		w := wordRange{start: start, end: i}
		if cursor < w.end {
			return w, true
		}
		last, found = w, true
		start = -1
	}
	return last, found
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks runes into lines of at most width cells, preferring to break at
// the last space. Words longer than a line are split.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var lines []string
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0

	flush := func(upTo int) {
		lines = append(lines, renderStyledRunes(line[:upTo]))
		rest := line[upTo:]
		if len(rest) > 0 && rest[0].isSpace {
			rest = rest[1:]
		}
		line = append(line[:0:0], rest...)
		lineWidth = 0
		for _, item := range line {
			lineWidth += item.width
		}
	}

	for _, item := range runes {
		for lineWidth+item.width > width && len(line) > 0 {
			if idx := lastSpaceIndex(line); idx >= 0 {
				flush(idx)
			} else {
				flush(len(line))
			}
		}
		if item.isSpace && len(line) == 0 && len(lines) > 0 {
			continue
		}
		line = append(line, item)
		lineWidth += item.width
	}
	lines = append(lines, renderStyledRunes(line))
	return strings.Join(lines, "\n")
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
