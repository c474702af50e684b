// Package texts provides practice texts grouped by difficulty level.
package texts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Level names a group of practice texts.
type Level string

// Text levels. All combines every fixed level; Words generates a drill from a word list.
const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
	Expert       Level = "expert"
	Programming  Level = "programming"
	Numbers      Level = "numbers"
	Punctuation  Level = "punctuation"
	Special      Level = "special"
	All          Level = "all"
	Words        Level = "words"
)

// Levels lists the fixed levels in display order.
var Levels = []Level{Beginner, Intermediate, Advanced, Expert, Programming, Numbers, Punctuation, Special}

var descriptions = map[Level]string{
	All:          "Mixed difficulty from all categories",
	Beginner:     "Simple words and basic sentences",
	Intermediate: "Longer texts with common vocabulary",
	Advanced:     "Complex sentences and technical terms",
	Expert:       "Academic and professional content",
	Programming:  "Code snippets and syntax",
	Numbers:      "Numerical data and dates",
	Punctuation:  "Heavy punctuation practice",
	Special:      "Special characters and symbols",
	Words:        "Random drill from a word list",
}

// Describe returns a one-line description of level.
func Describe(level Level) string {
	if d, ok := descriptions[level]; ok {
		return d
	}
	return descriptions[Beginner]
}

// ParseLevel validates a level name.
func ParseLevel(name string) (Level, error) {
	level := Level(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := descriptions[level]; ok {
		return level, nil
	}
	names := make([]string, 0, len(descriptions))
	for l := range descriptions {
		names = append(names, string(l))
	}
	sort.Strings(names)
	return "", fmt.Errorf("unknown level %q (expected one of %s)", name, strings.Join(names, ", "))
}

// ForSkill maps an analytics skill level name to the matching text level.
func ForSkill(skill string) Level {
	switch strings.ToLower(skill) {
	case "intermediate":
		return Intermediate
	case "advanced":
		return Advanced
	case "expert":
		return Expert
	default:
		return Beginner
	}
}

// Catalog holds texts per level.
type Catalog struct {
	texts map[Level][]string
}

// Builtin returns the catalog shipped with the binary.
func Builtin() Catalog {
	c := Catalog{texts: make(map[Level][]string, len(builtinTexts))}
	for level, list := range builtinTexts {
		c.texts[level] = append([]string(nil), list...)
	}
	return c
}

// Texts returns the texts for level. All concatenates every fixed level in order.
func (c Catalog) Texts(level Level) []string {
	if level == All {
		var out []string
		for _, l := range Levels {
			out = append(out, c.texts[l]...)
		}
		return out
	}
	return append([]string(nil), c.texts[level]...)
}

// Count returns how many texts level holds.
func (c Catalog) Count(level Level) int {
	if level == All {
		n := 0
		for _, l := range Levels {
			n += len(c.texts[l])
		}
		return n
	}
	return len(c.texts[level])
}

// LoadFile reads a TOML file of level = ["text", ...] entries. Levels the file omits
// keep their built-in texts. A missing file yields the built-in catalog.
func LoadFile(path string) (Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("failed to stat texts: %w", err)
	}
	var raw map[string][]string
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return c, fmt.Errorf("failed to decode texts: %w", err)
	}
	for name, list := range raw {
		level := Level(strings.ToLower(name))
		if !isFixed(level) {
			return c, fmt.Errorf("unknown level %q in %s", name, path)
		}
		cleaned := cleanTexts(list)
		if len(cleaned) == 0 {
			continue
		}
		c.texts[level] = cleaned
	}
	return c, nil
}

func isFixed(level Level) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// cleanTexts collapses whitespace and drops empty and duplicate texts.
func cleanTexts(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, text := range list {
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}
