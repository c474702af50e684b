package texts

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"
	"unicode"
)

// DrillOptions shapes a generated word drill.
type DrillOptions struct {
	Words    int
	CapsPct  float64
	PunctPct float64
	PunctSet []rune
}

// DefaultDrillWords is the drill length when none is configured.
const DefaultDrillWords = 25

// Generator picks texts and builds word drills.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a deterministic Generator.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns a random text from list, avoiding prev when another choice exists.
func (g *Generator) Pick(list []string, prev string) string {
	if len(list) == 0 {
		return ""
	}
	candidates := make([]string, 0, len(list))
	for _, text := range list {
		if text != prev {
			candidates = append(candidates, text)
		}
	}
	if len(candidates) == 0 {
		return list[0]
	}
	return candidates[g.rnd.Intn(len(candidates))]
}

// Drill builds a space-separated drill from words. An empty list uses the built-in vocabulary.
func (g *Generator) Drill(words []string, opts DrillOptions) string {
	if len(words) == 0 {
		words = builtinWords
	}
	count := opts.Words
	if count <= 0 {
		count = DefaultDrillWords
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, opts.CapsPct)
		word = applyPunct(g.rnd, word, opts.PunctPct, opts.PunctSet)
		out = append(out, word)
	}
	return strings.Join(out, " ")
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 || rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 || rnd.Float64() > punctPct {
		return word
	}
	return word + string(punctSet[rnd.Intn(len(punctSet))])
}

// LoadWords reads one word per line, skipping blanks and lines starting with #.
// Words with whitespace or control characters are rejected.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort close for a read-only file.
		_ = file.Close()
	}()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !typeable(line) {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s is empty", path)
	}
	return words, nil
}

func typeable(word string) bool {
	for _, r := range word {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
