package strategy

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	punctuation = regexp.MustCompile(`[^\w\s]`)
	lettersOnly = regexp.MustCompile(`^[A-Za-z]+$`)
)

// NameStrategy picks the most likely medicine name from OCR text. Strategies
// are pure: no I/O, same input gives the same output.
type NameStrategy interface {
	Extract(text string) (string, bool)
	GetStrategyName() string
}

// candidates strips punctuation, splits on whitespace and keeps purely
// alphabetic tokens longer than two characters, in text order.
func candidates(text string) []string {
	cleaned := punctuation.ReplaceAllString(text, "")
	var out []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 2 && lettersOnly.MatchString(word) {
			out = append(out, word)
		}
	}
	return out
}

// FirstTokenStrategy returns the first qualifying token. On label text such
// as "Take TYLENOL twice daily" this yields "Take".
type FirstTokenStrategy struct{}

// NewFirstTokenStrategy creates the first-token heuristic
func NewFirstTokenStrategy() NameStrategy {
	return &FirstTokenStrategy{}
}

func (s *FirstTokenStrategy) Extract(text string) (string, bool) {
	words := candidates(text)
	if len(words) == 0 {
		return "", false
	}
	return words[0], true
}

func (s *FirstTokenStrategy) GetStrategyName() string {
	return "first-token"
}

// MostFrequentStrategy returns the qualifying token seen most often; ties go
// to the token that appeared first. Matching is case sensitive.
type MostFrequentStrategy struct{}

// NewMostFrequentStrategy creates the most-frequent heuristic
func NewMostFrequentStrategy() NameStrategy {
	return &MostFrequentStrategy{}
}

func (s *MostFrequentStrategy) Extract(text string) (string, bool) {
	words := candidates(text)
	if len(words) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(words))
	best, bestCount := "", 0
	for _, w := range words {
		counts[w]++
	}
	for _, w := range words {
		if counts[w] > bestCount {
			best, bestCount = w, counts[w]
		}
	}
	return best, true
}

func (s *MostFrequentStrategy) GetStrategyName() string {
	return "most-frequent"
}

// ByName returns the strategy registered under name.
func ByName(name string) (NameStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first-token":
		return NewFirstTokenStrategy(), nil
	case "most-frequent":
		return NewMostFrequentStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown name strategy %q", name)
	}
}

// NameContext holds the strategy selected by configuration.
type NameContext struct {
	strategy NameStrategy
}

// NewNameContext creates a context around strategy
func NewNameContext(strategy NameStrategy) *NameContext {
	return &NameContext{
		strategy: strategy,
	}
}

func (c *NameContext) ExtractName(text string) (string, bool) {
	return c.strategy.Extract(text)
}

func (c *NameContext) GetCurrentStrategy() string {
	return c.strategy.GetStrategyName()
}
