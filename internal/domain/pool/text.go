package pool

import (
	"sort"
	"strings"
	"unicode"
)

// Words splits text into lower-cased tokens with surrounding punctuation removed.
func Words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// FillerMatcher counts words covered by a closed filler stoplist. Entries
// may be multi-word phrases ("you know").
type FillerMatcher struct {
	phrases [][]string
}

func NewFillerMatcher(stoplist []string) *FillerMatcher {
	m := &FillerMatcher{}
	for _, s := range stoplist {
		p := Words(s)
		if len(p) > 0 {
			m.phrases = append(m.phrases, p)
		}
	}
	// longest phrase wins at each position
	sort.SliceStable(m.phrases, func(i, j int) bool { return len(m.phrases[i]) > len(m.phrases[j]) })
	return m
}

// Count returns how many of words belong to filler phrases.
func (m *FillerMatcher) Count(words []string) int {
	if m == nil {
		return 0
	}
	n := 0
	for i := 0; i < len(words); {
		matched := 0
		for _, p := range m.phrases {
			if hasPrefix(words[i:], p) {
				matched = len(p)
				break
			}
		}
		if matched > 0 {
			n += matched
			i += matched
			continue
		}
		i++
	}
	return n
}

// Density is Count over the number of words, 0 for empty input.
func (m *FillerMatcher) Density(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	return float64(m.Count(words)) / float64(len(words))
}

func hasPrefix(words, phrase []string) bool {
	if len(phrase) > len(words) {
		return false
	}
	for i, w := range phrase {
		if words[i] != w {
			return false
		}
	}
	return true
}
