package selection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/forPelevin/scriptcut/internal/config"
	"github.com/forPelevin/scriptcut/internal/domain/reconcile"
	"github.com/forPelevin/scriptcut/internal/types"
)

// Rules is the deterministic selection strategy. It never looks at the goal
// text and works on the full pool.
type Rules struct {
	minWords         int
	keepMinWords     int
	keepMaxWords     int
	maxFillerDensity float64
	triggerRatio     float64
	capRatio         float64

	important *regexp.Regexp
	critical  map[string]bool
	lowValue  map[string]bool
}

func NewRules(t config.Tuning) Rules {
	return Rules{
		minWords:         t.MinWords,
		keepMinWords:     t.DefaultKeepMinWords,
		keepMaxWords:     t.DefaultKeepMaxWords,
		maxFillerDensity: t.MaxFillerDensity,
		triggerRatio:     t.FallbackTriggerRatio,
		capRatio:         t.FallbackCapRatio,
		important:        keywordRE(t.ImportanceKeywords),
		critical:         toSet(t.CriticalContentTypes),
		lowValue:         toSet(t.LowValueContentTypes),
	}
}

// CapRatio is the share of the target the rules path may fill.
func (r Rules) CapRatio() float64 { return r.capRatio }

func (r Rules) Select(pool []types.Candidate, target float64) types.SelectionResult {
	res := types.SelectionResult{Strategy: types.StrategyRules}
	if len(pool) == 0 {
		return res
	}

	var kept []types.SelectedSegment
	for _, c := range pool {
		ok, reason, conf := r.judge(c)
		if !ok {
			continue
		}
		kept = append(kept, fromCandidate(c, reason, conf))
	}

	if len(kept) == 0 {
		res.ForcedKeep = true
		kept = []types.SelectedSegment{reconcile.ForceKeep(pool)}
	}

	if total := reconcile.TotalDuration(kept); total > target*r.triggerRatio {
		kept = reconcile.Truncate(kept, target*r.capRatio)
	}
	res.Segments = kept
	return res
}

// judge decides a single candidate. Questions and importance keywords win
// over filler density; anything else without a signal is kept when its word
// count is in the default range.
func (r Rules) judge(c types.Candidate) (bool, string, types.Confidence) {
	if c.WordCount <= r.minWords {
		return false, "", ""
	}
	if strings.HasSuffix(strings.TrimSpace(c.Text), "?") {
		return true, "question, likely important", types.ConfidenceHigh
	}
	if r.important != nil {
		if kw := r.important.FindString(c.Text); kw != "" {
			return true, fmt.Sprintf("importance keyword %q", strings.ToLower(kw)), types.ConfidenceHigh
		}
	}
	if c.FillerDensity >= r.maxFillerDensity {
		return false, "", ""
	}
	if r.critical[c.ContentType] {
		return true, fmt.Sprintf("important content (%s)", c.ContentType), types.ConfidenceHigh
	}
	if r.lowValue[c.ContentType] {
		return false, "", ""
	}
	if c.WordCount >= r.keepMinWords && c.WordCount <= r.keepMaxWords {
		return true, "default keep", types.ConfidenceMedium
	}
	return false, "", ""
}

func fromCandidate(c types.Candidate, reason string, conf types.Confidence) types.SelectedSegment {
	return types.SelectedSegment{
		SourceIndex:   c.SourceIndex,
		SequenceIndex: c.SequenceIndex,
		Start:         c.Start,
		End:           c.End,
		Text:          c.Text,
		Reason:        reason,
		Confidence:    conf,
	}
}

func keywordRE(words []string) *regexp.Regexp {
	var parts []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts = append(parts, strings.Join(strings.Fields(regexp.QuoteMeta(w)), `\s+`))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(parts, "|") + `)\b`)
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[strings.ToLower(strings.TrimSpace(x))] = true
	}
	return m
}
