package reconcile

import (
	"math"
	"sort"

	"github.com/forPelevin/scriptcut/internal/types"
)

type Options struct {
	// CapRatio bounds the rules strategy at target*CapRatio.
	CapRatio float64
	// ToleranceSeconds is the band reported for the delegated strategy.
	ToleranceSeconds float64
}

// Report describes what Reconcile had to correct.
type Report struct {
	InvalidDropped   int
	DuplicateDropped int
	Reordered        bool
	Truncated        int
	ForcedKeep       bool
	DeltaSeconds     float64
	WithinTolerance  bool
}

// Reconcile returns a selection that is non-empty, has positive-length
// segments and is ordered by (source, start). The rules strategy is capped at
// target*CapRatio; the delegated strategy only gets its overshoot recorded.
func Reconcile(res types.SelectionResult, pool []types.Candidate, target float64, opts Options) (types.SelectionResult, Report) {
	var rep Report
	out := res
	out.Segments = make([]types.SelectedSegment, 0, len(res.Segments))

	seen := make(map[types.Ref]bool, len(res.Segments))
	for _, s := range res.Segments {
		if !(s.End > s.Start) {
			rep.InvalidDropped++
			continue
		}
		if seen[s.Ref()] {
			rep.DuplicateDropped++
			continue
		}
		seen[s.Ref()] = true
		out.Segments = append(out.Segments, s)
	}

	if len(out.Segments) == 0 && len(pool) > 0 {
		out.Segments = append(out.Segments, ForceKeep(pool))
		out.ForcedKeep = true
		rep.ForcedKeep = true
	}

	if !sorted(out.Segments) {
		sort.SliceStable(out.Segments, func(i, j int) bool { return less(out.Segments[i], out.Segments[j]) })
		rep.Reordered = true
	}

	if res.Strategy == types.StrategyRules && opts.CapRatio > 0 {
		before := len(out.Segments)
		out.Segments = Truncate(out.Segments, target*opts.CapRatio)
		rep.Truncated = before - len(out.Segments)
	}

	total := TotalDuration(out.Segments)
	rep.DeltaSeconds = total - target
	if res.Strategy == types.StrategyRules {
		rep.WithinTolerance = total <= target*opts.CapRatio
	} else {
		rep.WithinTolerance = math.Abs(rep.DeltaSeconds) <= opts.ToleranceSeconds
	}
	return out, rep
}

// Truncate keeps the longest prefix whose cumulative duration fits limit.
// When not even the first segment fits, the first segment that fits on its
// own is kept instead, or the shortest one if none does.
func Truncate(segs []types.SelectedSegment, limit float64) []types.SelectedSegment {
	if len(segs) == 0 {
		return nil
	}
	var cum float64
	n := 0
	for _, s := range segs {
		if cum+s.Duration() > limit {
			break
		}
		cum += s.Duration()
		n++
	}
	if n > 0 {
		return append([]types.SelectedSegment(nil), segs[:n]...)
	}

	pick := 0
	for i, s := range segs {
		if s.Duration() <= limit {
			pick = i
			break
		}
		if s.Duration() < segs[pick].Duration() {
			pick = i
		}
	}
	return []types.SelectedSegment{segs[pick]}
}

func TotalDuration(segs []types.SelectedSegment) float64 {
	var total float64
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}

// ForceKeep keeps the first pool candidate when nothing else survived.
func ForceKeep(pool []types.Candidate) types.SelectedSegment {
	c := pool[0]
	return types.SelectedSegment{
		SourceIndex:   c.SourceIndex,
		SequenceIndex: c.SequenceIndex,
		Start:         c.Start,
		End:           c.End,
		Text:          c.Text,
		Reason:        "forced keep: no segment passed selection",
		Confidence:    types.ConfidenceLow,
	}
}

func sorted(segs []types.SelectedSegment) bool {
	for i := 1; i < len(segs); i++ {
		if less(segs[i], segs[i-1]) {
			return false
		}
	}
	return true
}

func less(a, b types.SelectedSegment) bool {
	if a.SourceIndex != b.SourceIndex {
		return a.SourceIndex < b.SourceIndex
	}
	return a.Start < b.Start
}
