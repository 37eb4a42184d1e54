package pool

import (
	"fmt"
	"strings"

	"github.com/forPelevin/scriptcut/internal/types"
)

// Build flattens per-source transcripts into one ordered candidate list.
// Segments keep their position within their source as SequenceIndex, so
// entries skipped for bad timing or empty text leave gaps in the numbering.
func Build(trs []types.Transcript, filler *FillerMatcher, maxFillerDensity float64) ([]types.Candidate, error) {
	if len(trs) == 0 {
		return nil, fmt.Errorf("%w: no transcripts", types.ErrInvalidInput)
	}

	var out []types.Candidate
	for si, tr := range trs {
		for qi, s := range tr.Segments {
			text := strings.TrimSpace(s.Text)
			if text == "" || s.End <= s.Start {
				continue
			}
			ct := strings.TrimSpace(strings.ToLower(s.ContentType))
			if ct == "" {
				ct = types.ContentUnknown
			}
			words := Words(text)
			density := filler.Density(words)
			out = append(out, types.Candidate{
				SourceIndex:   si,
				SequenceIndex: qi,
				Start:         s.Start,
				End:           s.End,
				Text:          text,
				ContentType:   ct,
				Duration:      s.End - s.Start,
				WordCount:     len(words),
				FillerDensity: density,
				IsFiller:      ct == "filler" || (len(words) > 0 && density >= maxFillerDensity),
			})
		}
	}
	return out, nil
}

// OriginalDuration sums per-source durations. A source without a reported
// duration counts up to its last segment end.
func OriginalDuration(trs []types.Transcript) float64 {
	var total float64
	for _, tr := range trs {
		if tr.Duration > 0 {
			total += tr.Duration
			continue
		}
		var last float64
		for _, s := range tr.Segments {
			if s.End > last {
				last = s.End
			}
		}
		total += last
	}
	return total
}

// Index maps refs back to candidates.
func Index(cands []types.Candidate) map[types.Ref]types.Candidate {
	m := make(map[types.Ref]types.Candidate, len(cands))
	for _, c := range cands {
		m[c.Ref()] = c
	}
	return m
}
