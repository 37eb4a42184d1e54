package selection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forPelevin/scriptcut/internal/domain/pool"
	"github.com/forPelevin/scriptcut/internal/logger"
	"github.com/forPelevin/scriptcut/internal/types"
)

type analysisEntry struct {
	SourceIndex   *int     `json:"source_index"`
	SequenceIndex *int     `json:"sequence_index"`
	Start         *float64 `json:"start"`
	End           *float64 `json:"end"`
	Content       *string  `json:"content"`
	Reason        *string  `json:"reason"`
}

// ParseAnalysis validates a delegated response against the candidates that
// were offered. Missing top-level keys fail the whole response; bad entries
// are skipped and counted.
func ParseAnalysis(raw []byte, offered []types.Candidate, log *logger.Logger) (types.SelectionResult, error) {
	if log == nil {
		log = logger.Nop()
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return types.SelectionResult{}, fmt.Errorf("%w: decode response: %v", types.ErrAnalysisUnavailable, err)
	}
	for _, k := range []string{"title", "script", "segments"} {
		if _, ok := top[k]; !ok {
			return types.SelectionResult{}, fmt.Errorf("%w: response missing %q", types.ErrAnalysisUnavailable, k)
		}
	}

	title, err := requiredString(top, "title")
	if err != nil {
		return types.SelectionResult{}, err
	}
	script, err := requiredString(top, "script")
	if err != nil {
		return types.SelectionResult{}, err
	}
	if isNull(top["segments"]) {
		return types.SelectionResult{}, fmt.Errorf("%w: segments is null", types.ErrAnalysisUnavailable)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(top["segments"], &entries); err != nil {
		return types.SelectionResult{}, fmt.Errorf("%w: segments: %v", types.ErrAnalysisUnavailable, err)
	}

	index := pool.Index(offered)
	res := types.SelectionResult{
		Strategy:  types.StrategyAI,
		Title:     title,
		Narrative: script,
	}
	seen := make(map[types.Ref]bool, len(entries))
	for i, rawEntry := range entries {
		seg, verified, err := parseEntry(rawEntry, index, seen)
		if err != nil {
			res.Skipped++
			log.Warn("skipping delegated segment", "index", i, "error", err)
			continue
		}
		if !verified {
			res.Unverified++
		}
		seen[seg.Ref()] = true
		res.Segments = append(res.Segments, seg)
	}
	return res, nil
}

// requiredString decodes a top-level string that must be present, non-null
// and non-blank.
func requiredString(top map[string]json.RawMessage, key string) (string, error) {
	raw := top[key]
	if isNull(raw) {
		return "", fmt.Errorf("%w: %s is null", types.ErrAnalysisUnavailable, key)
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrAnalysisUnavailable, key, err)
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", fmt.Errorf("%w: %s is blank", types.ErrAnalysisUnavailable, key)
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func parseEntry(raw json.RawMessage, index map[types.Ref]types.Candidate, seen map[types.Ref]bool) (types.SelectedSegment, bool, error) {
	var e analysisEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: %v", types.ErrMalformedSegmentEntry, err)
	}
	var missing []string
	if e.SourceIndex == nil {
		missing = append(missing, "source_index")
	}
	if e.SequenceIndex == nil {
		missing = append(missing, "sequence_index")
	}
	if e.Start == nil {
		missing = append(missing, "start")
	}
	if e.End == nil {
		missing = append(missing, "end")
	}
	if e.Content == nil {
		missing = append(missing, "content")
	}
	if e.Reason == nil {
		missing = append(missing, "reason")
	}
	if len(missing) > 0 {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: missing %s", types.ErrMalformedSegmentEntry, strings.Join(missing, ", "))
	}

	ref := types.Ref{Source: *e.SourceIndex, Sequence: *e.SequenceIndex}
	cand, ok := index[ref]
	if !ok {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: unknown segment %d/%d", types.ErrMalformedSegmentEntry, ref.Source, ref.Sequence)
	}
	if seen[ref] {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: duplicate segment %d/%d", types.ErrMalformedSegmentEntry, ref.Source, ref.Sequence)
	}
	if !(*e.End > *e.Start) {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: end %.2f not after start %.2f", types.ErrMalformedSegmentEntry, *e.End, *e.Start)
	}
	content := strings.TrimSpace(*e.Content)
	if content == "" {
		return types.SelectedSegment{}, false, fmt.Errorf("%w: empty content", types.ErrMalformedSegmentEntry)
	}

	verified := strings.Contains(normalize(cand.Text), normalize(content))
	conf := types.ConfidenceHigh
	if !verified {
		conf = types.ConfidenceMedium
	}
	return types.SelectedSegment{
		SourceIndex:   ref.Source,
		SequenceIndex: ref.Sequence,
		Start:         *e.Start,
		End:           *e.End,
		Text:          content,
		Reason:        strings.TrimSpace(*e.Reason),
		Confidence:    conf,
	}, verified, nil
}

func normalize(s string) string {
	return strings.Join(pool.Words(s), " ")
}
