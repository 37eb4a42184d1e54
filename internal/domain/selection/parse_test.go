package selection

import (
	"errors"
	"testing"

	"github.com/forPelevin/scriptcut/internal/types"
)

func offered() []types.Candidate {
	return []types.Candidate{
		{SourceIndex: 0, SequenceIndex: 0, Start: 0, End: 5, Duration: 5, Text: "Welcome to the quarterly review."},
		{SourceIndex: 0, SequenceIndex: 2, Start: 9, End: 14, Duration: 5, Text: "Revenue grew, and churn dropped by half."},
		{SourceIndex: 1, SequenceIndex: 0, Start: 0, End: 3, Duration: 3, Text: "Questions from the audience."},
	}
}

func TestParseAnalysis_MissingTopLevelKey(t *testing.T) {
	cases := map[string]string{
		"title":         `{"script":"s","segments":[]}`,
		"script":        `{"title":"t","segments":[]}`,
		"segments":      `{"title":"t","script":"s"}`,
		"not json":      `nope`,
		"null title":    `{"title":null,"script":"s","segments":[]}`,
		"null script":   `{"title":"t","script":null,"segments":[]}`,
		"blank title":   `{"title":"  ","script":"s","segments":[]}`,
		"number script": `{"title":"t","script":3,"segments":[]}`,
		"null segments": `{"title":"t","script":"s","segments":null}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAnalysis([]byte(raw), offered(), nil)
			if !errors.Is(err, types.ErrAnalysisUnavailable) {
				t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
			}
		})
	}
}

func TestParseAnalysis_SkipsBadEntries(t *testing.T) {
	raw := `{
		"title": " Review ",
		"script": "Growth story.",
		"segments": [
			{"source_index":0,"sequence_index":2,"start":9,"end":14,"content":"churn dropped by half","reason":"key metric"},
			{"source_index":0,"sequence_index":0,"start":0,"end":5,"content":"Welcome"},
			{"source_index":0,"sequence_index":7,"start":20,"end":25,"content":"made up","reason":"x"},
			{"source_index":0,"sequence_index":2,"start":9,"end":14,"content":"again","reason":"dup"},
			{"source_index":1,"sequence_index":0,"start":3,"end":3,"content":"Questions","reason":"zero length"},
			{"source_index":1,"sequence_index":0,"start":0,"end":3,"content":"   ","reason":"blank"},
			"garbage",
			{"source_index":1,"sequence_index":0,"start":0,"end":3,"content":"Answers from the panel","reason":"paraphrased"}
		]
	}`
	res, err := ParseAnalysis([]byte(raw), offered(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != types.StrategyAI || res.Title != "Review" || res.Narrative != "Growth story." {
		t.Fatalf("unexpected header: %+v", res)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 accepted segments, got %d: %+v", len(res.Segments), res.Segments)
	}
	if res.Skipped != 6 {
		t.Fatalf("expected 6 skipped entries, got %d", res.Skipped)
	}
	if res.Unverified != 1 {
		t.Fatalf("expected 1 unverified entry, got %d", res.Unverified)
	}
	if res.Segments[0].Confidence != types.ConfidenceHigh || res.Segments[0].Reason != "key metric" {
		t.Fatalf("unexpected first segment: %+v", res.Segments[0])
	}
	if res.Segments[1].Confidence != types.ConfidenceMedium {
		t.Fatalf("paraphrased text should drop to medium confidence, got %s", res.Segments[1].Confidence)
	}
}

func TestParseAnalysis_RejectsRefsOutsideOffered(t *testing.T) {
	// sequence 1 exists in the source but was not part of the sampled set
	raw := `{"title":"t","script":"s","segments":[
		{"source_index":0,"sequence_index":1,"start":5,"end":9,"content":"x","reason":"r"}
	]}`
	res, err := ParseAnalysis([]byte(raw), offered(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Segments) != 0 || res.Skipped != 1 {
		t.Fatalf("expected the entry to be skipped, got %+v", res)
	}
}
