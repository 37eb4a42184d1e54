package script

import (
	"strings"
	"testing"

	"github.com/forPelevin/scriptcut/internal/types"
)

func sel(src int, start, end float64, text string, conf types.Confidence) types.SelectedSegment {
	return types.SelectedSegment{SourceIndex: src, Start: start, End: end, Text: text, Confidence: conf}
}

func TestAssemble_RecomputesDurationAndRatio(t *testing.T) {
	in := Input{
		Selection: types.SelectionResult{
			Strategy: types.StrategyRules,
			Segments: []types.SelectedSegment{
				sel(0, 0, 10, "Intro line.", types.ConfidenceHigh),
				sel(0, 20, 25, "Second line", types.ConfidenceMedium),
			},
		},
		Goal:     "make it short",
		Target:   20,
		Original: 60,
		Metadata: map[string]any{"strategy": "rules"},
	}
	got := Assemble(in)

	if got.EstimatedDurationSeconds != 15 {
		t.Fatalf("expected 15s, got %v", got.EstimatedDurationSeconds)
	}
	if got.Metadata["compression_ratio"] != 0.25 {
		t.Fatalf("unexpected compression ratio: %v", got.Metadata["compression_ratio"])
	}
	if got.Metadata["strategy"] != "rules" || got.Metadata["high_confidence_decisions"] != 1 {
		t.Fatalf("unexpected metadata: %v", got.Metadata)
	}
	if _, leaked := in.Metadata["compression_ratio"]; leaked {
		t.Fatalf("assemble mutated the caller's metadata map")
	}
	for _, s := range got.Segments {
		if !s.Keep {
			t.Fatalf("expected keep flag on every emitted segment")
		}
	}
	if got.UserPrompt != "make it short" || got.Title != "Edit: make it short" {
		t.Fatalf("unexpected prompt/title: %q / %q", got.UserPrompt, got.Title)
	}
}

func TestAssemble_SynthesizesListingWithoutNarrative(t *testing.T) {
	got := Assemble(Input{
		Selection: types.SelectionResult{Segments: []types.SelectedSegment{
			sel(0, 1, 3.25, "hello there", types.ConfidenceMedium),
			sel(0, 65, 70, "later on", types.ConfidenceMedium),
		}},
		Target: 10,
	})
	want := "[00:01.0 - 00:03.3] hello there\n[01:05.0 - 01:10.0] later on"
	if got.FullText != want {
		t.Fatalf("unexpected listing:\n%s\nwant:\n%s", got.FullText, want)
	}
	if got.Metadata["compression_ratio"] != 0.0 {
		t.Fatalf("expected zero ratio without original duration, got %v", got.Metadata["compression_ratio"])
	}
}

func TestAssemble_KeepsNarrative(t *testing.T) {
	got := Assemble(Input{
		Selection: types.SelectionResult{
			Title:     "Story",
			Narrative: "  We open on the launch.  ",
			Segments:  []types.SelectedSegment{sel(0, 0, 1, "launch", types.ConfidenceHigh)},
		},
	})
	if got.FullText != "We open on the launch." || got.Title != "Story" {
		t.Fatalf("unexpected text/title: %q / %q", got.FullText, got.Title)
	}
}

func TestExport_SkipsDroppedSegments(t *testing.T) {
	gs := types.GeneratedScript{Segments: []types.ScriptSegment{
		{SelectedSegment: sel(0, 1, 2, "a", ""), Keep: true},
		{SelectedSegment: sel(0, 3, 4, "b", "")},
		{SelectedSegment: sel(1, 5, 6, "c", ""), Keep: true},
	}}
	el := Export(gs, "seq")
	if el.Sequence != "seq" || len(el.Clips) != 2 {
		t.Fatalf("unexpected edit list %+v", el)
	}
	if el.Clips[1] != (types.ExportClip{SourceIndex: 1, Start: 5, End: 6, Text: "c"}) {
		t.Fatalf("unexpected clip %+v", el.Clips[1])
	}
}

func TestRenderListing_MultiSource(t *testing.T) {
	segs := []types.ScriptSegment{
		{SelectedSegment: sel(0, 0, 1, "a", "")},
		{SelectedSegment: sel(1, 0, 1, "b", "")},
	}
	got := RenderListing(segs)
	if !strings.Contains(got, "[source 2 00:00.0 - 00:01.0] b") {
		t.Fatalf("expected source tag, got:\n%s", got)
	}
}

func TestPlanTransitions(t *testing.T) {
	segs := []types.ScriptSegment{
		{SelectedSegment: sel(0, 0, 5, "Sentence one.", "")},
		{SelectedSegment: sel(0, 5.2, 8, "and then", "")},
		{SelectedSegment: sel(0, 8.5, 9, "more", "")},
		{SelectedSegment: sel(0, 20, 25, "much later", "")},
		{SelectedSegment: sel(1, 0, 3, "other camera", "")},
	}
	got := PlanTransitions(segs)
	want := []string{"cut", "cross_fade", "fade", "cut"}
	if len(got) != len(want) {
		t.Fatalf("expected %d transitions, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Type != w {
			t.Fatalf("transition %d: expected %s, got %s (%s)", i, w, got[i].Type, got[i].Reason)
		}
	}
}

func TestClock(t *testing.T) {
	tests := map[float64]string{
		0:      "00:00.0",
		61.26:  "01:01.3",
		3725.5: "1:02:05.5",
		-4:     "00:00.0",
	}
	for in, want := range tests {
		if got := Clock(in); got != want {
			t.Fatalf("Clock(%v) = %q, want %q", in, got, want)
		}
	}
}
