package script

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/scriptcut/internal/types"
)

type Input struct {
	Selection types.SelectionResult
	Goal      string
	Target    float64
	Original  float64
	// Metadata is copied, never retained.
	Metadata map[string]any
}

// Assemble builds the final script. Durations are recomputed from the kept
// segments; nothing upstream is trusted for them.
func Assemble(in Input) types.GeneratedScript {
	segs := make([]types.ScriptSegment, 0, len(in.Selection.Segments))
	var estimated float64
	high := 0
	for _, s := range in.Selection.Segments {
		segs = append(segs, types.ScriptSegment{SelectedSegment: s, Keep: true})
		estimated += s.Duration()
		if s.Confidence == types.ConfidenceHigh {
			high++
		}
	}

	meta := make(map[string]any, len(in.Metadata)+4)
	for k, v := range in.Metadata {
		meta[k] = v
	}
	ratio := 0.0
	if in.Original > 0 {
		ratio = estimated / in.Original
	}
	meta["compression_ratio"] = round(ratio, 4)
	meta["segments_kept"] = len(segs)
	meta["high_confidence_decisions"] = high

	title := strings.TrimSpace(in.Selection.Title)
	if title == "" {
		title = defaultTitle(in.Goal)
	}
	text := strings.TrimSpace(in.Selection.Narrative)
	if text == "" {
		text = RenderListing(segs)
	}

	return types.GeneratedScript{
		Title:                    title,
		Segments:                 segs,
		Transitions:              PlanTransitions(segs),
		FullText:                 text,
		TargetDurationSeconds:    in.Target,
		EstimatedDurationSeconds: estimated,
		OriginalDurationSeconds:  in.Original,
		UserPrompt:               in.Goal,
		Metadata:                 meta,
	}
}

// Export flattens the kept segments into the ordered tuples timeline
// serializers consume.
func Export(gs types.GeneratedScript, sequence string) types.EditList {
	el := types.EditList{Sequence: sequence, Clips: make([]types.ExportClip, 0, len(gs.Segments))}
	for _, s := range gs.Segments {
		if !s.Keep {
			continue
		}
		el.Clips = append(el.Clips, types.ExportClip{
			SourceIndex: s.SourceIndex,
			Start:       s.Start,
			End:         s.End,
			Text:        s.Text,
		})
	}
	return el
}

// RenderListing is the timestamped fallback rendering of a script.
func RenderListing(segs []types.ScriptSegment) string {
	multi := false
	for _, s := range segs {
		if s.SourceIndex != segs[0].SourceIndex {
			multi = true
			break
		}
	}
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('\n')
		}
		if multi {
			fmt.Fprintf(&b, "[source %d %s - %s] %s", s.SourceIndex+1, Clock(s.Start), Clock(s.End), s.Text)
			continue
		}
		fmt.Fprintf(&b, "[%s - %s] %s", Clock(s.Start), Clock(s.End), s.Text)
	}
	return b.String()
}

// PlanTransitions picks how consecutive kept segments are joined.
func PlanTransitions(segs []types.ScriptSegment) []types.Transition {
	if len(segs) < 2 {
		return nil
	}
	out := make([]types.Transition, 0, len(segs)-1)
	for i := 0; i+1 < len(segs); i++ {
		cur, next := segs[i], segs[i+1]
		t := types.Transition{FromIndex: i, ToIndex: i + 1}
		switch {
		case cur.SourceIndex != next.SourceIndex:
			t.Type, t.Reason = "cut", "source change"
		case next.Start-cur.End > 1.0:
			t.Type, t.Duration, t.Reason = "fade", 0.5, "large time gap between segments"
		case strings.HasSuffix(strings.TrimSpace(cur.Text), "."):
			t.Type, t.Reason = "cut", "natural sentence boundary"
		default:
			t.Type, t.Duration, t.Reason = "cross_fade", 0.3, "smooth content transition"
		}
		out = append(out, t)
	}
	return out
}

// Clock formats seconds as m:ss.d, or h:mm:ss.d past the hour.
func Clock(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	tenths := int(math.Round(sec * 10))
	h := tenths / 36000
	m := (tenths / 600) % 60
	s := (tenths / 10) % 60
	d := tenths % 10
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%d", h, m, s, d)
	}
	return fmt.Sprintf("%02d:%02d.%d", m, s, d)
}

func defaultTitle(goal string) string {
	g := strings.Join(strings.Fields(goal), " ")
	r := []rune(g)
	if len(r) > 60 {
		g = strings.TrimSpace(string(r[:60])) + "..."
	}
	if g == "" {
		return "Edited script"
	}
	return "Edit: " + g
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
