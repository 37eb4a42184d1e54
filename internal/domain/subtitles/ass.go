package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/scriptcut/internal/types"
)

// RenderScriptASS renders the kept segments of a script as subtitles on the
// edited timeline: segments are laid back to back in script order. Segments
// whose source carries word timestamps get karaoke lines; the rest get one
// plain dialogue line each. trs may be nil.
func RenderScriptASS(gs types.GeneratedScript, trs []types.Transcript) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	var offset time.Duration
	for _, s := range gs.Segments {
		if !s.Keep {
			continue
		}
		start, end := dur(s.Start), dur(s.End)
		if end <= start {
			continue
		}
		words := collectWords(sourceWords(trs, s.SelectedSegment), start, end, offset)
		if len(words) > 0 {
			for _, ln := range packWords(words) {
				writeKaraoke(&b, ln)
			}
		} else if text := sanitizeASS(s.Text); text != "" {
			writeDialogue(&b, offset, offset+end-start, text)
		}
		offset += end - start
	}
	return b.String()
}

type wword struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []wword
}

func sourceWords(trs []types.Transcript, s types.SelectedSegment) []types.Word {
	if s.SourceIndex < 0 || s.SourceIndex >= len(trs) {
		return nil
	}
	segs := trs[s.SourceIndex].Segments
	if s.SequenceIndex < 0 || s.SequenceIndex >= len(segs) {
		return nil
	}
	return segs[s.SequenceIndex].Words
}

// collectWords clips words to [start, end) and moves them onto the edited
// timeline at offset.
func collectWords(ws []types.Word, start, end, offset time.Duration) []wword {
	var out []wword
	for _, w := range ws {
		s, e := dur(w.Start), dur(w.End)
		if e <= start || s >= end {
			continue
		}
		text := sanitizeASS(w.Word)
		if text == "" {
			continue
		}
		if s < start {
			s = start
		}
		if e > end {
			e = end
		}
		out = append(out, wword{Start: s - start + offset, End: e - start + offset, Text: text})
	}
	return out
}

func packWords(words []wword) []line {
	var out []line
	cur := line{Start: words[0].Start}
	charBudget := 42
	wordBudget := 9
	curLen := 0
	for i, w := range words {
		wl := len([]rune(w.Text))
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		if len(cur.Words) >= wordBudget || nextLen > charBudget {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func writeKaraoke(b *strings.Builder, ln line) {
	var text strings.Builder
	for _, w := range ln.Words {
		durCS := int((w.End - w.Start) / (10 * time.Millisecond))
		if durCS < 1 {
			durCS = 1
		}
		fmt.Fprintf(&text, "{\\k%d}%s ", durCS, w.Text)
	}
	writeDialogue(b, ln.Start, ln.End, strings.TrimSpace(text.String()))
}

func writeDialogue(b *strings.Builder, start, end time.Duration, text string) {
	b.WriteString("Dialogue: 0,")
	b.WriteString(assTime(start))
	b.WriteString(",")
	b.WriteString(assTime(end))
	b.WriteString(",Script,,0,0,0,,")
	b.WriteString(text)
	b.WriteString("\n")
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Script, Inter, 56, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,4,1,2, 80,80,60,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
