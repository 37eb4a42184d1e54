package transcriptfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/forPelevin/scriptcut/internal/types"
)

// Adapter reads transcripts that an upstream speech-to-text step wrote to
// disk. Two layouts are accepted: a "segments" list with start/end in
// seconds, and whisper.cpp's -oj output with a "transcription" list whose
// offsets are in milliseconds.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

type fileLayout struct {
	Source        string          `json:"source"`
	Duration      float64         `json:"duration"`
	Segments      []types.Segment `json:"segments"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (a *Adapter) Load(ctx context.Context, path string) (types.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return types.Transcript{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	var f fileLayout
	if err := json.Unmarshal(b, &f); err != nil {
		return types.Transcript{}, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	tr := types.Transcript{Source: f.Source, Duration: f.Duration, Segments: f.Segments}
	if tr.Segments == nil && f.Transcription != nil {
		tr.Segments = make([]types.Segment, 0, len(f.Transcription))
		for _, t := range f.Transcription {
			tr.Segments = append(tr.Segments, types.Segment{
				Start: float64(t.Offsets.From) / 1000,
				End:   float64(t.Offsets.To) / 1000,
				Text:  t.Text,
			})
		}
	}
	if tr.Segments == nil {
		return types.Transcript{}, fmt.Errorf("parse transcript %s: neither segments nor transcription present", path)
	}
	if strings.TrimSpace(tr.Source) == "" {
		tr.Source = filepath.Base(path)
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	return tr, nil
}
