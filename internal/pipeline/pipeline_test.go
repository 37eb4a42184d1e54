package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/scriptcut/internal/types"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Talk.json", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-talk-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-talk-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func writeTranscript(t *testing.T, dir, name string, n int) string {
	t.Helper()
	tr := types.Transcript{Duration: float64(n) * 6}
	for i := 0; i < n; i++ {
		tr.Segments = append(tr.Segments, types.Segment{
			Start: float64(i) * 6,
			End:   float64(i+1) * 6,
			Text:  "We walk through the release checklist step by step",
			Words: []types.Word{{Start: float64(i) * 6, End: float64(i)*6 + 1, Word: "We"}},
		})
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal transcript: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return p
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	tr := writeTranscript(t, dir, "a.json", 1)
	base := Config{Transcripts: []string{tr}, Prompt: "p", TargetSeconds: 30}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "ok without key", mutate: func(*Config) {}},
		{name: "missing transcripts", mutate: func(c *Config) { c.Transcripts = nil }, wantErr: true},
		{name: "missing file", mutate: func(c *Config) { c.Transcripts = []string{filepath.Join(dir, "nope.json")} }, wantErr: true},
		{name: "blank prompt", mutate: func(c *Config) { c.Prompt = " " }, wantErr: true},
		{name: "zero target", mutate: func(c *Config) { c.TargetSeconds = 0 }, wantErr: true},
		{name: "bad base url with key", mutate: func(c *Config) {
			c.OpenRouterAPIKey = "k"
			c.OpenRouterBaseURL = "http://openrouter.ai"
		}, wantErr: true},
		{name: "bad base url ignored with no-ai", mutate: func(c *Config) {
			c.OpenRouterAPIKey = "k"
			c.OpenRouterBaseURL = "http://openrouter.ai"
			c.NoAI = true
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			err := c.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestRun_WritesArtifactsAndHistory(t *testing.T) {
	dir := t.TempDir()
	trA := writeTranscript(t, dir, "Main Cam.json", 10)
	trB := writeTranscript(t, dir, "side.json", 2)
	dbPath := filepath.Join(dir, "history.db")

	res, err := Run(context.Background(), Config{
		Transcripts:      []string{trA, trB},
		Prompt:           "release checklist",
		TargetSeconds:    30,
		OutDir:           filepath.Join(dir, "out"),
		Subtitles:        true,
		DBPath:           dbPath,
		NoAI:             true,
		OpenRouterAPIKey: "ignored",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(res.RunDir), "main-cam-") {
		t.Fatalf("unexpected run dir %s", res.RunDir)
	}

	for _, name := range []string{"script.json", "edit.json", "script.ass"} {
		if _, err := os.Stat(filepath.Join(res.RunDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	var gs types.GeneratedScript
	b, err := os.ReadFile(filepath.Join(res.RunDir, "script.json"))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if err := json.Unmarshal(b, &gs); err != nil {
		t.Fatalf("decode script: %v", err)
	}
	if gs.EstimatedDurationSeconds > 33 || len(gs.Segments) == 0 {
		t.Fatalf("rules path should stay within 110%% of target, got %v", gs.EstimatedDurationSeconds)
	}
	if gs.Metadata["strategy"] != "rules" {
		t.Fatalf("expected rules strategy with --no-ai, got %v", gs.Metadata["strategy"])
	}

	var el types.EditList
	b, err = os.ReadFile(filepath.Join(res.RunDir, "edit.json"))
	if err != nil {
		t.Fatalf("read edit list: %v", err)
	}
	if err := json.Unmarshal(b, &el); err != nil {
		t.Fatalf("decode edit list: %v", err)
	}
	if len(el.Clips) != len(gs.Segments) || el.Sequence == "" {
		t.Fatalf("edit list does not match script: %+v", el)
	}

	hist, err := History(context.Background(), dbPath, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].ID != res.RunID || hist[0].UserPrompt != "release checklist" {
		t.Fatalf("unexpected history %+v", hist)
	}
	stored, err := Show(context.Background(), dbPath, res.RunID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if stored.Title != gs.Title {
		t.Fatalf("stored title %q, want %q", stored.Title, gs.Title)
	}
}

func TestHistory_MissingDatabase(t *testing.T) {
	if _, err := History(context.Background(), "", 5); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := History(context.Background(), filepath.Join(t.TempDir(), "none.db"), 5); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

type fakeLoader struct {
	fail string
}

func (f fakeLoader) Load(_ context.Context, path string) (types.Transcript, error) {
	if path == f.fail {
		return types.Transcript{}, errors.New("boom")
	}
	return types.Transcript{Source: path}, nil
}

func TestLoadTranscripts_KeepsOrder(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f"}
	got, err := loadTranscripts(context.Background(), fakeLoader{}, paths)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, p := range paths {
		if got[i].Source != p {
			t.Fatalf("position %d: expected %s, got %s", i, p, got[i].Source)
		}
	}
	if _, err := loadTranscripts(context.Background(), fakeLoader{fail: "c"}, paths); err == nil {
		t.Fatalf("expected loader error to propagate")
	}
}
