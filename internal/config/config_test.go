package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SampleBudget != 50 {
		t.Fatalf("expected default sample budget 50, got %d", got.SampleBudget)
	}
	if got.FallbackCapRatio != 1.1 || got.FallbackTriggerRatio != 1.2 {
		t.Fatalf("unexpected fallback ratios: %v / %v", got.FallbackTriggerRatio, got.FallbackCapRatio)
	}
}

func TestLoad_OverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "sample_budget: 20\nfiller_words: [erm, basically]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write tuning: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SampleBudget != 20 {
		t.Fatalf("expected sample budget 20, got %d", got.SampleBudget)
	}
	if len(got.FillerWords) != 2 || got.FillerWords[0] != "erm" {
		t.Fatalf("unexpected filler words: %v", got.FillerWords)
	}
	if len(got.ImportanceKeywords) != len(Default().ImportanceKeywords) {
		t.Fatalf("expected default importance keywords to survive, got %v", got.ImportanceKeywords)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"negative budget":  "sample_budget: -1\n",
		"budget of one":    "sample_budget: 1\n",
		"density above 1":  "max_filler_density: 1.5\n",
		"ratios inverted":  "fallback_trigger_ratio: 1.05\n",
		"keep range wrong": "default_keep_min_words: 80\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tuning.yaml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write tuning: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read tuning") {
		t.Fatalf("expected read error, got %v", err)
	}
}
