package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the knobs of the selection engine. Zero-valued fields in a
// tuning file keep their defaults.
type Tuning struct {
	SampleBudget int `yaml:"sample_budget"`

	FillerWords          []string `yaml:"filler_words"`
	ImportanceKeywords   []string `yaml:"importance_keywords"`
	CriticalContentTypes []string `yaml:"critical_content_types"`
	LowValueContentTypes []string `yaml:"low_value_content_types"`

	MinWords            int     `yaml:"min_words"`
	DefaultKeepMinWords int     `yaml:"default_keep_min_words"`
	DefaultKeepMaxWords int     `yaml:"default_keep_max_words"`
	MaxFillerDensity    float64 `yaml:"max_filler_density"`

	AIToleranceSeconds   float64 `yaml:"ai_tolerance_seconds"`
	FallbackTriggerRatio float64 `yaml:"fallback_trigger_ratio"`
	FallbackCapRatio     float64 `yaml:"fallback_cap_ratio"`
}

func Default() Tuning {
	return Tuning{
		SampleBudget:         50,
		FillerWords:          []string{"um", "uh", "like", "you know", "so", "well"},
		ImportanceKeywords:   []string{"important", "key", "main", "first", "second", "next", "finally", "conclusion"},
		CriticalContentTypes: []string{"main_point", "topic_introduction", "introduction", "conclusion"},
		LowValueContentTypes: []string{"filler", "greeting"},
		MinWords:             2,
		DefaultKeepMinWords:  4,
		DefaultKeepMaxWords:  50,
		MaxFillerDensity:     0.3,
		AIToleranceSeconds:   30,
		FallbackTriggerRatio: 1.2,
		FallbackCapRatio:     1.1,
	}
}

// Load reads a YAML tuning file and layers it over Default. An empty path
// returns the defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning: %w", err)
	}
	var file Tuning
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	t = t.merge(file)
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) merge(o Tuning) Tuning {
	if o.SampleBudget != 0 {
		t.SampleBudget = o.SampleBudget
	}
	if o.FillerWords != nil {
		t.FillerWords = o.FillerWords
	}
	if o.ImportanceKeywords != nil {
		t.ImportanceKeywords = o.ImportanceKeywords
	}
	if o.CriticalContentTypes != nil {
		t.CriticalContentTypes = o.CriticalContentTypes
	}
	if o.LowValueContentTypes != nil {
		t.LowValueContentTypes = o.LowValueContentTypes
	}
	if o.MinWords != 0 {
		t.MinWords = o.MinWords
	}
	if o.DefaultKeepMinWords != 0 {
		t.DefaultKeepMinWords = o.DefaultKeepMinWords
	}
	if o.DefaultKeepMaxWords != 0 {
		t.DefaultKeepMaxWords = o.DefaultKeepMaxWords
	}
	if o.MaxFillerDensity != 0 {
		t.MaxFillerDensity = o.MaxFillerDensity
	}
	if o.AIToleranceSeconds != 0 {
		t.AIToleranceSeconds = o.AIToleranceSeconds
	}
	if o.FallbackTriggerRatio != 0 {
		t.FallbackTriggerRatio = o.FallbackTriggerRatio
	}
	if o.FallbackCapRatio != 0 {
		t.FallbackCapRatio = o.FallbackCapRatio
	}
	return t
}

func (t Tuning) Validate() error {
	if t.SampleBudget < 2 {
		return errors.New("sample_budget must be >= 2")
	}
	if t.MinWords < 0 {
		return errors.New("min_words must be >= 0")
	}
	if t.DefaultKeepMinWords > t.DefaultKeepMaxWords {
		return errors.New("default_keep_min_words must be <= default_keep_max_words")
	}
	if t.MaxFillerDensity <= 0 || t.MaxFillerDensity > 1 {
		return errors.New("max_filler_density must be in (0, 1]")
	}
	if t.AIToleranceSeconds < 0 {
		return errors.New("ai_tolerance_seconds must be >= 0")
	}
	if t.FallbackCapRatio <= 0 {
		return errors.New("fallback_cap_ratio must be > 0")
	}
	if t.FallbackTriggerRatio < t.FallbackCapRatio {
		return fmt.Errorf("fallback_trigger_ratio (%.2f) must be >= fallback_cap_ratio (%.2f)", t.FallbackTriggerRatio, t.FallbackCapRatio)
	}
	return nil
}
