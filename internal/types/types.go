package types

import "time"

// Transcript is one source's transcription as produced upstream.
type Transcript struct {
	Source   string    `json:"source,omitempty"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Segment is a timed span of transcript text.
type Segment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	ContentType string  `json:"content_type,omitempty"`
	Words       []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

const ContentUnknown = "unknown"

// Candidate is a pool entry: a segment addressed by (SourceIndex, SequenceIndex).
type Candidate struct {
	SourceIndex   int
	SequenceIndex int
	Start         float64
	End           float64
	Text          string
	ContentType   string

	Duration      float64
	WordCount     int
	FillerDensity float64
	IsFiller      bool
}

func (c Candidate) Ref() Ref { return Ref{Source: c.SourceIndex, Sequence: c.SequenceIndex} }

// Ref points back at a pool candidate.
type Ref struct {
	Source   int
	Sequence int
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Strategy string

const (
	StrategyAI    Strategy = "ai"
	StrategyRules Strategy = "rules"
)

type SelectedSegment struct {
	SourceIndex   int        `json:"source_index"`
	SequenceIndex int        `json:"sequence_index"`
	Start         float64    `json:"start"`
	End           float64    `json:"end"`
	Text          string     `json:"text"`
	Reason        string     `json:"reason"`
	Confidence    Confidence `json:"confidence"`
}

func (s SelectedSegment) Duration() float64 { return s.End - s.Start }

func (s SelectedSegment) Ref() Ref { return Ref{Source: s.SourceIndex, Sequence: s.SequenceIndex} }

// SelectionResult is what a selector strategy hands to the reconciler.
type SelectionResult struct {
	Strategy  Strategy
	Title     string
	Narrative string
	Segments  []SelectedSegment

	// Skipped counts delegated entries dropped during validation.
	Skipped int
	// Unverified counts delegated entries whose text is not found in the source segment.
	Unverified int
	ForcedKeep bool
	// FallbackReason is set when the rules strategy ran because the delegated one could not.
	FallbackReason string
}

type ScriptSegment struct {
	SelectedSegment
	Keep bool `json:"keep"`
}

type Transition struct {
	FromIndex int     `json:"from_index"`
	ToIndex   int     `json:"to_index"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Reason    string  `json:"reason"`
}

type GeneratedScript struct {
	Title                    string          `json:"title"`
	Segments                 []ScriptSegment `json:"segments"`
	Transitions              []Transition    `json:"transitions"`
	FullText                 string          `json:"full_text"`
	TargetDurationSeconds    float64         `json:"target_duration_seconds"`
	EstimatedDurationSeconds float64         `json:"estimated_duration_seconds"`
	OriginalDurationSeconds  float64         `json:"original_duration_seconds"`
	UserPrompt               string          `json:"user_prompt"`
	Metadata                 map[string]any  `json:"metadata"`
}

// AnalysisRecord is the plain record form of a candidate sent to the analyzer.
type AnalysisRecord struct {
	SourceIndex   int     `json:"source_index"`
	SequenceIndex int     `json:"sequence_index"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Duration      float64 `json:"duration"`
	Text          string  `json:"text"`
	ContentType   string  `json:"content_type"`
}

type AnalysisRequest struct {
	Goal             string           `json:"goal"`
	TargetSeconds    float64          `json:"target_seconds"`
	ToleranceSeconds float64          `json:"tolerance_seconds"`
	Segments         []AnalysisRecord `json:"segments"`
}

// ExportClip is the tuple handed to timeline serializers.
type ExportClip struct {
	SourceIndex int     `json:"source_index"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
}

type EditList struct {
	Sequence string       `json:"sequence"`
	Clips    []ExportClip `json:"clips"`
}

// ScriptSummary is a stored script as listed by history queries.
type ScriptSummary struct {
	ID                       string
	CreatedAt                time.Time
	Title                    string
	UserPrompt               string
	Strategy                 string
	Segments                 int
	TargetDurationSeconds    float64
	EstimatedDurationSeconds float64
}
