package selection

import (
	"context"
	"fmt"

	"github.com/forPelevin/scriptcut/internal/logger"
	"github.com/forPelevin/scriptcut/internal/ports"
	"github.com/forPelevin/scriptcut/internal/types"
)

// Selector runs the delegated strategy when an analyzer is configured and
// drops to the rules strategy, once, when it is absent or fails.
type Selector struct {
	Analyzer         ports.Analyzer
	Rules            Rules
	ToleranceSeconds float64
	Log              *logger.Logger
}

type Input struct {
	Pool    []types.Candidate
	Sampled []types.Candidate
	Goal    string
	Target  float64
}

func (s Selector) Select(ctx context.Context, in Input) types.SelectionResult {
	log := s.Log
	if log == nil {
		log = logger.Nop()
	}

	if s.Analyzer == nil {
		log.Info("analyzer not configured, using rules")
		return s.fallback(in, fmt.Errorf("%w: analyzer not configured", types.ErrAnalysisUnavailable))
	}

	res, err := s.delegate(ctx, in, log)
	if err != nil {
		log.Warn("delegated selection failed, using rules", "error", err)
		return s.fallback(in, err)
	}
	return res
}

func (s Selector) delegate(ctx context.Context, in Input, log *logger.Logger) (types.SelectionResult, error) {
	req := types.AnalysisRequest{
		Goal:             in.Goal,
		TargetSeconds:    in.Target,
		ToleranceSeconds: s.ToleranceSeconds,
		Segments:         make([]types.AnalysisRecord, 0, len(in.Sampled)),
	}
	for _, c := range in.Sampled {
		req.Segments = append(req.Segments, types.AnalysisRecord{
			SourceIndex:   c.SourceIndex,
			SequenceIndex: c.SequenceIndex,
			Start:         c.Start,
			End:           c.End,
			Duration:      c.Duration,
			Text:          c.Text,
			ContentType:   c.ContentType,
		})
	}

	raw, err := s.Analyzer.Analyze(ctx, req)
	if err != nil {
		return types.SelectionResult{}, fmt.Errorf("%w: %v", types.ErrAnalysisUnavailable, err)
	}
	res, err := ParseAnalysis(raw, in.Sampled, log)
	if err != nil {
		return types.SelectionResult{}, err
	}
	if len(res.Segments) == 0 {
		return types.SelectionResult{}, fmt.Errorf("%w: %w: all %d delegated entries rejected", types.ErrAnalysisUnavailable, types.ErrEmptySelection, res.Skipped)
	}
	return res, nil
}

func (s Selector) fallback(in Input, cause error) types.SelectionResult {
	res := s.Rules.Select(in.Pool, in.Target)
	if cause != nil {
		res.FallbackReason = cause.Error()
	}
	return res
}
