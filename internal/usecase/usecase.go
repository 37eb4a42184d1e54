package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forPelevin/scriptcut/internal/config"
	"github.com/forPelevin/scriptcut/internal/domain/pool"
	"github.com/forPelevin/scriptcut/internal/domain/reconcile"
	"github.com/forPelevin/scriptcut/internal/domain/sampling"
	"github.com/forPelevin/scriptcut/internal/domain/script"
	"github.com/forPelevin/scriptcut/internal/domain/selection"
	"github.com/forPelevin/scriptcut/internal/logger"
	"github.com/forPelevin/scriptcut/internal/ports"
	"github.com/forPelevin/scriptcut/internal/types"
)

type Deps struct {
	// Analyzer may be nil; the rules strategy is used then.
	Analyzer ports.Analyzer
	// Model is reported as metadata.model_used when the analyzer answered.
	Model string
	Log   *logger.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Transcripts   []types.Transcript
	Goal          string
	TargetSeconds float64
	// Tuning falls back to config.Default when left zero.
	Tuning config.Tuning
}

type Result struct {
	RunID  string
	Script types.GeneratedScript
}

// Run turns transcripts into a script. The only error it returns wraps
// types.ErrInvalidInput; everything after validation degrades into metadata.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	started := time.Now()
	if err := validate(in); err != nil {
		return Result{}, err
	}
	tune := in.Tuning
	if tune.SampleBudget == 0 {
		tune = config.Default()
	}
	if err := tune.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: tuning: %v", types.ErrInvalidInput, err)
	}
	log := u.d.Log
	if log == nil {
		log = logger.Nop()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	cands, err := pool.Build(in.Transcripts, pool.NewFillerMatcher(tune.FillerWords), tune.MaxFillerDensity)
	if err != nil {
		return Result{}, err
	}
	if len(cands) == 0 {
		return Result{}, fmt.Errorf("%w: transcripts contain no usable segments", types.ErrInvalidInput)
	}
	original := pool.OriginalDuration(in.Transcripts)
	log.Debug("pool built", "sources", len(in.Transcripts), "candidates", len(cands), "original_seconds", original)

	sampled := sampling.Sample(cands, sampling.Options{
		Budget:   tune.SampleBudget,
		Critical: tune.CriticalContentTypes,
		LowValue: tune.LowValueContentTypes,
	})
	if len(sampled) < len(cands) {
		log.Debug("pool sampled", "from", len(cands), "to", len(sampled))
	}

	sel := selection.Selector{
		Analyzer:         u.d.Analyzer,
		Rules:            selection.NewRules(tune),
		ToleranceSeconds: tune.AIToleranceSeconds,
		Log:              log,
	}
	chosen := sel.Select(ctx, selection.Input{
		Pool:    cands,
		Sampled: sampled,
		Goal:    in.Goal,
		Target:  in.TargetSeconds,
	})

	final, rep := reconcile.Reconcile(chosen, cands, in.TargetSeconds, reconcile.Options{
		CapRatio:         tune.FallbackCapRatio,
		ToleranceSeconds: tune.AIToleranceSeconds,
	})
	if final.ForcedKeep {
		log.Warn("no segment passed selection, forced keep", "strategy", final.Strategy)
	}
	if rep.InvalidDropped+rep.DuplicateDropped+rep.Truncated > 0 || rep.Reordered {
		log.Info("selection reconciled",
			"invalid_dropped", rep.InvalidDropped,
			"duplicate_dropped", rep.DuplicateDropped,
			"truncated", rep.Truncated,
			"reordered", rep.Reordered,
		)
	}

	aiUsed := final.Strategy == types.StrategyAI
	model := string(types.StrategyRules)
	if aiUsed && u.d.Model != "" {
		model = u.d.Model
	}
	meta := map[string]any{
		"run_id":                  runID,
		"strategy":                string(final.Strategy),
		"ai_used":                 aiUsed,
		"model_used":              model,
		"source_count":            len(in.Transcripts),
		"segments_analyzed":       len(cands),
		"sampled_segments":        len(sampled),
		"segments_removed":        len(cands) - len(final.Segments),
		"skipped_entries":         final.Skipped,
		"unverified_segments":     final.Unverified,
		"forced_keep":             final.ForcedKeep,
		"invalid_dropped":         rep.InvalidDropped,
		"duplicate_dropped":       rep.DuplicateDropped,
		"reordered":               rep.Reordered,
		"truncated_segments":      rep.Truncated,
		"duration_delta_seconds":  math.Round(rep.DeltaSeconds*100) / 100,
		"within_tolerance":        rep.WithinTolerance,
		"generation_time_seconds": math.Round(time.Since(started).Seconds()*1000) / 1000,
	}
	if final.FallbackReason != "" {
		meta["fallback_reason"] = final.FallbackReason
	}

	out := script.Assemble(script.Input{
		Selection: final,
		Goal:      in.Goal,
		Target:    in.TargetSeconds,
		Original:  original,
		Metadata:  meta,
	})
	log.Info("script generated",
		"strategy", final.Strategy,
		"segments", len(out.Segments),
		"estimated_seconds", out.EstimatedDurationSeconds,
		"target_seconds", in.TargetSeconds,
	)
	return Result{RunID: runID, Script: out}, nil
}

func validate(in Input) error {
	if len(in.Transcripts) == 0 {
		return fmt.Errorf("%w: at least one transcript is required", types.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Goal) == "" {
		return fmt.Errorf("%w: goal is empty", types.ErrInvalidInput)
	}
	if math.IsNaN(in.TargetSeconds) || math.IsInf(in.TargetSeconds, 0) || in.TargetSeconds <= 0 {
		return fmt.Errorf("%w: target duration must be > 0", types.ErrInvalidInput)
	}
	return nil
}
