package ports

import (
	"context"

	"github.com/forPelevin/scriptcut/internal/types"
)

// Analyzer is the delegated selection capability. It returns the raw JSON
// object produced by the model; validation happens in the core.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) ([]byte, error)
}

type TranscriptLoader interface {
	Load(ctx context.Context, path string) (types.Transcript, error)
}

type ScriptStore interface {
	Save(ctx context.Context, id string, s types.GeneratedScript) error
	List(ctx context.Context, limit int) ([]types.ScriptSummary, error)
	Get(ctx context.Context, id string) (types.GeneratedScript, error)
}
