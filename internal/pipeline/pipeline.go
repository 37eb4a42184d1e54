package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/scriptcut/internal/config"
	"github.com/forPelevin/scriptcut/internal/domain/script"
	"github.com/forPelevin/scriptcut/internal/domain/subtitles"
	"github.com/forPelevin/scriptcut/internal/logger"
	"github.com/forPelevin/scriptcut/internal/ports"
	"github.com/forPelevin/scriptcut/internal/ports/adapters/openrouter"
	"github.com/forPelevin/scriptcut/internal/ports/adapters/sqlitestore"
	"github.com/forPelevin/scriptcut/internal/ports/adapters/transcriptfile"
	"github.com/forPelevin/scriptcut/internal/types"
	"github.com/forPelevin/scriptcut/internal/usecase"
)

type Config struct {
	Transcripts   []string
	Prompt        string
	TargetSeconds float64
	OutDir        string
	Subtitles     bool
	Log           *logger.Logger

	// TuningPath is an optional YAML file layered over the default tuning.
	TuningPath string
	// DBPath enables the script history when set.
	DBPath string

	// NoAI forces the rules strategy even when an API key is present.
	NoAI                   bool
	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
}

func (c Config) aiEnabled() bool {
	return !c.NoAI && strings.TrimSpace(c.OpenRouterAPIKey) != ""
}

func (c Config) Validate() error {
	if len(c.Transcripts) == 0 {
		return errors.New("at least one transcript file is required")
	}
	for _, p := range c.Transcripts {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("stat transcript: %w", err)
		}
	}
	if strings.TrimSpace(c.Prompt) == "" {
		return errors.New("prompt is empty")
	}
	if c.TargetSeconds <= 0 {
		return errors.New("target duration must be > 0")
	}
	if !c.aiEnabled() {
		return nil
	}
	return openrouter.ValidateBaseURL(
		c.OpenRouterBaseURL,
		c.OpenRouterAllowedHosts,
	)
}

type Result struct {
	RunID  string
	RunDir string
	Script types.GeneratedScript
}

func Run(ctx context.Context, cfg Config) (Result, error) {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}

	tune, err := config.Load(cfg.TuningPath)
	if err != nil {
		return Result{}, err
	}

	// adapters
	var (
		analyzer ports.Analyzer
		model    string
	)
	if cfg.aiEnabled() {
		a := openrouter.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL)
		analyzer, model = a, a.Model()
		log.Info("delegated analysis enabled", "model", model)
	} else {
		log.Info("delegated analysis disabled, rules only")
	}

	log.Info("loading transcripts", "files", len(cfg.Transcripts))
	trs, err := loadTranscripts(ctx, transcriptfile.New(), cfg.Transcripts)
	if err != nil {
		return Result{}, err
	}

	uc := usecase.New(usecase.Deps{Analyzer: analyzer, Model: model, Log: log})
	res, err := uc.Run(ctx, usecase.Input{
		Transcripts:   trs,
		Goal:          cfg.Prompt,
		TargetSeconds: cfg.TargetSeconds,
		Tuning:        tune,
	})
	if err != nil {
		return Result{}, err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Transcripts[0], time.Now().UTC())
	log.Info("preparing workspace")
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return Result{}, err
	}
	log.Info("output run dir", "path", runOutDir)

	if err := writeJSON(filepath.Join(runOutDir, "script.json"), res.Script); err != nil {
		return Result{}, err
	}
	seq := normalizePathSegment(res.Script.Title)
	if seq == "" {
		seq = "scriptcut-edit"
	}
	if err := writeJSON(filepath.Join(runOutDir, "edit.json"), script.Export(res.Script, seq)); err != nil {
		return Result{}, err
	}
	if cfg.Subtitles {
		assPath := filepath.Join(runOutDir, "script.ass")
		if err := os.WriteFile(assPath, []byte(subtitles.RenderScriptASS(res.Script, trs)), 0o644); err != nil {
			return Result{}, err
		}
		log.Info("subtitles written", "path", assPath)
	}

	if cfg.DBPath != "" {
		store, err := sqlitestore.Open(cfg.DBPath)
		if err != nil {
			return Result{}, err
		}
		defer store.Close()
		if err := saveScript(ctx, store, res.RunID, res.Script); err != nil {
			return Result{}, err
		}
		log.Info("script saved to history", "id", res.RunID, "db", cfg.DBPath)
	}

	log.Info("script written",
		"segments", len(res.Script.Segments),
		"estimated_seconds", res.Script.EstimatedDurationSeconds,
		"strategy", res.Script.Metadata["strategy"],
	)
	return Result{RunID: res.RunID, RunDir: runOutDir, Script: res.Script}, nil
}

// History lists the most recent scripts stored in the database at dbPath.
func History(ctx context.Context, dbPath string, limit int) ([]types.ScriptSummary, error) {
	store, err := openExisting(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return listScripts(ctx, store, limit)
}

// Show loads one stored script.
func Show(ctx context.Context, dbPath, id string) (types.GeneratedScript, error) {
	store, err := openExisting(dbPath)
	if err != nil {
		return types.GeneratedScript{}, err
	}
	defer store.Close()
	return store.Get(ctx, id)
}

func openExisting(dbPath string) (*sqlitestore.Store, error) {
	if dbPath == "" {
		return nil, errors.New("history database path is empty (set --db or SCRIPTCUT_DB)")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("stat history database: %w", err)
	}
	return sqlitestore.Open(dbPath)
}

func saveScript(ctx context.Context, store ports.ScriptStore, id string, gs types.GeneratedScript) error {
	if err := store.Save(ctx, id, gs); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func listScripts(ctx context.Context, store ports.ScriptStore, limit int) ([]types.ScriptSummary, error) {
	out, err := store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

// loadTranscripts reads all files concurrently and keeps argument order.
func loadTranscripts(ctx context.Context, loader ports.TranscriptLoader, paths []string) ([]types.Transcript, error) {
	out := make([]types.Transcript, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			tr, err := loader.Load(gctx, p)
			if err != nil {
				return err
			}
			out[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, b, 0o644)
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Analyzer = (*openrouter.Adapter)(nil)
var _ ports.TranscriptLoader = (*transcriptfile.Adapter)(nil)
var _ ports.ScriptStore = (*sqlitestore.Store)(nil)
