package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/scriptcut/internal/logger"
	"github.com/forPelevin/scriptcut/internal/pipeline"
	"github.com/spf13/cobra"
)

func run(cmd *cobra.Command, inputs []string) error {
	prompt, _ := cmd.Flags().GetString("prompt")
	minutes, _ := cmd.Flags().GetFloat64("minutes")
	seconds, _ := cmd.Flags().GetFloat64("seconds")
	outDir, _ := cmd.Flags().GetString("out")
	tuningPath, _ := cmd.Flags().GetString("config")
	dbPath, _ := cmd.Flags().GetString("db")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	subs, _ := cmd.Flags().GetBool("subtitles")

	target, err := targetSeconds(minutes, seconds)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Transcripts:   paths,
		Prompt:        prompt,
		TargetSeconds: target,
		OutDir:        outDir,
		Subtitles:     subs,
		Log:           log,
		TuningPath:    tuningPath,
		DBPath:        dbPath,
		NoAI:          noAI,

		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        getenvDefault("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
		OpenRouterBaseURL:      getenvDefault("OPENROUTER_BASE_URL", "https://openrouter.ai"),
		OpenRouterAllowedHosts: splitList(os.Getenv("OPENROUTER_ALLOWED_HOSTS")),
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", res.Script.Title)
	fmt.Fprintf(out, "segments: %d  estimated: %.1fs  target: %.1fs  strategy: %v\n",
		len(res.Script.Segments),
		res.Script.EstimatedDurationSeconds,
		res.Script.TargetDurationSeconds,
		res.Script.Metadata["strategy"],
	)
	fmt.Fprintf(out, "output: %s\n", res.RunDir)
	return nil
}

func targetSeconds(minutes, seconds float64) (float64, error) {
	switch {
	case minutes < 0 || seconds < 0:
		return 0, errors.New("target duration must be > 0")
	case minutes > 0 && seconds > 0:
		return 0, errors.New("use either --minutes or --seconds, not both")
	case minutes > 0:
		return minutes * 60, nil
	case seconds > 0:
		return seconds, nil
	default:
		return 0, errors.New("target duration is required (--minutes or --seconds)")
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
