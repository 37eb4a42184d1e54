package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scriptcut <transcript.json>...",
		Short:        "Cut transcripts down to a goal-driven edit script",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("db", os.Getenv("SCRIPTCUT_DB"), "History database path (empty disables history)")

	root.Flags().StringP("prompt", "p", "", "What the edit should focus on")
	root.Flags().Float64("minutes", 0, "Target duration in minutes")
	root.Flags().Float64("seconds", 0, "Target duration in seconds")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().String("config", "", "Tuning YAML file")
	root.Flags().Bool("no-ai", false, "Use the rule-based selection only")
	root.Flags().Bool("subtitles", false, "Also write script.ass subtitles")

	root.AddCommand(newHistoryCmd())
	return root
}
