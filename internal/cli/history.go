package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/forPelevin/scriptcut/internal/pipeline"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List saved scripts, or print one as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			if len(args) == 1 {
				return showScript(cmd, dbPath, args[0])
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return listHistory(cmd, dbPath, limit)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of entries to list")
	return cmd
}

func listHistory(cmd *cobra.Command, dbPath string, limit int) error {
	rows, err := pipeline.History(cmd.Context(), dbPath, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no saved scripts")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTRATEGY\tSEGMENTS\tDURATION\tTITLE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0fs/%.0fs\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Strategy,
			r.Segments,
			r.EstimatedDurationSeconds,
			r.TargetDurationSeconds,
			r.Title,
		)
	}
	return w.Flush()
}

func showScript(cmd *cobra.Command, dbPath, id string) error {
	gs, err := pipeline.Show(cmd.Context(), dbPath, id)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(gs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
