package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Limit int
	Show  string // record ID to display in full
	Scene string // only records resolved to this scene key
}

// HistoryEntry is the summary line of one recorded plan.
type HistoryEntry struct {
	ID       string  `json:"id"`
	Seq      int64   `json:"seq"`
	Command  string  `json:"command"`
	SceneKey string  `json:"scene_key"`
	Model    string  `json:"model"`
	Actions  int     `json:"actions"`
	Score    float64 `json:"confidence"`
	PlanHash string  `json:"plan_hash"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded plans",
		Long: `Show plans recorded by "plan --db", oldest first.

Examples:
  roboplan history --db plans.db
  roboplan history --db plans.db --limit 5
  roboplan history --db plans.db --show 0190a1b2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "history database path")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show at most the N most recent plans (0 = all)")
	cmd.Flags().StringVar(&opts.Show, "show", "", "show one recorded plan in full")
	cmd.Flags().StringVar(&opts.Scene, "scene", "", "only plans for this scene key")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions, &PlannerFlags{DB: opts.DB})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	if cfg.DB == "" {
		return commandError(formatter, ErrCodeGeneric, "--db is required", nil)
	}
	if opts.Limit < 0 {
		return commandError(formatter, ErrCodeGeneric, "--limit must not be negative", nil)
	}

	st, err := store.Open(cfg.DB)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to open history database", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if opts.Show != "" {
		rec, err := st.ReadPlan(ctx, opts.Show)
		if errors.Is(err, store.ErrNotFound) {
			return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("no recorded plan with id %q", opts.Show), nil)
		}
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, "failed to read plan", err)
		}
		return outputRecord(formatter, rec)
	}

	var records []ir.PlanRecord
	if opts.Scene != "" {
		records, err = st.ListByScene(ctx, opts.Scene)
		if err == nil && opts.Limit > 0 && len(records) > opts.Limit {
			records = records[len(records)-opts.Limit:]
		}
	} else {
		records, err = st.ListPlans(ctx, opts.Limit)
	}
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, "failed to list plans", err)
	}

	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			ID:       rec.ID,
			Seq:      rec.Seq,
			Command:  rec.Command.Text,
			SceneKey: rec.SceneKey,
			Model:    rec.Model,
			Actions:  len(rec.Plan.Actions),
			Score:    rec.Plan.Confidence,
			PlanHash: rec.PlanHash,
		}
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No plans recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-8s  %d action(s)  %q\n", e.Seq, e.ID, e.SceneKey, e.Actions, e.Command)
	}
	return nil
}

// outputRecord prints one record in full.
func outputRecord(formatter *OutputFormatter, rec ir.PlanRecord) error {
	if formatter.Format == "json" {
		return formatter.Success(rec)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "ID:       %s\n", rec.ID)
	fmt.Fprintf(w, "Seq:      %d\n", rec.Seq)
	fmt.Fprintf(w, "Command:  %s\n", rec.Command.Text)
	if rec.Command.ImagePath != "" {
		fmt.Fprintf(w, "Image:    %s\n", rec.Command.ImagePath)
	}
	fmt.Fprintf(w, "Scene:    %s\n", rec.SceneKey)
	fmt.Fprintf(w, "Model:    %s\n", rec.Model)
	fmt.Fprintf(w, "Hash:     %s\n", rec.PlanHash)

	data, err := json.MarshalIndent(rec.Plan, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
