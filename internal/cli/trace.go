package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/weft/internal/trace"
)

func newTraceCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "weft.db", "Trace database path")

	cmd.AddCommand(
		newTraceListCmd(&dbPath),
		newTraceShowCmd(&dbPath),
	)
	return cmd
}

func newTraceListCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := trace.NewSQLiteStore(*dbPath, logger)
			if err != nil {
				return fmt.Errorf("open trace store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(context.Background())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}

			fmt.Printf("%-40s  %-20s  %-8s  %-12s  %s\n", "RUN", "SCRIPT", "OUTCOME", "DURATION", "STARTED")
			fmt.Printf("%-40s  %-20s  %-8s  %-12s  %s\n",
				strings.Repeat("-", 40), strings.Repeat("-", 20),
				strings.Repeat("-", 8), strings.Repeat("-", 12), strings.Repeat("-", 14))
			for _, run := range runs {
				duration := "-"
				if run.FinishedAt != nil {
					duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
				}
				outcome := run.Outcome
				if outcome == "" {
					outcome = "-"
				}
				fmt.Printf("%-40s  %-20s  %-8s  %-12s  %s\n",
					run.ID, run.Script, outcome, duration, humanize.Time(run.StartedAt))
			}
			return nil
		},
	}
}

func newTraceShowCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the events of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := trace.NewSQLiteStore(*dbPath, logger)
			if err != nil {
				return fmt.Errorf("open trace store: %w", err)
			}
			defer store.Close()

			ctx := context.Background()
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			fmt.Printf("Run:     %s\n", run.ID)
			fmt.Printf("Script:  %s\n", run.Script)
			fmt.Printf("Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			if run.FinishedAt != nil {
				fmt.Printf("Outcome: %s (%s)\n", run.Outcome, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
			}
			if run.Error != "" {
				fmt.Printf("Error:   %s\n", run.Error)
			}

			events, err := store.ListEvents(ctx, run.ID)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}

			fmt.Printf("\n%-6s  %-8s  %-12s  %s\n", "SEQ", "FIBER", "EVENT", "DETAIL")
			for _, e := range events {
				fmt.Printf("%-6d  %-8d  %-12s  %s\n", e.Seq, e.FiberID, e.Kind, e.Detail)
			}
			return nil
		},
	}
}
