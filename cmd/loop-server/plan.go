package main

import (
	"context"
	"encoding/json"

	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the fetch plan for a page as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sc, err := cfg.Scheduler()
			if err != nil {
				return err
			}
			// Planning never queries the store.
			sched, err := scheduler.New(sc, noopExecutor{})
			if err != nil {
				return err
			}
			plan, err := sched.Plan(page)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "1-based page number")
	return cmd
}

// noopExecutor satisfies scheduler.New for commands that only plan.
type noopExecutor struct{}

func (noopExecutor) Fetch(ctx context.Context, spec scheduler.FetchSpec) ([]scheduler.Item, error) {
	return nil, nil
}
