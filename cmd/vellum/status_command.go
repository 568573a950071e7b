package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"vellum/internal/preflight"
	"vellum/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				fmt.Fprintln(out, renderCheckLine(result.Name, result.Passed, result.Detail, colorize))
			}
			if !preflight.AllPassed(results) {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "One or more checks failed; the daemon will refuse to start.")
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(out, line)
			}
			return ctx.withStore(func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("read job stats: %w", err)
				}
				if len(stats) == 0 {
					fmt.Fprintf(out, "%sno jobs recorded\n", checkIndent)
					return nil
				}
				statuses := make([]string, 0, len(stats))
				for status := range stats {
					statuses = append(statuses, status)
				}
				sort.Strings(statuses)
				for _, status := range statuses {
					fmt.Fprintf(out, "%s%-*s %d\n", checkIndent, checkLabelWidth, status+":", stats[status])
				}
				return nil
			})
		},
	}
}
