package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vellum/internal/store"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded conversion jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				var statuses []string
				if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
					statuses = strings.Split(trimmed, ",")
				}
				records, err := st.ListJobs(cmd.Context(), statuses...)
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, []string{
						shortID(rec.ID),
						rec.Status,
						filepath.Base(rec.InputPath),
						formatProgress(rec),
						formatTier(rec.AppliedTier),
						rec.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Document", "Progress", "Tier", "Updated"},
					rows, 4, 5,
				))
				return nil
			})
		},
	}
	jobsCmd.Flags().StringVar(&statusFilter, "status", "", "Comma-separated status filter (queued,processing,completed,failed,cancelled)")

	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its event history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				id := strings.TrimSpace(args[0])
				rec, err := st.GetJob(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("load job %s: %w", id, err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:        %s\n", rec.ID)
				fmt.Fprintf(out, "Status:     %s\n", rec.Status)
				fmt.Fprintf(out, "Input:      %s\n", rec.InputPath)
				fmt.Fprintf(out, "Output:     %s\n", rec.OutputPath)
				fmt.Fprintf(out, "Compliance: %s\n", rec.ComplianceLevel)
				fmt.Fprintf(out, "Tier:       %s\n", formatTier(rec.AppliedTier))
				fmt.Fprintf(out, "Progress:   %s\n", formatProgress(*rec))
				if rec.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:      %s\n", rec.ErrorMessage)
				}
				fmt.Fprintf(out, "Created:    %s\n", rec.CreatedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Updated:    %s\n", rec.UpdatedAt.Local().Format(time.RFC3339))

				events, err := st.EventsForJob(cmd.Context(), rec.ID)
				if err != nil {
					return fmt.Errorf("load events: %w", err)
				}
				if len(events) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(events))
				for _, event := range events {
					rows = append(rows, []string{
						event.CreatedAt.Local().Format("15:04:05"),
						event.Type,
						event.Message,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Time", "Event", "Message"}, rows))
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove terminal jobs from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []string
			switch {
			case clearAll:
				statuses = []string{"completed", "failed", "cancelled"}
			case clearCompleted && clearFailed:
				statuses = []string{"completed", "failed"}
			case clearCompleted:
				statuses = []string{"completed"}
			case clearFailed:
				statuses = []string{"failed"}
			default:
				return fmt.Errorf("specify --completed, --failed, or --all")
			}
			return ctx.withStore(func(st *store.Store) error {
				removed, err := st.ClearByStatus(cmd.Context(), statuses...)
				if err != nil {
					return fmt.Errorf("clear jobs: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed jobs")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove all terminal jobs")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTier(tier int) string {
	if tier <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", tier)
}

func formatProgress(rec store.JobRecord) string {
	switch rec.Status {
	case "completed":
		return "100%"
	case "queued":
		return "-"
	}
	if rec.ProgressStage == "" {
		return "-"
	}
	return fmt.Sprintf("%s %.0f%%", rec.ProgressStage, rec.ProgressPercent)
}
