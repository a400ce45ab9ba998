package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"recops/internal/clix"
	"recops/internal/models"
)

// waitsCmd represents the base command for wait history operations.
var waitsCmd = &cobra.Command{
	Use:   "waits",
	Short: "View recorded waits",
	Long:  `Displays waits recorded by "recops wait", "recops wait enqueue" and the API.`,
}

var waitsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent waits, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		page, err := clix.ParsePagination(cmd.Flags())
		if err != nil {
			return err
		}

		waits, err := appInstance.WaitService.List(cmd.Context(), page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("failed to list waits: %w", err)
		}
		if len(waits) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No waits found.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"ID", "Kind", "Resource", "Target", "Outcome", "Status", "Polls", "Created At"})
		table.SetBorder(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, w := range waits {
			table.Append([]string{
				w.ID.String(),
				string(w.Kind),
				w.ResourceID,
				string(w.Target),
				w.Outcome,
				w.LastStatus,
				strconv.Itoa(w.Polls),
				w.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

var waitsShowCmd = &cobra.Command{
	Use:   "show <wait-id>",
	Short: "Show one recorded wait",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid wait id %q", models.ErrValidation, args[0])
		}

		w, err := appInstance.WaitService.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetBorder(true)  // Set true to draw borders
		table.SetRowLine(true) // Enable row line
		table.AppendBulk(waitDetailRows(w))
		table.Render()
		return nil
	},
}

func waitDetailRows(w *models.Wait) [][]string {
	rows := [][]string{
		{"ID", w.ID.String()},
		{"Kind", string(w.Kind)},
		{"Resource", w.ResourceID},
		{"Target", string(w.Target)},
		{"Outcome", w.Outcome},
		{"Last Status", w.LastStatus},
		{"Polls", strconv.Itoa(w.Polls)},
	}
	if w.FailureReason != "" {
		rows = append(rows, []string{"Failure Reason", w.FailureReason})
	}
	if w.Error != "" {
		rows = append(rows, []string{"Error", w.Error})
	}
	if w.TaskID != "" {
		rows = append(rows, []string{"Task ID", w.TaskID})
	}
	rows = append(rows, []string{"Created At", w.CreatedAt.Format(time.RFC3339)})
	if w.StartedAt != nil {
		rows = append(rows, []string{"Started At", w.StartedAt.Format(time.RFC3339)})
	}
	if w.FinishedAt != nil {
		rows = append(rows, []string{"Finished At", w.FinishedAt.Format(time.RFC3339)})
		rows = append(rows, []string{"Duration", w.Duration().Truncate(time.Second).String()})
	}
	return rows
}

func init() {
	rootCmd.AddCommand(waitsCmd)
	waitsCmd.AddCommand(waitsListCmd)
	waitsCmd.AddCommand(waitsShowCmd)

	waitsListCmd.Flags().Int("limit", 20, "Maximum number of waits to list")
	waitsListCmd.Flags().Int("offset", 0, "Number of waits to skip")
}
