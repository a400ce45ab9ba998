package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"recops/internal/clix"
	"recops/internal/models"
	"recops/internal/poll"
	"recops/internal/services"
)

var waitQuiet bool

// waitCmd blocks until every named resource reaches the target phase.
var waitCmd = &cobra.Command{
	Use:   "wait <kind> <id>...",
	Short: "Wait for resources to become active, deleted or stopped",
	Long: `Polls the status of one or more resources of the same kind until all of them
reach the target phase, one of them fails, or the timeout elapses. Several ids
(space or comma separated) are polled together. Ctrl-C cancels the wait.

Exit status is 0 on success, 2 when a resource failed, 3 on timeout and 130
when interrupted.`,
	Example: `  recops wait solution-version arn:aws:personalize:us-east-1:123456789012:solution/demo/abc
  recops wait campaign arn:...:campaign/a,arn:...:campaign/b --interval 10s --timeout 1h
  recops wait dataset-group arn:...:dataset-group/demo --target deleted`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		refs, err := clix.ParseRefs(args[0], args[1:])
		if err != nil {
			return err
		}
		params, err := clix.ParseWaitParams(cmd.Flags())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		var reporter poll.Reporter
		if !waitQuiet {
			reporter = poll.NewLineReporter(out).WithColor(!color.NoColor)
		}

		waits, err := appInstance.WaitService.Wait(ctx, services.WaitRequest{
			Refs:     refs,
			Target:   params.Target,
			Interval: params.Interval,
			Timeout:  params.Timeout,
		}, reporter)
		printWaitSummary(out, waits)
		return err
	},
}

var waitEnqueueCmd = &cobra.Command{
	Use:   "enqueue <kind> <id>...",
	Short: "Hand waits to the background worker",
	Long:  `Records one wait per resource and enqueues it for "recops worker" to run. Prints the wait ids.`,
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		refs, err := clix.ParseRefs(args[0], args[1:])
		if err != nil {
			return err
		}
		params, err := clix.ParseWaitParams(cmd.Flags())
		if err != nil {
			return err
		}

		var errs []error
		for _, ref := range refs {
			w, err := appInstance.WaitService.Enqueue(cmd.Context(), ref, params.Target, params.Interval, params.Timeout)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s %s: %v\n", color.RedString("ERROR"), ref.ID, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (task %s)\n", w.ID, ref.ID, w.TaskID)
		}
		return errors.Join(errs...)
	},
}

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the resource kinds recops can wait on",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, k := range models.AllKinds {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(kindsCmd)
	waitCmd.AddCommand(waitEnqueueCmd)

	clix.AddWaitFlags(waitCmd.Flags())
	clix.AddWaitFlags(waitEnqueueCmd.Flags())
	waitCmd.Flags().BoolVarP(&waitQuiet, "quiet", "q", false, "Do not print progress lines")
}

func printWaitSummary(w io.Writer, waits []*models.Wait) {
	for _, wt := range waits {
		var outcome string
		switch wt.Outcome {
		case models.WaitSucceeded:
			outcome = color.GreenString(wt.Outcome)
		case models.WaitFailed, models.WaitError:
			outcome = color.RedString(wt.Outcome)
		default:
			outcome = color.YellowString(wt.Outcome)
		}
		line := fmt.Sprintf("%s %s: %s", outcome, wt.Ref(), wt.LastStatus)
		if wt.FailureReason != "" {
			line += " (" + wt.FailureReason + ")"
		}
		if d := wt.Duration(); d > 0 {
			line += fmt.Sprintf(" after %s, %d polls", d.Truncate(time.Second), wt.Polls)
		}
		fmt.Fprintln(w, line)
	}
}

