package cmd

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"recops/internal/events"
)

var (
	simUsers  int
	simItems  int
	simEvents int
	simType   string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with user interaction events",
}

var eventsSimulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate random interaction events",
	Long: `Generates random user/item interactions, one session per user. When
events.tracking_id is configured the events are sent to that event tracker;
otherwise they are only printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if simUsers <= 0 || simItems <= 0 || simEvents <= 0 {
			return fmt.Errorf("--users, --items and --count must be positive")
		}
		if strings.TrimSpace(simType) == "" {
			return fmt.Errorf("%w: --type is required", events.ErrInvalidEvent)
		}

		sink, err := appInstance.EventSink()
		if err != nil {
			return err
		}
		tracker := events.NewTracker(sink)

		out := cmd.OutOrStdout()
		failed := 0
		for i := 0; i < simEvents; i++ {
			user := fmt.Sprintf("user-%d", rand.IntN(simUsers)+1)
			item := fmt.Sprintf("item-%d", rand.IntN(simItems)+1)
			e, err := tracker.Record(cmd.Context(), user, item, simType)
			if errors.Is(err, events.ErrInvalidEvent) {
				return err
			}
			if err != nil {
				failed++
			}
			fmt.Fprintf(out, "%s %s %s %s %s\n", e.SentAt.Format("15:04:05.000"), e.SessionID, e.UserID, e.ItemID, e.Type)
		}

		fmt.Fprintf(out, "Recorded %d events for %d users", simEvents, tracker.Users())
		if sink != nil {
			fmt.Fprintf(out, ", %d failed to send", failed)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsSimulateCmd)

	eventsSimulateCmd.Flags().IntVar(&simUsers, "users", 5, "Number of distinct users")
	eventsSimulateCmd.Flags().IntVar(&simItems, "items", 20, "Number of distinct items")
	eventsSimulateCmd.Flags().IntVar(&simEvents, "count", 50, "Number of events")
	eventsSimulateCmd.Flags().StringVar(&simType, "type", "click", "Event type")
}
