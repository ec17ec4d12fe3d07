package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/audit"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the local activity trail",
	Long: `Lists response actions recorded on this machine: logins, case
changes, blocks and unblocks. The trail is local only and never
leaves the data directory.`,
	RunE: runActivity,
}

func init() {
	activityCmd.Flags().Int("limit", 25, "max entries")
	activityCmd.Flags().String("actor", "", "only entries by this actor")
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if a.trail == nil {
		return fmt.Errorf("activity trail unavailable; check the data directory")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	actor, _ := cmd.Flags().GetString("actor")

	entries, err := a.trail.Recent(cmd.Context(), limit)
	if actor != "" {
		entries, err = a.trail.ByActor(cmd.Context(), actor, limit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No activity recorded.")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-20s %-14s %s",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.Subject)
		if e.Outcome != audit.OutcomeOK {
			line += fmt.Sprintf("  [%s: %s]", e.Outcome, e.Detail)
		}
		fmt.Println(line)
	}
	return nil
}
