package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the platform summary",
	RunE:  runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	s, err := a.metrics.Summary(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Events (24h):      %d\n", s.EventsLast24h)
	fmt.Printf("Open detections:   %d\n", s.DetectionsOpen)
	fmt.Printf("Active blocks:     %d\n", s.BlocklistActive)

	if len(s.DetectionsBySeverity) > 0 {
		fmt.Println("\nOpen detections by severity:")
		keys := make([]string, 0, len(s.DetectionsBySeverity))
		for k := range s.DetectionsBySeverity {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %-10s %d\n", k, s.DetectionsBySeverity[k])
		}
	}

	if len(s.EventsHourly24h) > 0 {
		var max int64 = 1
		for _, b := range s.EventsHourly24h {
			if b.Count > max {
				max = b.Count
			}
		}
		fmt.Println("\nEvents per hour:")
		for _, b := range s.EventsHourly24h {
			bar := int(b.Count * 40 / max)
			fmt.Printf("  %s %s %d\n", b.TS.Format("15:04"), repeat('#', bar), b.Count)
		}
	}
	return nil
}

func repeat(c byte, n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = c
	}
	return string(buf)
}
