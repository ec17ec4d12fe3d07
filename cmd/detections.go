package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "Browse detections and respond to them",
}

var detectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List detections",
	RunE:  runDetectionsList,
}

var detectionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a detection with its evidence",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetectionsShow,
}

var detectionsOpenCaseCmd = &cobra.Command{
	Use:   "open-case <id>",
	Short: "Open a case from a detection",
	Long: `Creates a case carrying the detection's title, summary and severity,
linked to the detection. Requires the analyst or admin role.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetectionsOpenCase,
}

var detectionsBlockCmd = &cobra.Command{
	Use:   "block-ip <id>",
	Short: "Block the detection's primary source address",
	Long: `Resolves the primary source address from the detection's evidence
(most frequent src_ip) and blocks it for the configured TTL.
Unavailable when no address resolves. Requires analyst or admin.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetectionsBlock,
}

func init() {
	detectionsListCmd.Flags().String("kind", "", "filter by detection kind")
	detectionsListCmd.Flags().String("status", "", "filter by status (open|triaged|closed)")
	detectionsListCmd.Flags().String("severity", "", "filter by severity (low|medium|high|critical)")
	detectionsListCmd.Flags().Int("limit", 50, "max rows")
	detectionsBlockCmd.Flags().Int("ttl", 0, "block duration in minutes (default from config)")
	detectionsBlockCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	detectionsCmd.AddCommand(detectionsListCmd)
	detectionsCmd.AddCommand(detectionsShowCmd)
	detectionsCmd.AddCommand(detectionsOpenCaseCmd)
	detectionsCmd.AddCommand(detectionsBlockCmd)
	rootCmd.AddCommand(detectionsCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func runDetectionsList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	kind, _ := cmd.Flags().GetString("kind")
	status, _ := cmd.Flags().GetString("status")
	severity, _ := cmd.Flags().GetString("severity")
	limit, _ := cmd.Flags().GetInt("limit")

	rows, err := a.detections.List(cmd.Context(), detections.ListFilter{
		Kind:     kind,
		Status:   detections.Status(status),
		Severity: detections.Severity(severity),
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("No detections.")
		return nil
	}
	fmt.Printf("%-6s %-20s %-10s %-8s %s\n", "ID", "KIND", "SEVERITY", "STATUS", "TITLE")
	for _, d := range rows {
		fmt.Printf("%-6d %-20s %-10s %-8s %s\n", d.ID, d.Kind, d.Severity, d.Status, d.Title)
	}
	return nil
}

func runDetectionsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	det, err := a.detections.Get(cmd.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Printf("Detection #%d not found.\n", id)
			return nil
		}
		return err
	}

	fmt.Printf("Detection #%d: %s\n", det.ID, det.Title)
	fmt.Printf("  kind=%s severity=%s status=%s rule=%s\n", det.Kind, det.Severity, det.Status, valueOr(det.RuleID, "-"))
	if det.Summary != "" {
		fmt.Printf("  %s\n", det.Summary)
	}
	if len(det.Tags) > 0 {
		fmt.Printf("  tags: %s\n", strings.Join(det.Tags, ", "))
	}

	fmt.Printf("\nEvidence events (%d):\n", len(det.EvidenceEvents))
	for _, ev := range det.EvidenceEvents {
		fmt.Printf("  #%-6d %-12s %-14s src=%-15s user=%-12s %s\n",
			ev.ID, ev.EventModule, ev.EventAction, valueOr(ev.SrcIP, "-"), valueOr(ev.User, "-"), valueOr(ev.HTTPPath, ""))
	}

	if ip := det.PrimaryIP(); ip != "" {
		fmt.Printf("\nPrimary source IP: %s (block with `huntctl detections block-ip %d`)\n", ip, det.ID)
	} else {
		fmt.Println("\nNo source IP found on evidence; block action unavailable.")
	}
	return nil
}

func runDetectionsOpenCase(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	det, err := a.detections.Get(cmd.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Printf("Detection #%d not found.\n", id)
			return nil
		}
		return err
	}

	if _, err := a.orch.OpenCaseFromDetection(cmd.Context(), det); err != nil {
		// Notifications already carried the user-facing message.
		return errSilent(err)
	}
	return nil
}

func runDetectionsBlock(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	det, err := a.detections.Get(cmd.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Printf("Detection #%d not found.\n", id)
			return nil
		}
		return err
	}

	ip := det.PrimaryIP()
	if ip == "" {
		fmt.Println("No source IP found on evidence; nothing to block.")
		return nil
	}

	if ttl, _ := cmd.Flags().GetInt("ttl"); ttl > 0 {
		a.orch.SetBlockTTL(ttl)
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Block %s", ip),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if _, err := a.orch.BlockIPFromDetection(cmd.Context(), det); err != nil {
		return errSilent(err)
	}
	return nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
