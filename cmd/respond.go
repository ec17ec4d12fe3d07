package cmd

import (
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Manage the network blocklist",
}

var respondBlocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List block rules",
	RunE:  runRespondBlocks,
}

var respondUnblockCmd = &cobra.Command{
	Use:   "unblock <rule-id>",
	Short: "Deactivate a block rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRespondUnblock,
}

func init() {
	respondBlocksCmd.Flags().Bool("active", false, "only active rules")
	respondUnblockCmd.Flags().Bool("yes", false, "skip the confirmation prompt")

	respondCmd.AddCommand(respondBlocksCmd)
	respondCmd.AddCommand(respondUnblockCmd)
	rootCmd.AddCommand(respondCmd)
}

func runRespondBlocks(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	// Viewers never reach the blocklist; the gate prints the redirect
	// hint and the command stops without an upstream fetch.
	if d := a.gate.Check(rbac.AnalystOrAdmin...); d == rbac.DecisionDenied {
		return errSilent(fmt.Errorf("blocklist requires the analyst or admin role"))
	}

	rules, err := a.respond.ListBlocks(cmd.Context())
	if err != nil {
		return err
	}

	activeOnly, _ := cmd.Flags().GetBool("active")
	shown := 0
	fmt.Printf("%-6s %-15s %-8s %-20s %s\n", "ID", "IP", "ACTIVE", "EXPIRES", "REASON")
	for _, r := range rules {
		if activeOnly && !r.Active {
			continue
		}
		expires := "-"
		if r.ExpiresAt != nil {
			expires = r.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Printf("%-6d %-15s %-8t %-20s %s\n", r.ID, r.IP, r.Active, expires, r.Reason)
		shown++
	}
	if shown == 0 {
		fmt.Println("No matching block rules.")
	}
	return nil
}

func runRespondUnblock(cmd *cobra.Command, args []string) error {
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

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Unblock rule %d", id),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := a.orch.UnblockRule(cmd.Context(), id); err != nil {
		return errSilent(err)
	}
	return nil
}
