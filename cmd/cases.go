package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/audit"
	"github.com/SahilWadhwani/threathunt-console/internal/cases"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage investigation cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases",
	RunE:  runCasesList,
}

var casesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a case with its comments",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesShow,
}

var casesCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Open a new case",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesCreate,
}

var casesStatusCmd = &cobra.Command{
	Use:   "set-status <id> <status>",
	Short: "Move a case to a new status (open|triaged|closed)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCasesSetStatus,
}

var casesAssignCmd = &cobra.Command{
	Use:   "assign <id> <assignee>",
	Short: "Reassign a case",
	Args:  cobra.ExactArgs(2),
	RunE:  runCasesAssign,
}

var casesCommentCmd = &cobra.Command{
	Use:   "comment <id> <body>",
	Short: "Append a comment to a case",
	Args:  cobra.ExactArgs(2),
	RunE:  runCasesComment,
}

func init() {
	casesCreateCmd.Flags().String("description", "", "case description (markdown)")
	casesCreateCmd.Flags().String("severity", "medium", "case severity")
	casesCreateCmd.Flags().String("assignee", "", "initial assignee")
	casesCreateCmd.Flags().Int64Slice("detection", nil, "linked detection id (repeatable)")

	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesShowCmd)
	casesCmd.AddCommand(casesCreateCmd)
	casesCmd.AddCommand(casesStatusCmd)
	casesCmd.AddCommand(casesAssignCmd)
	casesCmd.AddCommand(casesCommentCmd)
	rootCmd.AddCommand(casesCmd)
}

func runCasesList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	rows, err := a.cases.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No cases.")
		return nil
	}
	fmt.Printf("%-6s %-10s %-14s %-14s %s\n", "ID", "SEVERITY", "STATUS", "ASSIGNEE", "TITLE")
	for _, c := range rows {
		fmt.Printf("%-6d %-10s %-14s %-14s %s\n", c.ID, c.Severity, c.Status, valueOr(c.Assignee, "-"), c.Title)
	}
	return nil
}

func runCasesShow(cmd *cobra.Command, args []string) error {
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

	c, err := a.cases.Get(cmd.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Printf("Case #%d not found.\n", id)
			return nil
		}
		return err
	}

	fmt.Printf("Case #%d: %s\n", c.ID, c.Title)
	fmt.Printf("  severity=%s status=%s assignee=%s\n", c.Severity, c.Status, valueOr(c.Assignee, "-"))
	if len(c.DetectionIDs) > 0 {
		fmt.Printf("  detections: %v\n", c.DetectionIDs)
	}
	if c.Description != "" {
		fmt.Printf("\n%s\n", c.Description)
	}
	if len(c.Comments) > 0 {
		fmt.Printf("\nComments (%d):\n", len(c.Comments))
		for _, cm := range c.Comments {
			fmt.Printf("  [%s] %s: %s\n", cm.CreatedAt.Format("2006-01-02 15:04"), cm.Author, cm.Body)
		}
	}
	return nil
}

func runCasesCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	description, _ := cmd.Flags().GetString("description")
	severity, _ := cmd.Flags().GetString("severity")
	assignee, _ := cmd.Flags().GetString("assignee")
	detIDs, _ := cmd.Flags().GetInt64Slice("detection")

	created, err := a.cases.Create(cmd.Context(), cases.CreateInput{
		Title:        args[0],
		Description:  description,
		Severity:     severity,
		Assignee:     assignee,
		DetectionIDs: detIDs,
	})
	if err != nil {
		a.notifier.Error("Failed to create case", api.Detail(err, "authorization or validation error"))
		return errSilent(err)
	}

	a.logActivity(cmd.Context(), audit.ActionCaseCreated, fmt.Sprintf("case %d", created.ID), nil)
	fmt.Printf("Case #%d created: %s\n", created.ID, created.Title)
	return nil
}

func runCasesSetStatus(cmd *cobra.Command, args []string) error {
	return runCaseMutation(cmd, args[0], "status set to "+args[1], func(a *app, id int64) error {
		return a.cases.SetStatus(cmd.Context(), id, args[1])
	})
}

func runCasesAssign(cmd *cobra.Command, args []string) error {
	return runCaseMutation(cmd, args[0], "assigned to "+args[1], func(a *app, id int64) error {
		return a.cases.SetAssignee(cmd.Context(), id, args[1])
	})
}

func runCasesComment(cmd *cobra.Command, args []string) error {
	return runCaseMutation(cmd, args[0], "comment added", func(a *app, id int64) error {
		return a.cases.AddComment(cmd.Context(), id, args[1])
	})
}

// runCaseMutation shares the wiring of the three small case updates.
func runCaseMutation(cmd *cobra.Command, idArg, done string, fn func(a *app, id int64) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	id, err := parseID(idArg)
	if err != nil {
		return err
	}

	if err := fn(a, id); err != nil {
		if api.IsNotFound(err) {
			fmt.Printf("Case #%d not found.\n", id)
			return nil
		}
		a.notifier.Error("Failed to update case", api.Detail(err, "authorization or validation error"))
		a.logActivity(cmd.Context(), audit.ActionCaseUpdated, fmt.Sprintf("case %d", id), err)
		return errSilent(err)
	}

	a.logActivity(cmd.Context(), audit.ActionCaseUpdated, fmt.Sprintf("case %d", id), nil)
	fmt.Printf("Case #%d: %s\n", id, done)
	return nil
}
