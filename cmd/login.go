package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/audit"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Exchanges your credentials for a token pair and stores the session
in ~/.huntctl/session.json for subsequent commands.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in identity",
	RunE:  runWhoami,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account (starts as viewer)",
	RunE:  runRegister,
}

func init() {
	loginCmd.Flags().String("email", "", "account email (prompted when omitted)")
	registerCmd.Flags().String("email", "", "account email (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
}

func promptCredentials(cmd *cobra.Command) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		prompt := promptui.Prompt{Label: "Email"}
		v, err := prompt.Run()
		if err != nil {
			return "", "", fmt.Errorf("email prompt: %w", err)
		}
		email = strings.TrimSpace(v)
	}
	if email == "" {
		return "", "", fmt.Errorf("email is required")
	}

	pwPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := pwPrompt.Run()
	if err != nil {
		return "", "", fmt.Errorf("password prompt: %w", err)
	}
	return email, password, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	email, password, err := promptCredentials(cmd)
	if err != nil {
		return err
	}

	pair, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	a.sess.SetCredential(pair.AccessToken, pair.RefreshToken)

	id, err := a.client.Me(ctx, pair.AccessToken)
	if err != nil {
		return fmt.Errorf("fetching identity: %w", err)
	}
	a.sess.SetIdentity(id)

	if err := a.sess.SaveTo(a.sessPath); err != nil {
		return err
	}

	if a.trail != nil {
		_ = a.trail.Log(ctx, audit.Entry{Actor: id.Email, Action: audit.ActionLogin})
	}

	fmt.Printf("Signed in as %s (%s)\n", id.Email, id.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	actor := ""
	if id := a.sess.Identity(); id != nil {
		actor = id.Email
	}

	a.sess.Logout()
	if err := session.Clear(a.sessPath); err != nil {
		return err
	}

	if a.trail != nil && actor != "" {
		_ = a.trail.Log(cmd.Context(), audit.Entry{Actor: actor, Action: audit.ActionLogout})
	}

	fmt.Println("Signed out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	id := a.sess.Identity()
	if id == nil {
		return fmt.Errorf("stored token is no longer valid; run `huntctl login`")
	}
	fmt.Printf("%s (%s)\n", id.Email, id.Role)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	email, password, err := promptCredentials(cmd)
	if err != nil {
		return err
	}

	id, err := a.client.Register(cmd.Context(), email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("Account created: %s (%s). Sign in with `huntctl login`.\n", id.Email, id.Role)
	return nil
}
