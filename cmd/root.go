package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/api"
	"github.com/SahilWadhwani/threathunt-console/internal/audit"
	"github.com/SahilWadhwani/threathunt-console/internal/cases"
	"github.com/SahilWadhwani/threathunt-console/internal/config"
	"github.com/SahilWadhwani/threathunt-console/internal/db"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
	"github.com/SahilWadhwani/threathunt-console/internal/events"
	"github.com/SahilWadhwani/threathunt-console/internal/metrics"
	"github.com/SahilWadhwani/threathunt-console/internal/notify"
	"github.com/SahilWadhwani/threathunt-console/internal/querycache"
	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
	"github.com/SahilWadhwani/threathunt-console/internal/respond"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
	"github.com/SahilWadhwani/threathunt-console/internal/workflow"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "huntctl",
	Short: "Analyst console for the threat-hunting platform",
	Long: `huntctl is the analyst's console for a remote threat-hunting and
incident-response API: browse detections and their evidence, open
cases, manage the blocklist and serve a local dashboard, all backed
by one shared session and read cache.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".huntctl.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// errSilent returns err while suppressing cobra's own error print.
// Used when the notifier has already shown the failure to the user.
func errSilent(err error) error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return err
}

// app bundles the console core every command runs on: config, session,
// API client, shared cache, gate, services and the orchestrator.
type app struct {
	cfg      *config.Config
	sess     *session.Store
	sessPath string

	client *api.Client
	cache  *querycache.Cache
	gate   *rbac.Gate

	detections *detections.Service
	cases      *cases.Service
	respond    *respond.Service
	events     *events.Service
	metrics    *metrics.Service

	notifier notify.Notifier
	orch     *workflow.Orchestrator

	database *db.DB
	trail    *audit.Store
}

// newApp wires the console. The activity database is best-effort: a
// broken local file must not keep the analyst out of the console.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sessPath, err := session.Path()
	if err != nil {
		return nil, err
	}
	sess, err := session.LoadFrom(sessPath)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		sess:     sess,
		sessPath: sessPath,
		client:   api.New(cfg.APIBase, time.Duration(cfg.TimeoutSeconds)*time.Second),
		cache:    querycache.New(),
	}

	a.gate = rbac.NewGate(sess, func(reason string) {
		fmt.Fprintf(os.Stderr, "Access denied (%s). Try `huntctl dashboard` instead.\n", reason)
	})

	a.detections = detections.NewService(a.client, a.cache, sess)
	a.cases = cases.NewService(a.client, a.cache, sess)
	a.respond = respond.NewService(a.client, a.cache, sess)
	a.events = events.NewService(a.client, a.cache, sess)
	a.metrics = metrics.NewService(a.client, a.cache, sess)

	a.notifier = notify.NewTerminal(os.Stdout)

	if database, err := db.Open(filepath.Join(cfg.DataDir, "console.db")); err == nil {
		a.database = database
		a.trail = audit.NewStore(database)
	} else if verbose {
		fmt.Fprintf(os.Stderr, "Warning: activity trail unavailable: %v\n", err)
	}

	nav := workflow.NavigatorFunc(func(id int64) {
		fmt.Printf("View it with: huntctl cases show %d\n", id)
	})
	a.orch = workflow.New(a.cases, a.respond, a.gate, sess, a.notifier, nav, a.trail, cfg.BlockTTLMinutes)

	return a, nil
}

// close releases the local database.
func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}

// hydrate fetches the identity behind the stored credential when it is
// not known yet. A stale token is not an error here; gated commands
// fail later with a clear message.
func (a *app) hydrate(ctx context.Context) {
	if !a.sess.Credential().Present() || a.sess.Identity() != nil {
		return
	}
	id, err := a.client.Me(ctx, a.sess.AccessToken())
	if err != nil {
		return
	}
	a.sess.SetIdentity(id)
	if err := a.sess.SaveTo(a.sessPath); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: saving session: %v\n", err)
	}
}

// logActivity records a command outcome in the local trail when one is
// available. Failures to record never fail the command.
func (a *app) logActivity(ctx context.Context, action audit.Action, subject string, actionErr error) {
	if a.trail == nil {
		return
	}
	actor := ""
	if id := a.sess.Identity(); id != nil {
		actor = id.Email
	}
	entry := audit.Entry{Actor: actor, Action: action, Subject: subject, Outcome: audit.OutcomeOK}
	if actionErr != nil {
		entry.Outcome = audit.OutcomeFailed
		entry.Detail = actionErr.Error()
	}
	if err := a.trail.Log(ctx, entry); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "Warning: recording activity: %v\n", err)
	}
}

// requireLogin fails fast when no credential is stored.
func (a *app) requireLogin() error {
	if !a.sess.Credential().Present() {
		return fmt.Errorf("not signed in; run `huntctl login` first")
	}
	return nil
}
