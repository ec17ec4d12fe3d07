package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/notify"
	"github.com/SahilWadhwani/threathunt-console/internal/server"
	"github.com/SahilWadhwani/threathunt-console/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local dashboard",
	Long: `Runs a local HTTP dashboard over the same session, cache and gate
the CLI commands use. Notifications from dashboard actions are pushed
to connected browsers over a websocket.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.hydrate(cmd.Context())

	port := a.cfg.DashboardPort
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	// Dashboard actions notify both the terminal running serve and any
	// connected browsers.
	hub := notify.NewHub()
	a.notifier = notify.Multi{notify.NewTerminal(os.Stdout), hub}
	nav := workflow.NavigatorFunc(func(id int64) {})
	a.orch = workflow.New(a.cases, a.respond, a.gate, a.sess, a.notifier, nav, a.trail, a.cfg.BlockTTLMinutes)

	srv := server.New(server.Config{
		Port:     port,
		AllowAll: a.cfg.AllowAllOrigins,
	}, a.sess, a.gate, a.detections, a.cases, a.respond, a.metrics, a.orch, hub)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	fmt.Printf("Dashboard listening on http://localhost:%d/dashboard\n", port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server: %w", err)
	case <-stop:
	}

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
