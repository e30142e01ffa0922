// Package cli implements the qcreview command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/config"
)

// cfg is the effective configuration, resolved before any subcommand runs.
var cfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "qcreview",
	Short: "Review the quality of vehicle photos and videos",
	Long: `qcreview tags every photo and video of a vehicle as good or with
quality issues. Run "qcreview serve" to start the review API and
"qcreview review <vehicle-id>" to review a vehicle in the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to config file (default $XDG_CONFIG_HOME/qcreview/config.yaml)")
	pf.String("server", "", "review API base URL")
	pf.StringP("user", "u", "", "reviewer user id")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(reviewCmd, serveCmd, vehiclesCmd, reportCmd, versionCmd)
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}

	server, _ := cmd.Flags().GetString("server")
	user, _ := cmd.Flags().GetString("user")
	level, _ := cmd.Flags().GetString("log-level")
	loaded.Merge(&config.Config{
		Server: config.ServerConfig{URL: server},
		User:   config.UserConfig{ID: user},
		Log:    config.LogConfig{Level: level},
	})

	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded
	return nil
}

// newLogger builds the process logger. Interactive commands log to
// log.file, or nowhere, so the terminal UI stays intact.
func newLogger(interactive bool) (*slog.Logger, func() error, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }
	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closeFn = f, f.Close
	case interactive:
		return slog.New(slog.DiscardHandler), closeFn, nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), closeFn, nil
}

func newClient() *backend.Client {
	return backend.NewClient(cfg.Server.URL, cfg.Server.Timeout)
}
