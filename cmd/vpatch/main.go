package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/config"
	"github.com/vango-dev/vpatch/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬  ┬┌─┐┌─┐┌┬┐┌─┐┬ ┬
  └┐┌┘├─┘├─┤ │ │  ├─┤
   └┘ ┴  ┴ ┴ ┴ └─┘┴ ┴
`

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "vpatch",
		Short: "Virtual tree reconciliation and patching",
		Long: `vpatch diffs virtual tree snapshots into patch trees and applies
them to a live document.

Snapshots are JSON documents (.json) or protocol-encoded trees (.bin),
read from local paths, file:// URLs or s3://bucket/key URIs.

  • diff    print the patch tree between two snapshots
  • apply   patch a rendered snapshot and print the resulting HTML
  • render  render a snapshot to HTML
  • serve   run the session server (HTTP and WebSocket)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: nearest vpatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored error output")

	rootCmd.AddCommand(
		diffCmd(a),
		applyCmd(a),
		renderCmd(a),
		convertCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return rootCmd
}

// init loads configuration and builds the logger.
func (a *app) init(stderr io.Writer) error {
	if a.noColor {
		errors.DisableColors()
	}

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	a.logger = newLogger(stderr, a.cfg)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}
