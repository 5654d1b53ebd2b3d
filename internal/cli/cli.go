// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/slashwrite/internal/config"
	"github.com/jeranaias/slashwrite/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// skipConfigAnnotation marks commands that must run even with a broken
// config file.
const skipConfigAnnotation = "slashwrite/skip-config"

var errConfigLoad = errors.New("failed to load config")

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg    *config.Config
	logger *zap.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp() *app {
	return &app{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		logger: zap.NewNop(),
	}
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	root := newRootCommand(a)
	err := root.ExecuteContext(ctx)
	if err != nil {
		DisplayError(a.errOut, err, a.jsonOut)
	}
	return GetExitCode(err)
}

// newRootCommand builds the command tree around a.
func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "slashwrite",
		Short: "Inline AI rewriting driven by slash commands",
		Long: `slashwrite watches what you type for a trailing slash command and
offers a rewrite you can accept with Tab or dismiss with Escape.

  Hello world /ai                     improve the whole text
  Intro. /s pls fix asap /e /ai       improve only the marked block
  Good morning /translate Spanish/    translate into a language
  /s Hi there /e /t German            block form with a language`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context(), "")
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ~/.slashwrite/config.toml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output in JSON format")

	root.AddCommand(
		a.newTUICommand(),
		a.newBrowserCommand(),
		a.newParseCommand(),
		a.newApplyCommand(),
		a.newKeyCommand(),
		a.newConfigCommand(),
		a.newHistoryCommand(),
		a.newVersionCommand(),
	)
	return root
}

// setup loads the config and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		a.cfg = config.Default()
		a.cfg.ApplyEnvOverrides()
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errConfigLoad, err)
	}
	a.cfg = cfg

	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Path:    logPath,
		Verbose: a.verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("command started", zap.String("command", cmd.CommandPath()))
	return nil
}

// respond prints data in the JSON envelope or calls human.
func (a *app) respond(command string, data interface{}, human func(w io.Writer) error) error {
	if a.jsonOut {
		return NewJSONResponse(command, data).Print(a.out)
	}
	return human(a.out)
}
