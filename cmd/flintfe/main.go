// Copyright (c) 2024 Michael D Henderson. All rights reserved.

// Package main implements the flintfe command-line front end: it
// drives the lexer, parser, and resolver over a root source file and
// reports diagnostics, exiting non-zero on any fatal one.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/flint-lang/flintfe/internal/config"
	"github.com/flint-lang/flintfe/internal/diag"
	"github.com/flint-lang/flintfe/internal/driver"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
	logger       *slog.Logger
	configFile   string
	globalConfig *config.Config
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := Execute(); err != nil {
		log.Fatal(err)
	}
}

var cmdRoot = &cobra.Command{
	Use:           "flintfe",
	Short:         "Root command for the flint-lang front end",
	Long:          `Lex, parse, and resolve flint-lang source into a diagnosed AST.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Root().PersistentFlags()
		logLevel, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		logSource, err := flags.GetBool("log-source")
		if err != nil {
			return err
		}
		debug, err := flags.GetBool("debug")
		if err != nil {
			return err
		}
		quiet, err := flags.GetBool("quiet")
		if err != nil {
			return err
		}
		if debug && quiet {
			return fmt.Errorf("--debug and --quiet are mutually exclusive")
		}

		var lvl slog.Level
		switch {
		case debug:
			lvl = slog.LevelDebug
		case quiet:
			lvl = slog.LevelError
		default:
			switch strings.ToLower(logLevel) {
			case "debug":
				lvl = slog.LevelDebug
			case "info":
				lvl = slog.LevelInfo
			case "warn", "warning":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			default:
				return fmt.Errorf("log-level: unknown value %q", logLevel)
			}
		}
		handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: logSource || lvl == slog.LevelDebug,
		})
		logger = slog.New(handler)
		slog.SetDefault(logger)

		cfg, err := config.Load(configFile, debug)
		if err != nil {
			logger.Warn("config: load failed, using defaults", "path", configFile, "error", err)
		}
		globalConfig = cfg
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var cmdCheck = &cobra.Command{
	Use:   "check <path>",
	Short: "Lex, parse, and resolve a source file, reporting diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		result, runErr := driver.Run(path, cwd, globalConfig, logger)
		diag.Print(os.Stdout, result.Diagnostics)
		if runErr != nil {
			os.Exit(1)
		}
		return nil
	},
}

func Execute() error {
	cmdRoot.PersistentFlags().Bool("debug", false, "enable debug logging (same as --log-level=debug)")
	cmdRoot.PersistentFlags().Bool("quiet", false, "only log errors (same as --log-level=error)")
	cmdRoot.PersistentFlags().String("log-level", "error", "logging level (debug|info|warn|error)")
	cmdRoot.PersistentFlags().Bool("log-source", false, "add file and line numbers to log messages")
	cmdRoot.PersistentFlags().StringVar(&configFile, "config", "flintfe.json", "path to the configuration file")

	cmdRoot.AddCommand(cmdVersion)
	cmdRoot.AddCommand(cmdCheck)

	return cmdRoot.Execute()
}
