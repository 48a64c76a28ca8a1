// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfmd CLI.
// Subcommands: convert, serve, config, version.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfmd/internal/config"
	"github.com/pdiddy/pdfmd/internal/secrets"
	"github.com/pdiddy/pdfmd/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// v holds defaults, the config file and the environment.
	v *viper.Viper

	// initErr records a failure in initConfig, which cannot return one.
	initErr error

	// cfg is the resolved configuration with secrets applied.
	cfg types.Config

	logger = logrus.New()
)

// rootCmd is the base command for the pdfmd CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfmd",
	Short: "Convert PDF documents to Markdown with AI image descriptions",
	Long: `pdfmd converts PDF documents into Markdown that keeps headings, paragraphs,
lists and tables in reading order. Embedded images are classified locally and,
when a vision model is configured, described in text so the output carries
the information in charts and diagrams.

Use convert for files and directories, or serve to expose the same pipeline
over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initErr != nil {
			return initErr
		}

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.WithField("keys", keys).Debug("loaded secrets")
		}

		resolved, err := config.Resolve(v)
		if err != nil {
			return err
		}
		cfg = secrets.Apply(resolved, s)

		level := cfg.LogLevel
		if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
			level = f.Value.String()
		}
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		logger.SetLevel(lvl)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfmd.yaml or ~/.config/pdfmd/pdfmd.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
}

func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		initErr = err
		return
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	nv, err := config.New(cfgFile)
	if err != nil {
		initErr = err
		return
	}
	v = nv

	used, err := config.ReadFile(v)
	if err != nil {
		initErr = err
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
