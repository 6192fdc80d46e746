package main

import (
	"log/slog"
	"os"

	"github.com/encodeous/tint"
	"github.com/iti/topomux"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logPath string

	// logFile is the file named by --log, open while a command runs
	logFile *os.File
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "topomux",
	Short: "Synthetic ICN topologies and name-prefix forwarding tables",
	Long: `topomux generates multi-layer (compute, aggregation, physical) network topologies,
attaches hierarchical name prefixes to their nodes, and computes for every node and
prefix the next hop and cumulative delay under per-prefix link class restrictions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := buildLogger()
		if err != nil {
			return err
		}
		topomux.SetLogger(logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLogFile()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	// post-run hooks are skipped when a command fails
	_ = closeLogFile()
	if err != nil {
		os.Exit(1)
	}
}

// buildLogger writes colored logs to stderr and, when a log file is named, plain text
// logs to that file as well
func buildLogger() (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}))

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return nil, err
		}
		logFile = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// closeLogFile closes the file opened by buildLogger, if any, and stops the package
// from logging to it
func closeLogFile() error {
	if logFile == nil {
		return nil
	}
	topomux.SetLogger(nil)
	err := logFile.Close()
	logFile = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "also write logs to this file")
}
