package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	dataDir      string
	settingsPath string
	verbose      bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "promptmux",
	Short: "Structured prompt workspace with streaming LLM refinement",
	Long: `promptmux keeps prompt material as projects made of ordered sections and
topics, merges them into a single document, and streams refinements from an
OpenAI- or Anthropic-style provider.

Run "promptmux serve" to expose the workspace as an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so the stdio transport stays clean.
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if settingsPath == "" {
			settingsPath = filepath.Join(dataDir, "settings.json")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// globalFlags holds the flags shared by every subcommand.
func globalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory holding the workspace database")
	fs.StringVar(&settingsPath, "settings", "", "Provider settings file (default: <data-dir>/settings.json)")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	return fs
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptmux"
	}
	return filepath.Join(home, ".promptmux")
}

func init() {
	rootCmd.PersistentFlags().AddFlagSet(globalFlags())

	rootCmd.AddCommand(serveCmd, mergeCmd, refineCmd, revisionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
