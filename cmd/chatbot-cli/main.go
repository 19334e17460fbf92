// Package main provides the chatbot maintenance CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toktokhan/chatbot-engine/internal/app"
	"github.com/toktokhan/chatbot-engine/internal/config"
	"github.com/toktokhan/chatbot-engine/internal/observability"
)

var (
	cfgFile    string
	outputJSON bool
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatbot-cli",
	Short: "Company chatbot CLI for seeding, embedding and asking questions",
	Long: `chatbot-cli manages the company knowledge base behind the chatbot.

Use this tool to:
- Load category, company, project and blog fixtures
- Rebuild or refresh vector embeddings
- Ask the chatbot a question from the terminal
- Inspect question-type statistics

Most commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			ServiceName: "chatbot-cli",
			Output:      os.Stderr,
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newEmbedCmd())
	rootCmd.AddCommand(newEmbedOneCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap builds the application for commands that need storage.
func bootstrap(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialise application: %w", err)
	}
	return a, nil
}
