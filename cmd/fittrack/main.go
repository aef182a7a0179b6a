// Package main is the fittrack command line: the API server and a client for
// profiles and workout routines.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/logging"
)

var (
	configPath    string
	serverURLFlag string
	sessionFlag   string
	verbose       bool

	// Set by PersistentPreRunE.
	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "fittrack",
	Short:         "Track workout routines and body metrics",
	Long:          "fittrack runs the fittrack API server and edits your profile and workout routines against it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := loadClientConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&serverURLFlag, "server", "", "API server URL (overrides server_url)")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "Session file (overrides session_path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadClientConfig merges the config file, defaults and flags, in rising priority.
func loadClientConfig(path string) (config.Config, error) {
	var fileCfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		fileCfg = *loaded
	}

	merged := fileCfg.MergeWithDefaults(config.Defaults())
	if serverURLFlag != "" {
		merged.ServerURL = serverURLFlag
	}
	if sessionFlag != "" {
		merged.SessionPath = sessionFlag
	}
	if verbose {
		merged.Verbose = true
	}
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}
