// Package cli holds the silversense commands.
package cli

import (
	"fmt"

	"go-silversense/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "silversense",
	Short: "Emergency situation classifier for elderly people living alone",
	Long: `silversense fuses a caller's speech and the surrounding sound into one
situation record (S0..S7 with an emergency level and symptom tags) and
returns guidance for it.

Examples:
  # Start the HTTP API and scheduled jobs
  silversense serve

  # Classify one request offline
  silversense classify --text "할머니가 쓰러져서 숨을 안 쉬어요" --event fall --confidence 0.93

  # Classify a CSV of text,event,confidence rows
  silversense batch --file dataset.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Configuration is loaded once at init; configLoadErr is reported by the
// first command that needs it.
var (
	globalConfig  *config.Config
	configLoadErr error
)

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = &cfg
}

// getConfig returns the loaded configuration, or the load error.
func getConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = &cfg
	}
	return globalConfig, nil
}
