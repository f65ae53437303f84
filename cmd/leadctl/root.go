package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appconfig "github.com/wolfman30/smp-leadform/internal/config"
)

// NewRootCmd creates the root command for leadctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leadctl",
		Short: "Offline tools for the SMP lead form",
		Long: `leadctl applies the lead form rules outside the API server.

Settings come from the same environment variables as the server. Pass
--form-config to overlay a YAML form configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("form-config", "", "YAML form configuration file")

	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewFormatPhoneCmd())
	cmd.AddCommand(NewProgressCmd())
	cmd.AddCommand(NewStepsCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and the optional --form-config file.
func loadConfig(cmd *cobra.Command) (*appconfig.Config, error) {
	cfg := appconfig.Load()
	path, _ := cmd.Flags().GetString("form-config")
	if path == "" {
		return cfg, nil
	}
	if err := cfg.ApplyFormFile(path); err != nil {
		return nil, fmt.Errorf("load form config %s: %w", path, err)
	}
	return cfg, nil
}
