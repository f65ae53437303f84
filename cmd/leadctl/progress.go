package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfman30/smp-leadform/internal/app/bootstrap"
	"github.com/wolfman30/smp-leadform/internal/session"
	"github.com/wolfman30/smp-leadform/pkg/logging"
)

var errNoProgress = errors.New("no saved progress")

// NewProgressCmd creates the progress command group.
func NewProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Inspect saved form progress in Redis",
	}
	cmd.PersistentFlags().String("redis-addr", "", "Redis address (defaults to REDIS_ADDR)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the saved answers of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeFn, err := openProgress(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			answers, err := cache.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if answers == nil {
				return fmt.Errorf("session %s: %w", args[0], errNoProgress)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(answers)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear <session-id>",
		Short: "Delete the saved answers of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeFn, err := openProgress(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := cache.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared progress for %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func openProgress(cmd *cobra.Command) (*session.RedisProgress, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if addr, _ := cmd.Flags().GetString("redis-addr"); addr != "" {
		cfg.RedisAddr = addr
	}
	cfg.UseMemoryStore = false

	client := bootstrap.BuildRedisClient(cmd.Context(), cfg, logging.New("error"), true)
	if client == nil {
		return nil, nil, fmt.Errorf("redis not available at %s", cfg.RedisAddr)
	}
	return session.NewRedisProgress(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}
