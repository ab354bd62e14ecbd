package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolhungwt/physio-doctor-platform/config"
)

func NewSystemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Database, policy and housekeeping commands",
	}

	cmd.AddCommand(
		NewInitCommand(),
		NewMigrateCommand(),
		NewExpireReferralsCommand(),
		NewGenDocsCommand(),
	)
	return cmd
}

// loadConfig reads config.yaml from the directory of the root --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("read --config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// runContext bounds a one-shot command by the configured request timeout.
func runContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(context.Background(), timeout)
}
