package http

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/api/http"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the API, the expiry scheduler and the event consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shutdownTimeout <= 0 {
				return fmt.Errorf("--shutdown-timeout must be positive, got %s", shutdownTimeout)
			}
			path, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("read --config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(path))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// blocks until SIGINT or SIGTERM
			http.Start(cfg, shutdownTimeout)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "how long in-flight requests get to finish on shutdown")
	return cmd
}
