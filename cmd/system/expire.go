package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
	"github.com/carolhungwt/physio-doctor-platform/pkg/database"
	"github.com/carolhungwt/physio-doctor-platform/pkg/logs"
	"github.com/carolhungwt/physio-doctor-platform/pkg/util/password"
)

// NewExpireReferralsCommand runs one expiry sweep, for deployments that turn
// the in-process scheduler off and drive expiry from an external cron.
func NewExpireReferralsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-referrals",
		Short: "Mark ACTIVE referrals past their expiry date as EXPIRED",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, flush := logs.New(cfg)
			defer flush()

			client, err := database.NewEntClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Database.DBName, err)
			}
			defer client.Close()

			svc := referral.New(client,
				password.NewHasher(password.FromCentralConfig(cfg.Password)),
				referral.ConfigFromCentral(cfg),
				referral.WithLogger(logger),
			)

			ctx, cancel := runContext(cfg)
			defer cancel()

			n, err := svc.ExpireStale(ctx)
			if err != nil {
				return fmt.Errorf("expire referrals: %w", err)
			}
			cmd.Printf("expired %d referral(s)\n", n)
			return nil
		},
	}
}
