package system

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carolhungwt/physio-doctor-platform/pkg/authorize"
	"github.com/carolhungwt/physio-doctor-platform/pkg/database"
	"github.com/carolhungwt/physio-doctor-platform/pkg/logs"
)

func NewMigrateCommand() *cobra.Command {
	var skipPolicies bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and seed the default RBAC policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, flush := logs.New(cfg)
			defer flush()

			ctx, cancel := runContext(cfg)
			defer cancel()

			client, err := database.NewEntClient(cfg.Database)
			if err != nil {
				return fmt.Errorf("open %s: %w", cfg.Database.DBName, err)
			}
			defer client.Close()

			if err := database.MigrateEnt(ctx, client); err != nil {
				return fmt.Errorf("migrate schema: %w", err)
			}
			logger.Info("schema migrated", "database", cfg.Database.DBName)

			if skipPolicies {
				return nil
			}

			// the ent adapter creates casbin_rule on first use
			acfg := authorize.FromCentralConfig(cfg.Authorization)
			enforcer, cleanup, err := authorize.NewEnforcer(acfg, database.NewDSN(cfg.CasbinDatabase))
			if err != nil {
				return fmt.Errorf("open policy store: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer, acfg.SuperadminBypass)
			if err != nil {
				return fmt.Errorf("build authorization: %w", err)
			}
			if err := authorize.SeedDefaultPolicies(ctx, auth, logger); err != nil {
				return fmt.Errorf("seed policies: %w", err)
			}
			logger.Info("policies seeded", "database", cfg.CasbinDatabase.DBName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPolicies, "skip-policies", false, "migrate the schema only")
	return cmd
}
