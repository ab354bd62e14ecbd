package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carolhungwt/physio-doctor-platform/pkg/database"
)

func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the application and casbin databases when missing",
		Long: `init connects to the server's "postgres" maintenance database with the
application credentials and creates every database listed in
server.databases (default: database.dbname and casbin_database.dbname).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := database.InitializeDatabases(cfg); err != nil {
				return fmt.Errorf("initialize databases: %w", err)
			}
			cmd.Println("databases ready")
			return nil
		},
	}
}
