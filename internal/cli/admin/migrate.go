package admin

import (
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/admitbot/internal/database"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().String("migrations", "migrations", "Directory holding the SQL migrations")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, shutdown, err := bootstrap()
			if err != nil {
				return err
			}
			defer shutdown()
			dir, _ := cmd.Flags().GetString("migrations")
			return database.Migrate(cfg.DatabaseURL, dir, log)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, shutdown, err := bootstrap()
			if err != nil {
				return err
			}
			defer shutdown()
			dir, _ := cmd.Flags().GetString("migrations")
			steps, _ := cmd.Flags().GetInt("steps")
			return database.MigrateDown(cfg.DatabaseURL, dir, steps)
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
