package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pocketbot/internal/config"
	"pocketbot/internal/storage"
)

func migrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or roll back) the SQLite schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if down {
				if err := storage.RollbackMigrations(cfg.SQLiteDBPath); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back all migrations")
				return nil
			}
			version, err := storage.RunMigrations(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite database path")
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	_ = viper.BindPFlag("SQLITE_DB_PATH", cmd.Flags().Lookup("db"))
	return cmd
}
