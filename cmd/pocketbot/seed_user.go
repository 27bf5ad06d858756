package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pocketbot/internal/catalog"
	"pocketbot/internal/config"
	"pocketbot/internal/services"
	"pocketbot/internal/storage"
)

func seedUserCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "seed-user <line-user-id>",
		Short: "Link a LINE user and create the essential pockets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cat, err := catalog.LoadFile(cfg.ClassifierConfigFile)
			if err != nil {
				return err
			}
			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			res, err := services.LinkUser(cmd.Context(), repo, cat, args[0], name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user %s linked as %s\n", args[0], res.User.ID)
			for _, c := range res.Created {
				fmt.Fprintf(out, "  + %s %s\n", c.Type, c.Name)
			}
			if len(res.Created) == 0 {
				fmt.Fprintln(out, "  all essential pockets already exist")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}
