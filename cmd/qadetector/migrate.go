package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/qadetector/internal/database"
	"github.com/raysh454/qadetector/internal/logging"
)

func newMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, logger, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Open(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if status {
				st, err := db.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tSOURCE")
				for _, m := range st {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Source.Version, m.State, m.Source.Path)
				}
				return tw.Flush()
			}

			version, err := db.Migrate(ctx)
			if err != nil {
				return err
			}
			logger.Info("schema up to date", logging.Field{Key: "version", Value: version})
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Only list migrations and whether each is applied")
	return cmd
}
