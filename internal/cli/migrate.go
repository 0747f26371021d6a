package cli

import (
	idb "card_float_planner/internal/infra/database"
	"card_float_planner/internal/infra/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rt.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			return idb.RunMigrations(cmd.Context(), db, logger.Component("migrate"))
		},
	}
}
