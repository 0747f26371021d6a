// Package cli holds the planner command tree.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/infra/config"
	idb "card_float_planner/internal/infra/database"
	"card_float_planner/internal/infra/logger"

	"github.com/spf13/cobra"
)

// runtime carries what PersistentPreRunE loaded to the subcommands.
type runtime struct {
	cfg *config.AppConfig
	now func() time.Time
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{now: time.Now}

	root := &cobra.Command{
		Use:   "planner",
		Short: "Place pending payments on credit cards to maximize float",
		Long: `planner decides which credit card pays each pending payment so that cash leaves
the bank account as late as possible, then replays the plan day by day to prove no card
goes over its available credit.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger.Init(cfg)
			rt.cfg = cfg
			return nil
		},
	}

	root.AddCommand(newPlanCmd(rt))
	root.AddCommand(newServeCmd(rt))
	root.AddCommand(newMigrateCmd(rt))
	root.AddCommand(newImportCmd(rt))
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// today is the current calendar date in the configured time zone.
func (rt *runtime) today() time.Time {
	return calendar.DateOf(rt.now().In(rt.cfg.Location()))
}

func (rt *runtime) openDB(ctx context.Context) (*sql.DB, error) {
	if rt.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return idb.Open(ctx, rt.cfg.DatabaseURL)
}
