package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"card_float_planner/internal/app"
	"card_float_planner/internal/domain/calendar"
	idb "card_float_planner/internal/infra/database"
	"card_float_planner/internal/infra/httpapi"
	"card_float_planner/internal/infra/logger"
	"card_float_planner/internal/infra/tomlfile"

	"github.com/spf13/cobra"
)

// ErrUnsafePlan makes the process exit non-zero when the timeline check fails.
var ErrUnsafePlan = errors.New("plan failed the timeline check")

type planOptions struct {
	cardsPath    string
	paymentsPath string
	asOf         string
	fromDB       bool
	asJSON       bool
}

func newPlanCmd(rt *runtime) *cobra.Command {
	opts := &planOptions{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build an allocation plan and print it",
		Long: `Build an allocation plan from TOML files (--cards, --payments) or from the
database (--from-db) and print the report. Nothing is executed or stored.`,
		Example: `  planner plan --cards cards.toml --payments payments.toml
  planner plan --from-db --as-of 2025-05-14 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlanCmd(cmd, rt, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.cardsPath, "cards", "c", "", "Cards and holidays TOML file")
	cmd.Flags().StringVarP(&opts.paymentsPath, "payments", "p", "", "Payments TOML file")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Run date YYYY-MM-DD (default: payments file as_of, else today)")
	cmd.Flags().BoolVar(&opts.fromDB, "from-db", false, "Read cards, holidays and pending payments from DATABASE_URL")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the plan as JSON")
	return cmd
}

func runPlanCmd(cmd *cobra.Command, rt *runtime, opts *planOptions) error {
	ctx := cmd.Context()
	log := logger.Component("cli")

	var flagAsOf time.Time
	if opts.asOf != "" {
		d, err := calendar.ParseDate(opts.asOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", opts.asOf)
		}
		flagAsOf = d
	}

	var plan *app.Plan
	if opts.fromDB {
		db, err := rt.openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := app.NewPlanningServiceImpl(
			idb.NewPostgresCardRepository(db),
			idb.NewPostgresHolidayRepository(db),
			idb.NewPostgresPaymentRepository(db),
			logger.Component("planner"),
		)
		asOf := flagAsOf
		if asOf.IsZero() {
			asOf = rt.today()
		}
		plan, err = svc.RunFromStore(ctx, asOf)
		if err != nil {
			return err
		}
	} else {
		if opts.cardsPath == "" || opts.paymentsPath == "" {
			return fmt.Errorf("--cards and --payments are required unless --from-db is set")
		}
		cards, err := tomlfile.LoadCards(opts.cardsPath)
		if err != nil {
			return err
		}
		payments, err := tomlfile.LoadPayments(opts.paymentsPath)
		if err != nil {
			return err
		}

		asOf := flagAsOf
		if asOf.IsZero() {
			asOf = payments.AsOf
		}
		if asOf.IsZero() {
			asOf = rt.today()
		}

		// Offline runs never touch the stores.
		svc := app.NewPlanningServiceImpl(nil, nil, nil, logger.Component("planner"))
		plan, err = svc.Run(ctx, app.RunInput{
			Cards:    cards.Cards,
			Payments: payments.Payments,
			Holidays: cards.HolidayDates(),
			AsOf:     asOf,
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(httpapi.NewPlanResponse(plan)); err != nil {
			return fmt.Errorf("write plan: %w", err)
		}
	} else {
		fmt.Fprint(out, app.RenderPlan(plan))
	}

	log.WithField("run_id", plan.RunID).Debug("Plan printed")
	if !plan.Safe() {
		return ErrUnsafePlan
	}
	return nil
}
