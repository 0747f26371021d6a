package cli

import (
	"fmt"

	"card_float_planner/internal/domain/card"
	"card_float_planner/internal/domain/payment"
	idb "card_float_planner/internal/infra/database"
	"card_float_planner/internal/infra/logger"
	"card_float_planner/internal/infra/tomlfile"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type importOptions struct {
	cardsPath    string
	paymentsPath string
}

func newImportCmd(rt *runtime) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load cards, holidays and pending payments from TOML into the database",
		Long: `Upsert the cards and holidays of --cards and insert the payments of --payments as
pending requests. Everything is validated before the first write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rt, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.cardsPath, "cards", "c", "", "Cards and holidays TOML file")
	cmd.Flags().StringVarP(&opts.paymentsPath, "payments", "p", "", "Payments TOML file")
	return cmd
}

func runImport(cmd *cobra.Command, rt *runtime, opts *importOptions) error {
	if opts.cardsPath == "" && opts.paymentsPath == "" {
		return fmt.Errorf("nothing to import: pass --cards and/or --payments")
	}

	var (
		cards    *tomlfile.Cards
		payments *tomlfile.Payments
		err      error
	)
	if opts.cardsPath != "" {
		if cards, err = tomlfile.LoadCards(opts.cardsPath); err != nil {
			return err
		}
		if err := card.ValidateAll(cards.Cards); err != nil {
			return err
		}
	}
	if opts.paymentsPath != "" {
		if payments, err = tomlfile.LoadPayments(opts.paymentsPath); err != nil {
			return err
		}
		if err := payment.ValidateBatch(payments.Payments); err != nil {
			return err
		}
	}

	db, err := rt.openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	log := logger.Component("import")
	if cards != nil {
		cardRepo := idb.NewPostgresCardRepository(db)
		for _, c := range cards.Cards {
			if err := cardRepo.Upsert(ctx, c); err != nil {
				return err
			}
		}
		holidayRepo := idb.NewPostgresHolidayRepository(db)
		for _, h := range cards.Holidays {
			if err := holidayRepo.AddHoliday(ctx, h); err != nil {
				return err
			}
		}
	}
	if payments != nil {
		paymentRepo := idb.NewPostgresPaymentRepository(db)
		for _, p := range payments.Payments {
			if err := paymentRepo.Create(ctx, p); err != nil {
				return err
			}
		}
	}

	fields := logrus.Fields{}
	if cards != nil {
		fields["cards"] = len(cards.Cards)
		fields["holidays"] = len(cards.Holidays)
	}
	if payments != nil {
		fields["payments"] = len(payments.Payments)
	}
	log.WithFields(fields).Info("Import completed")
	fmt.Fprintln(cmd.OutOrStdout(), "Import completed.")
	return nil
}
