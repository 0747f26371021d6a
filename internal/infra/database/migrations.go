package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations is the ordered schema for the planner. Every statement is safe to re-run.
var Migrations = []Migration{
	{
		Name: "create_cards",
		SQL: `CREATE TABLE IF NOT EXISTS cards (
			id                             TEXT PRIMARY KEY,
			name                           TEXT NOT NULL,
			closing_day                    SMALLINT NOT NULL,
			payment_day                    SMALLINT NOT NULL,
			payment_month_offset           SMALLINT NOT NULL DEFAULT 1,
			settlement_lag_business_days   SMALLINT NOT NULL DEFAULT 0,
			supports_split_invoice_payment BOOLEAN NOT NULL DEFAULT FALSE,
			available_balance              BIGINT NOT NULL DEFAULT 0 CHECK (available_balance >= 0),
			created_at                     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at                     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "create_holidays",
		SQL: `CREATE TABLE IF NOT EXISTS holidays (
			holiday_date DATE PRIMARY KEY,
			name         TEXT NOT NULL DEFAULT ''
		)`,
	},
	{
		Name: "create_payment_requests",
		SQL: `CREATE TABLE IF NOT EXISTS payment_requests (
			id                TEXT PRIMARY KEY,
			display_name      TEXT NOT NULL DEFAULT '',
			amount            BIGINT NOT NULL CHECK (amount > 0),
			is_splittable     BOOLEAN NOT NULL DEFAULT FALSE,
			preferred_card_id TEXT REFERENCES cards (id) ON DELETE SET NULL,
			priority          INTEGER NOT NULL DEFAULT 0,
			application_date  DATE NOT NULL,
			category          TEXT NOT NULL DEFAULT 'purchase',
			status            TEXT NOT NULL DEFAULT 'pending',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name: "index_payment_requests_pending",
		SQL: `CREATE INDEX IF NOT EXISTS payment_requests_pending_idx
			ON payment_requests (application_date) WHERE status = 'pending'`,
	},
}

// RunMigrations applies all migrations in order inside one transaction.
func RunMigrations(ctx context.Context, db *sql.DB, log *logrus.Entry) error {
	err := WithinTx(ctx, db, func(tx *sql.Tx) error {
		for _, m := range Migrations {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				log.WithError(err).WithField("migration", m.Name).Error("Migration failed")
				return fmt.Errorf("migration %s: %w", m.Name, err)
			}
			log.WithField("migration", m.Name).Debug("Migration applied")
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.WithField("count", len(Migrations)).Info("Database migrations completed")
	return nil
}
