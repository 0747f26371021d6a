// internal/infra/database/postgres_card_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"card_float_planner/internal/domain/card"
)

var ErrCardNotFound = errors.New("card not found")

type PostgresCardRepository struct {
	db *sql.DB
}

func NewPostgresCardRepository(db *sql.DB) *PostgresCardRepository {
	return &PostgresCardRepository{db: db}
}

const cardColumns = `id, name, closing_day, payment_day, payment_month_offset,
	settlement_lag_business_days, supports_split_invoice_payment, available_balance`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (*card.Profile, error) {
	p := &card.Profile{}
	err := row.Scan(&p.ID, &p.Name, &p.ClosingDay, &p.PaymentDay, &p.PaymentMonthOffset,
		&p.SettlementLagBusinessDays, &p.SupportsSplitInvoicePayment, &p.AvailableBalance)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresCardRepository) ListAll(ctx context.Context) ([]*card.Profile, error) {
	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*card.Profile, 0)
	for rows.Next() {
		p, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning card row: %w", err)
		}
		cards = append(cards, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card rows: %w", err)
	}
	return cards, nil
}

func (r *PostgresCardRepository) GetByID(ctx context.Context, id string) (*card.Profile, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	p, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("error getting card by ID: %w", err)
	}
	return p, nil
}

// Upsert inserts the card or overwrites every column of an existing one.
func (r *PostgresCardRepository) Upsert(ctx context.Context, p *card.Profile) error {
	query := `INSERT INTO cards (` + cardColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               ON CONFLICT (id) DO UPDATE SET
                   name = EXCLUDED.name,
                   closing_day = EXCLUDED.closing_day,
                   payment_day = EXCLUDED.payment_day,
                   payment_month_offset = EXCLUDED.payment_month_offset,
                   settlement_lag_business_days = EXCLUDED.settlement_lag_business_days,
                   supports_split_invoice_payment = EXCLUDED.supports_split_invoice_payment,
                   available_balance = EXCLUDED.available_balance,
                   updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.ClosingDay, p.PaymentDay, p.PaymentMonthOffset,
		p.SettlementLagBusinessDays, p.SupportsSplitInvoicePayment, p.AvailableBalance)
	if err != nil {
		return fmt.Errorf("error upserting card %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresCardRepository) UpdateAvailableBalance(ctx context.Context, id string, balance int64) error {
	query := `UPDATE cards SET available_balance = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("error updating card balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}
