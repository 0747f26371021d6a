package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"card_float_planner/internal/domain/calendar"
	"card_float_planner/internal/domain/payment"

	"github.com/lib/pq"
)

var ErrDuplicatePayment = fmt.Errorf("payment request with this id already exists")

const statusPending = "pending"

type PostgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// ListPending returns pending requests applied on or before the given date.
func (r *PostgresPaymentRepository) ListPending(ctx context.Context, appliedOnOrBefore time.Time) ([]*payment.Request, error) {
	query := `SELECT id, display_name, amount, is_splittable, preferred_card_id, priority,
                      to_char(application_date, 'YYYY-MM-DD'), category
               FROM payment_requests
               WHERE status = $1 AND application_date <= $2::date
               ORDER BY priority DESC, application_date, id`
	rows, err := r.db.QueryContext(ctx, query, statusPending, calendar.FormatDate(appliedOnOrBefore))
	if err != nil {
		return nil, fmt.Errorf("error querying pending payment requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*payment.Request, 0)
	for rows.Next() {
		var (
			p         payment.Request
			preferred sql.NullString
			applied   string
			category  string
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Amount, &p.IsSplittable, &preferred, &p.Priority, &applied, &category); err != nil {
			return nil, fmt.Errorf("error scanning payment request row: %w", err)
		}
		if p.ApplicationDate, err = calendar.ParseDate(applied); err != nil {
			return nil, fmt.Errorf("error parsing application date %q of %s: %w", applied, p.ID, err)
		}
		p.PreferredCardID = preferred.String
		p.Category = payment.Category(category)
		requests = append(requests, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment request rows: %w", err)
	}
	return requests, nil
}

// Create stores a new pending request.
func (r *PostgresPaymentRepository) Create(ctx context.Context, p *payment.Request) error {
	query := `INSERT INTO payment_requests
                   (id, display_name, amount, is_splittable, preferred_card_id, priority, application_date, category, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9)`
	preferred := sql.NullString{String: p.PreferredCardID, Valid: p.PreferredCardID != ""}
	_, err := r.db.ExecContext(ctx, query, p.ID, p.DisplayName, p.Amount, p.IsSplittable, preferred,
		p.Priority, calendar.FormatDate(p.ApplicationDate), string(p.Category), statusPending)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return fmt.Errorf("%w: %s", ErrDuplicatePayment, p.ID)
			case "foreign_key_violation":
				return fmt.Errorf("payment request %s: preferred card %q does not exist: %w", p.ID, p.PreferredCardID, ErrCardNotFound)
			}
		}
		return fmt.Errorf("error creating payment request %s: %w", p.ID, err)
	}
	return nil
}
