package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"card_float_planner/internal/domain/calendar"
)

var ErrHolidayNotFound = errors.New("holiday not found")

// PostgresHolidayRepository stores the holiday calendar. Dates cross the driver as
// YYYY-MM-DD strings so the server time zone never shifts them.
type PostgresHolidayRepository struct {
	db *sql.DB
}

func NewPostgresHolidayRepository(db *sql.DB) *PostgresHolidayRepository {
	return &PostgresHolidayRepository{db: db}
}

func (r *PostgresHolidayRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	query := `SELECT to_char(holiday_date, 'YYYY-MM-DD'), name
               FROM holidays
               WHERE holiday_date BETWEEN $1::date AND $2::date
               ORDER BY holiday_date`
	rows, err := r.db.QueryContext(ctx, query, calendar.FormatDate(from), calendar.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("error listing holidays: %w", err)
	}
	defer rows.Close()

	holidays := make([]calendar.Holiday, 0)
	for rows.Next() {
		var raw, name string
		if err := rows.Scan(&raw, &name); err != nil {
			return nil, fmt.Errorf("error scanning holiday row: %w", err)
		}
		d, err := calendar.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing holiday date %q: %w", raw, err)
		}
		holidays = append(holidays, calendar.Holiday{Date: d, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holiday rows: %w", err)
	}
	return holidays, nil
}

// AddHoliday inserts the date, renaming it if it already exists.
func (r *PostgresHolidayRepository) AddHoliday(ctx context.Context, h calendar.Holiday) error {
	query := `INSERT INTO holidays (holiday_date, name) VALUES ($1::date, $2)
               ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.db.ExecContext(ctx, query, calendar.FormatDate(h.Date), h.Name); err != nil {
		return fmt.Errorf("error adding holiday: %w", err)
	}
	return nil
}

func (r *PostgresHolidayRepository) RemoveHoliday(ctx context.Context, date time.Time) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE holiday_date = $1::date`, calendar.FormatDate(date))
	if err != nil {
		return fmt.Errorf("error removing holiday: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return ErrHolidayNotFound
	}
	return nil
}
