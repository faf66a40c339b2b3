// Package postgres writes directly to the Supabase Postgres database.
// Only the reconciliation job uses it, so that all admin totals change in
// one transaction.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("postgres")

// Open opens a pgx-backed pool and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

const updateTotals = `UPDATE admins
SET total_leads = $2, total_closings = $3, total_revenue = $4, updated_at = now()
WHERE id = $1`

// TotalsWriter implements port.AdminTotalsWriter with a single transaction.
type TotalsWriter struct {
	db *sql.DB
}

func NewTotalsWriter(db *sql.DB) *TotalsWriter {
	return &TotalsWriter{db: db}
}

func (w *TotalsWriter) WriteAdminTotals(ctx context.Context, totals map[string]domain.AdminTotals) (err error) {
	ctx, span := tracer.Start(ctx, "Postgres.WriteAdminTotals")
	defer span.End()
	span.SetAttributes(attribute.Int("admins.count", len(totals)))

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrExternalService{Service: "postgres", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, updateTotals)
	if err != nil {
		return &domain.ErrExternalService{Service: "postgres", Err: err}
	}
	defer stmt.Close()

	for id, t := range totals {
		if _, err = stmt.ExecContext(ctx, id, t.TotalLeads, t.TotalClosings, t.TotalRevenue); err != nil {
			return &domain.ErrExternalService{Service: "postgres", Err: fmt.Errorf("admin %s: %w", id, err)}
		}
	}
	if err = tx.Commit(); err != nil {
		return &domain.ErrExternalService{Service: "postgres", Err: err}
	}
	return nil
}
