package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const defaultListLimit = 20

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return newPostgresWithDB(context.Background(), db)
}

func newPostgresWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Gateway and scorer both start against the same database; the advisory
	// lock keeps them from racing on DDL.
	const lockID = 731902214

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			pan TEXT,
			params DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			model TEXT,
			text TEXT,
			failure TEXT,
			cached BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS reports_email_idx ON reports (email, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate reports table: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, report Report) (Report, error) {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.Status == "" {
		report.Status = StatusPending
	}
	if report.Params == nil {
		report.Params = []float64{}
	}
	now := time.Now().UTC()
	report.CreatedAt, report.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports(id, email, pan, params, status, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)`,
		report.ID, strings.ToLower(report.Email), report.PAN, pq.Array(report.Params), report.Status, now, now)
	if err != nil {
		return Report{}, fmt.Errorf("failed to insert report: %w", err)
	}
	report.Email = strings.ToLower(report.Email)
	return report, nil
}

const reportColumns = `id, email, COALESCE(pan, ''), params, status, COALESCE(model, ''), COALESCE(text, ''), COALESCE(failure, ''), cached, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (Report, error) {
	var r Report
	err := row.Scan(&r.ID, &r.Email, &r.PAN, pq.Array(&r.Params), &r.Status, &r.Model, &r.Text, &r.Failure, &r.Cached, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrReportNotFound
		}
		return Report{}, fmt.Errorf("failed to get report %s: %w", id, err)
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, email string, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE email=$1 ORDER BY created_at DESC LIMIT $2`,
		strings.ToLower(email), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateReportStatus(ctx context.Context, id uuid.UUID, status ReportStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET status=$1, updated_at=now() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *PostgresStore) CompleteReport(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status=$1, model=$2, text=$3, failure=$4, cached=$5, updated_at=now()
		WHERE id=$6`,
		outcome.Status, outcome.Model, outcome.Text, outcome.Failure, outcome.Cached, id)
	if err != nil {
		return fmt.Errorf("failed to complete report %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReportNotFound
	}
	return nil
}
