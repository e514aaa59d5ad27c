package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/caseid"
	"github.com/courtwright/docket/internal/models"
)

// caseIDLockID is the advisory lock key serializing case identifier
// assignment across server instances sharing one database.
const caseIDLockID int64 = 7364821101

// PostgresConfig holds connection pool configuration.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPostgresConfig returns a PostgresConfig with sensible defaults.
func DefaultPostgresConfig(url string) PostgresConfig {
	return PostgresConfig{
		URL:             url,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// PostgresStore implements Store on a PostgreSQL connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres creates a PostgresStore and verifies the connection.
func NewPostgres(ctx context.Context, cfg PostgresConfig, logger zerolog.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "postgres_store").Logger(),
	}

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s.logger.Info().Msg("database connection pool established")
	return s, nil
}

// InitSchema creates the schedule and archive tables if they do not exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schedule (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			judge TEXT NOT NULL DEFAULT '',
			prosecutor TEXT NOT NULL DEFAULT '',
			defendant TEXT NOT NULL DEFAULT '',
			lawyer TEXT NOT NULL DEFAULT '',
			witnesses TEXT NOT NULL DEFAULT '',
			room TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			parties TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS archive (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			judge TEXT NOT NULL DEFAULT '',
			prosecutor TEXT NOT NULL DEFAULT '',
			defendant TEXT NOT NULL DEFAULT '',
			lawyer TEXT NOT NULL DEFAULT '',
			witnesses TEXT NOT NULL DEFAULT '',
			room TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			time TEXT NOT NULL DEFAULT '',
			parties TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT '',
			verdict TEXT NOT NULL DEFAULT '',
			document TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// execTx executes fn within a database transaction.
func (s *PostgresStore) execTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// CreateCase assigns the next case identifier and inserts the record. The
// identifier scan and the insert run in one transaction under an advisory
// lock, so concurrent adds serialize instead of colliding on the same suffix.
func (s *PostgresStore) CreateCase(ctx context.Context, in models.CaseInput) (*models.Case, error) {
	var created *models.Case
	err := s.execTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", caseIDLockID); err != nil {
			return fmt.Errorf("acquire case id lock: %w", err)
		}

		year := time.Now().Year()
		rows, err := tx.Query(ctx, "SELECT id FROM schedule WHERE id LIKE $1", caseid.Prefix(year)+"%")
		if err != nil {
			return fmt.Errorf("scan active ids: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate active ids: %w", err)
		}

		c := models.NewCase(caseid.Next(year, ids), in)
		_, err = tx.Exec(ctx, `
			INSERT INTO schedule (id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, c.ID, c.Name, c.Judge, c.Prosecutor, c.Defendant, c.Lawyer, c.Witnesses, c.Room, c.Date, c.Time, c.Parties, c.Description, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}

		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", created.ID).Msg("case created")
	return created, nil
}

// ListActive returns all active cases sorted by (date, time) ascending.
func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Case, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, created_at
		FROM schedule
		ORDER BY date, time, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list active cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		var c models.Case
		err := rows.Scan(&c.ID, &c.Name, &c.Judge, &c.Prosecutor, &c.Defendant, &c.Lawyer, &c.Witnesses, &c.Room, &c.Date, &c.Time, &c.Parties, &c.Description, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}

	return cases, nil
}

// ListArchive returns all archived cases sorted by (date, time) ascending.
func (s *PostgresStore) ListArchive(ctx context.Context) ([]*models.ArchivedCase, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, result, verdict, document, created_at
		FROM archive
		ORDER BY date, time, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list archived cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.ArchivedCase
	for rows.Next() {
		var a models.ArchivedCase
		err := rows.Scan(&a.ID, &a.Name, &a.Judge, &a.Prosecutor, &a.Defendant, &a.Lawyer, &a.Witnesses, &a.Room, &a.Date, &a.Time, &a.Parties, &a.Description, &a.Result, &a.Verdict, &a.Document, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan archived case: %w", err)
		}
		cases = append(cases, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived cases: %w", err)
	}

	return cases, nil
}

// DeleteCase removes a case from the active docket.
func (s *PostgresStore) DeleteCase(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM schedule WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("case_id", id).Msg("case deleted")
	return nil
}

// ArchiveCase moves a case from the active docket into the archive, attaching
// the outcome, inside a single transaction.
func (s *PostgresStore) ArchiveCase(ctx context.Context, id string, out models.Outcome) (*models.ArchivedCase, error) {
	var archived *models.ArchivedCase
	err := s.execTx(ctx, func(tx pgx.Tx) error {
		var c models.Case
		err := tx.QueryRow(ctx, `
			SELECT id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, created_at
			FROM schedule
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&c.ID, &c.Name, &c.Judge, &c.Prosecutor, &c.Defendant, &c.Lawyer, &c.Witnesses, &c.Room, &c.Date, &c.Time, &c.Parties, &c.Description, &c.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load case: %w", err)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM schedule WHERE id = $1", id); err != nil {
			return fmt.Errorf("remove case from schedule: %w", err)
		}

		a := &models.ArchivedCase{
			Case:     c,
			Result:   out.Result,
			Verdict:  out.Verdict,
			Document: out.Document,
		}
		a.CreatedAt = time.Now().UTC()

		_, err = tx.Exec(ctx, `
			INSERT INTO archive (id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, result, verdict, document, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`, a.ID, a.Name, a.Judge, a.Prosecutor, a.Defendant, a.Lawyer, a.Witnesses, a.Room, a.Date, a.Time, a.Parties, a.Description, a.Result, a.Verdict, a.Document, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert archived case: %w", err)
		}

		archived = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", id).Msg("case archived")
	return archived, nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	s.logger.Info().Msg("database connection pool closed")
	return nil
}
