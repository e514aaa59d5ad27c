package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/courtwright/docket/internal/caseid"
	"github.com/courtwright/docket/internal/models"
)

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger

	// mu serializes mutating calls. SQLite allows one writer at a time, but
	// identifier assignment reads the active set before inserting, and the
	// read and the insert must not interleave across callers.
	mu sync.Mutex
}

// NewSQLite opens (creating if necessary) the docket database in dataDir.
func NewSQLite(dataDir string, logger zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docket.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s.logger.Info().Str("path", dbPath).Msg("docket database initialized")
	return s, nil
}

// InitSchema creates the schedule and archive tables if they do not exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
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
			created_at TEXT NOT NULL
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
			created_at TEXT NOT NULL
		);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// CreateCase assigns the next case identifier and inserts the record.
func (s *SQLiteStore) CreateCase(ctx context.Context, in models.CaseInput) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	year := time.Now().Year()
	rows, err := tx.QueryContext(ctx, "SELECT id FROM schedule WHERE id LIKE ?", caseid.Prefix(year)+"%")
	if err != nil {
		return nil, fmt.Errorf("scan active ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active ids: %w", err)
	}

	c := models.NewCase(caseid.Next(year, ids), in)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedule (id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Judge, c.Prosecutor, c.Defendant, c.Lawyer, c.Witnesses, c.Room, c.Date, c.Time, c.Parties, c.Description, c.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info().Str("case_id", c.ID).Msg("case created")
	return c, nil
}

// ListActive returns all active cases sorted by (date, time) ascending.
func (s *SQLiteStore) ListActive(ctx context.Context) ([]*models.Case, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var createdAt string
		err := rows.Scan(&c.ID, &c.Name, &c.Judge, &c.Prosecutor, &c.Defendant, &c.Lawyer, &c.Witnesses, &c.Room, &c.Date, &c.Time, &c.Parties, &c.Description, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		cases = append(cases, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}

	return cases, nil
}

// ListArchive returns all archived cases sorted by (date, time) ascending.
func (s *SQLiteStore) ListArchive(ctx context.Context) ([]*models.ArchivedCase, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var createdAt string
		err := rows.Scan(&a.ID, &a.Name, &a.Judge, &a.Prosecutor, &a.Defendant, &a.Lawyer, &a.Witnesses, &a.Room, &a.Date, &a.Time, &a.Parties, &a.Description, &a.Result, &a.Verdict, &a.Document, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan archived case: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		cases = append(cases, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived cases: %w", err)
	}

	return cases, nil
}

// DeleteCase removes a case from the active docket.
func (s *SQLiteStore) DeleteCase(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM schedule WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Info().Str("case_id", id).Msg("case deleted")
	return nil
}

// ArchiveCase moves a case from the active docket into the archive inside a
// single transaction.
func (s *SQLiteStore) ArchiveCase(ctx context.Context, id string, out models.Outcome) (*models.ArchivedCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var c models.Case
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, created_at
		FROM schedule
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.Judge, &c.Prosecutor, &c.Defendant, &c.Lawyer, &c.Witnesses, &c.Room, &c.Date, &c.Time, &c.Parties, &c.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load case: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("remove case from schedule: %w", err)
	}

	a := &models.ArchivedCase{
		Case:     c,
		Result:   out.Result,
		Verdict:  out.Verdict,
		Document: out.Document,
	}
	a.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO archive (id, name, judge, prosecutor, defendant, lawyer, witnesses, room, date, time, parties, description, result, verdict, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Judge, a.Prosecutor, a.Defendant, a.Lawyer, a.Witnesses, a.Room, a.Date, a.Time, a.Parties, a.Description, a.Result, a.Verdict, a.Document, a.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert archived case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info().Str("case_id", id).Msg("case archived")
	return a, nil
}

// Ping verifies the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	s.logger.Info().Msg("docket database closed")
	return err
}
