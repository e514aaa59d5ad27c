// Package store defines the persistence interface for the docket server and
// its PostgreSQL, SQLite, and flat-file implementations.
package store

import (
	"context"
	"errors"

	"github.com/courtwright/docket/internal/models"
)

// ErrNotFound is returned when the target identifier is absent from the
// active docket.
var ErrNotFound = errors.New("case not found")

// Store is the persistence contract consumed by the HTTP handlers. Every
// mutating call is linearized by the backend: a transaction for the SQL
// stores, a single writer lock for the flat-file store. Identifier assignment
// happens inside CreateCase so that two concurrent adds can never observe the
// same active set and collide.
type Store interface {
	// CreateCase assigns the next case identifier, stores the record on the
	// active docket, and returns it.
	CreateCase(ctx context.Context, in models.CaseInput) (*models.Case, error)

	// ListActive returns all active cases sorted by (date, time) ascending.
	ListActive(ctx context.Context) ([]*models.Case, error)

	// ListArchive returns all archived cases sorted by (date, time) ascending.
	ListArchive(ctx context.Context) ([]*models.ArchivedCase, error)

	// DeleteCase removes a case from the active docket. Returns ErrNotFound
	// if the identifier is not on the active docket; the archive is never
	// touched.
	DeleteCase(ctx context.Context, id string) error

	// ArchiveCase moves a case from the active docket to the archive,
	// attaching the given outcome. The move is atomic: no observer sees the
	// record in both collections or in neither. Returns ErrNotFound if the
	// identifier is not on the active docket.
	ArchiveCase(ctx context.Context, id string, out models.Outcome) (*models.ArchivedCase, error)

	// InitSchema creates the backing tables or files if they do not exist.
	// Safe to call repeatedly.
	InitSchema(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend resources.
	Close() error
}
