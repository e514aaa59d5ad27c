package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/caseid"
	"github.com/courtwright/docket/internal/models"
)

const (
	scheduleFile = "schedule.json"
	archiveFile  = "archive.json"
)

// JSONFileStore implements Store on a pair of whole-collection JSON files.
// Every mutating call is a full read-modify-write critical section guarded by
// one mutex, and every rewrite goes through a temp-file, fsync, rename cycle
// so a crash never leaves a partially written collection behind.
type JSONFileStore struct {
	dataDir string
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewJSONFile creates a JSONFileStore rooted at dataDir.
func NewJSONFile(dataDir string, logger zerolog.Logger) (*JSONFileStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &JSONFileStore{
		dataDir: dataDir,
		logger:  logger.With().Str("component", "jsonfile_store").Logger(),
	}

	if err := s.InitSchema(context.Background()); err != nil {
		return nil, err
	}

	s.logger.Info().Str("dir", dataDir).Msg("flat-file store initialized")
	return s, nil
}

// InitSchema creates empty collection files where none exist yet.
func (s *JSONFileStore) InitSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{scheduleFile, archiveFile} {
		path := filepath.Join(s.dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := writeJSONAtomic(path, []json.RawMessage{}); err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil
}

// readCollection decodes a collection file into dst. A missing file is
// treated as an empty collection.
func (s *JSONFileStore) readCollection(name string, dst any) error {
	path := filepath.Join(s.dataDir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// writeCollection atomically rewrites a collection file.
func (s *JSONFileStore) writeCollection(name string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := writeFileAtomic(filepath.Join(s.dataDir, name), data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// CreateCase assigns the next case identifier and appends the record to the
// active collection.
func (s *JSONFileStore) CreateCase(_ context.Context, in models.CaseInput) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*models.Case
	if err := s.readCollection(scheduleFile, &active); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(active))
	for _, c := range active {
		ids = append(ids, c.ID)
	}

	c := models.NewCase(caseid.NextNow(ids), in)
	active = append(active, c)

	if err := s.writeCollection(scheduleFile, active); err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", c.ID).Msg("case created")
	return c, nil
}

// ListActive returns all active cases sorted by (date, time) ascending.
// Storage order breaks ties.
func (s *JSONFileStore) ListActive(context.Context) ([]*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*models.Case
	if err := s.readCollection(scheduleFile, &active); err != nil {
		return nil, err
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Date != active[j].Date {
			return active[i].Date < active[j].Date
		}
		return active[i].Time < active[j].Time
	})
	return active, nil
}

// ListArchive returns all archived cases sorted by (date, time) ascending.
func (s *JSONFileStore) ListArchive(context.Context) ([]*models.ArchivedCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archived []*models.ArchivedCase
	if err := s.readCollection(archiveFile, &archived); err != nil {
		return nil, err
	}

	sort.SliceStable(archived, func(i, j int) bool {
		if archived[i].Date != archived[j].Date {
			return archived[i].Date < archived[j].Date
		}
		return archived[i].Time < archived[j].Time
	})
	return archived, nil
}

// DeleteCase removes a case from the active collection.
func (s *JSONFileStore) DeleteCase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*models.Case
	if err := s.readCollection(scheduleFile, &active); err != nil {
		return err
	}

	kept := active[:0]
	found := false
	for _, c := range active {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrNotFound
	}

	if err := s.writeCollection(scheduleFile, kept); err != nil {
		return err
	}

	s.logger.Info().Str("case_id", id).Msg("case deleted")
	return nil
}

// ArchiveCase moves a case from the active collection into the archive. The
// archive file is written before the active file is rewritten: if the process
// dies between the two writes the record survives as a duplicate in the
// archive awaiting manual reconciliation, never as a silent loss.
func (s *JSONFileStore) ArchiveCase(_ context.Context, id string, out models.Outcome) (*models.ArchivedCase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*models.Case
	if err := s.readCollection(scheduleFile, &active); err != nil {
		return nil, err
	}

	var target *models.Case
	kept := active[:0]
	for _, c := range active {
		if c.ID == id {
			target = c
			continue
		}
		kept = append(kept, c)
	}
	if target == nil {
		return nil, ErrNotFound
	}

	var archived []*models.ArchivedCase
	if err := s.readCollection(archiveFile, &archived); err != nil {
		return nil, err
	}

	a := &models.ArchivedCase{
		Case:     *target,
		Result:   out.Result,
		Verdict:  out.Verdict,
		Document: out.Document,
	}
	a.CreatedAt = time.Now().UTC()
	archived = append(archived, a)

	if err := s.writeCollection(archiveFile, archived); err != nil {
		return nil, err
	}
	if err := s.writeCollection(scheduleFile, kept); err != nil {
		return nil, err
	}

	s.logger.Info().Str("case_id", id).Msg("case archived")
	return a, nil
}

// Ping verifies the data directory is reachable.
func (s *JSONFileStore) Ping(context.Context) error {
	if _, err := os.Stat(s.dataDir); err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	return nil
}

// Close is a no-op; the store holds no open handles between calls.
func (s *JSONFileStore) Close() error {
	return nil
}

// writeJSONAtomic marshals v and writes it through writeFileAtomic.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to path using the temp-file, fsync, rename
// pattern so readers always observe either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docket-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
