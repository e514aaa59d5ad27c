package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtwright/docket/internal/caseid"
	"github.com/courtwright/docket/internal/models"
)

// runStoreSuite exercises the Store contract against a backend. Both the
// flat-file and SQLite backends run the full suite; the Postgres backend runs
// it from the integration tests.
func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns sequential ids", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		first, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A"})
		require.NoError(t, err)
		require.Equal(t, caseid.Prefix(time.Now().Year())+"0001", first.ID)

		second, err := s.CreateCase(ctx, models.CaseInput{Name: "Case B"})
		require.NoError(t, err)
		require.Equal(t, caseid.Prefix(time.Now().Year())+"0002", second.ID)
	})

	t.Run("created case listed once in active, absent from archive", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		c, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A"})
		require.NoError(t, err)

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, c.ID, active[0].ID)
		assert.Equal(t, "Case A", active[0].Name)

		archived, err := s.ListArchive(ctx)
		require.NoError(t, err)
		assert.Empty(t, archived)
	})

	t.Run("archive moves case and records outcome", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		c, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A", Date: "2025-06-01", Time: "09:00"})
		require.NoError(t, err)

		a, err := s.ArchiveCase(ctx, c.ID, models.Outcome{Result: "guilty", Verdict: "5 years", Document: "verdict.pdf"})
		require.NoError(t, err)
		assert.Equal(t, c.ID, a.ID)
		assert.Equal(t, "guilty", a.Result)

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)

		archived, err := s.ListArchive(ctx)
		require.NoError(t, err)
		require.Len(t, archived, 1)
		assert.Equal(t, c.ID, archived[0].ID)
		assert.Equal(t, "guilty", archived[0].Result)
		assert.Equal(t, "5 years", archived[0].Verdict)
		assert.Equal(t, "verdict.pdf", archived[0].Document)
	})

	t.Run("archived suffix is reissued to the next case", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		c, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A"})
		require.NoError(t, err)

		_, err = s.ArchiveCase(ctx, c.ID, models.Outcome{Result: "acquitted"})
		require.NoError(t, err)

		// The generator only scans the active docket, so the freed suffix
		// comes back.
		next, err := s.CreateCase(ctx, models.CaseInput{Name: "Case B"})
		require.NoError(t, err)
		assert.Equal(t, c.ID, next.ID)
	})

	t.Run("delete removes only the target", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		a, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A"})
		require.NoError(t, err)
		b, err := s.CreateCase(ctx, models.CaseInput{Name: "Case B"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteCase(ctx, a.ID))

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, b.ID, active[0].ID)
	})

	t.Run("delete and archive of unknown id report not found", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		c, err := s.CreateCase(ctx, models.CaseInput{Name: "Case A"})
		require.NoError(t, err)

		err = s.DeleteCase(ctx, "SA-2025-9999")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.ArchiveCase(ctx, "SA-2025-9999", models.Outcome{})
		require.ErrorIs(t, err, ErrNotFound)

		// Both collections unchanged.
		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, c.ID, active[0].ID)

		archived, err := s.ListArchive(ctx)
		require.NoError(t, err)
		assert.Empty(t, archived)
	})

	t.Run("listings sorted by date then time", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		inputs := []models.CaseInput{
			{Name: "late", Date: "2025-07-02", Time: "09:00"},
			{Name: "early", Date: "2025-07-01", Time: "14:00"},
			{Name: "mid", Date: "2025-07-01", Time: "16:00"},
		}
		for _, in := range inputs {
			_, err := s.CreateCase(ctx, in)
			require.NoError(t, err)
		}

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, "early", active[0].Name)
		assert.Equal(t, "mid", active[1].Name)
		assert.Equal(t, "late", active[2].Name)

		for _, c := range active {
			_, err := s.ArchiveCase(ctx, c.ID, models.Outcome{})
			require.NoError(t, err)
		}

		archived, err := s.ListArchive(ctx)
		require.NoError(t, err)
		require.Len(t, archived, 3)
		assert.Equal(t, "early", archived[0].Name)
		assert.Equal(t, "mid", archived[1].Name)
		assert.Equal(t, "late", archived[2].Name)
	})

	t.Run("concurrent adds lose nothing", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.CreateCase(ctx, models.CaseInput{Name: fmt.Sprintf("Case %d", i)})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		active, err := s.ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, n)

		seen := make(map[string]bool, n)
		for _, c := range active {
			assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
			seen[c.ID] = true
		}
	})
}
