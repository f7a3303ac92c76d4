package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/jciesla/mediavault"
	"github.com/jciesla/mediavault/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunService_CreateRun(t *testing.T) {
	t.Parallel()

	t.Run("assigns an id and persists the run", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		run := &mediavault.Run{
			Mode:           mediavault.ModeSweep,
			StartedAt:      time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC),
			FinishedAt:     time.Date(2024, 2, 3, 4, 15, 6, 0, time.UTC),
			Batches:        3,
			Downloaded:     240,
			Skipped:        8,
			DownloadFailed: 2,
			Deleted:        248,
			DeleteFailed:   0,
		}

		require.NoError(t, s.CreateRun(context.Background(), run))
		assert.NotEmpty(t, run.ID)

		found, err := s.FindRuns(context.Background(), mediavault.RunFilter{})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, run.ID, found[0].ID)
		assert.Equal(t, mediavault.ModeSweep, found[0].Mode)
		assert.Equal(t, 240, found[0].Downloaded)
		assert.True(t, found[0].StartedAt.Equal(run.StartedAt))
		assert.True(t, found[0].FinishedAt.Equal(run.FinishedAt))
	})

	t.Run("rejects an invalid mode", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		err := s.CreateRun(context.Background(), &mediavault.Run{Mode: "purge"})
		assert.Equal(t, mediavault.EINVALID, mediavault.ErrorCode(err))
	})

	t.Run("persists the abort reason", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		run := &mediavault.Run{
			Mode:       mediavault.ModeDownload,
			StartedAt:  time.Now().UTC().Truncate(time.Second),
			FinishedAt: time.Now().UTC().Truncate(time.Second),
			Err:        "batch 2: commit archive: disk full",
		}
		require.NoError(t, s.CreateRun(context.Background(), run))

		found, err := s.FindRuns(context.Background(), mediavault.RunFilter{})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "batch 2: commit archive: disk full", found[0].Err)
	})
}

func TestRunService_FindRuns(t *testing.T) {
	t.Parallel()

	seedRuns := func(t *testing.T, s *sqlite.RunService) {
		t.Helper()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, mode := range []string{
			mediavault.ModeDownload,
			mediavault.ModeDelete,
			mediavault.ModeSweep,
			mediavault.ModeDownload,
		} {
			require.NoError(t, s.CreateRun(context.Background(), &mediavault.Run{
				Mode:       mode,
				StartedAt:  base.Add(time.Duration(i) * time.Hour),
				FinishedAt: base.Add(time.Duration(i)*time.Hour + time.Minute),
			}))
		}
	}

	t.Run("returns runs most recent first", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		seedRuns(t, s)

		found, err := s.FindRuns(context.Background(), mediavault.RunFilter{})
		require.NoError(t, err)
		require.Len(t, found, 4)
		for i := 1; i < len(found); i++ {
			assert.True(t, !found[i].StartedAt.After(found[i-1].StartedAt))
		}
	})

	t.Run("filters by mode", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		seedRuns(t, s)

		mode := mediavault.ModeDownload
		found, err := s.FindRuns(context.Background(), mediavault.RunFilter{Mode: &mode})
		require.NoError(t, err)
		require.Len(t, found, 2)
		for _, r := range found {
			assert.Equal(t, mediavault.ModeDownload, r.Mode)
		}
	})

	t.Run("applies limit and offset", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		seedRuns(t, s)

		page1, err := s.FindRuns(context.Background(), mediavault.RunFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := s.FindRuns(context.Background(), mediavault.RunFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("empty ledger yields no runs", func(t *testing.T) {
		t.Parallel()

		s := sqlite.NewRunService(testDB(t))
		found, err := s.FindRuns(context.Background(), mediavault.RunFilter{})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}
