package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jciesla/mediavault/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureLog_Append(t *testing.T) {
	t.Parallel()

	t.Run("writes one tab-separated line per failure", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), fs.DefaultFailureLogName)
		log := fs.NewFailureLog(path)

		require.NoError(t, log.Append(context.Background(), "IMG_0001.jpg", "lock conflict"))
		require.NoError(t, log.Append(context.Background(), "IMG_0002.jpg", "not found"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "IMG_0001.jpg\tlock conflict\nIMG_0002.jpg\tnot found\n", string(data))
	})

	t.Run("appends to an existing log", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), fs.DefaultFailureLogName)
		require.NoError(t, os.WriteFile(path, []byte("IMG_0000.jpg\told entry\n"), 0o644))

		log := fs.NewFailureLog(path)
		require.NoError(t, log.Append(context.Background(), "IMG_0001.jpg", "lock conflict"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "IMG_0000.jpg\told entry\nIMG_0001.jpg\tlock conflict\n", string(data))
	})

	t.Run("sanitizes newlines in the reason", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), fs.DefaultFailureLogName)
		log := fs.NewFailureLog(path)

		require.NoError(t, log.Append(context.Background(), "IMG_0001.jpg", "multi\nline\nreason"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "IMG_0001.jpg\tmulti line reason\n", string(data))
	})

	t.Run("unwritable path fails", func(t *testing.T) {
		t.Parallel()

		log := fs.NewFailureLog(filepath.Join(t.TempDir(), "missing", fs.DefaultFailureLogName))
		assert.Error(t, log.Append(context.Background(), "IMG_0001.jpg", "x"))
	})
}
