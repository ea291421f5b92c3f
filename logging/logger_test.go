package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/logging"
)

func TestNewRunLog(t *testing.T) {
	t.Parallel()

	t.Run("should create the directory and a timestamped file", func(t *testing.T) {
		t.Parallel()

		// given
		dir := filepath.Join(t.TempDir(), "logs")

		// when
		runLog, err := logging.NewRunLog(dir)

		// then
		require.NoError(t, err)
		defer runLog.Close()
		assert.Equal(t, dir, filepath.Dir(runLog.Path))
		assert.Regexp(t, `^deckhand-\d{8}-\d{6}\.log$`, filepath.Base(runLog.Path))
		assert.FileExists(t, runLog.Path)
	})

	t.Run("should append log entries to the file", func(t *testing.T) {
		t.Parallel()

		// given
		runLog, err := logging.NewRunLog(t.TempDir())
		require.NoError(t, err)

		// when
		runLog.Logger.Info("Deployment of widget complete")
		require.NoError(t, runLog.Close())

		// then
		content, err := os.ReadFile(runLog.Path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Deployment of widget complete")
		assert.Contains(t, string(content), "level=info")
	})

	t.Run("should fail when the directory cannot be created", func(t *testing.T) {
		t.Parallel()

		// given: a file occupies the directory path
		parent := t.TempDir()
		blocked := filepath.Join(parent, "logs")
		require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

		// when
		_, err := logging.NewRunLog(blocked)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create log directory")
	})

	t.Run("should tolerate closing twice", func(t *testing.T) {
		t.Parallel()

		// given
		runLog, err := logging.NewRunLog(t.TempDir())
		require.NoError(t, err)

		// when
		require.NoError(t, runLog.Close())

		// then: second close surfaces the underlying error, nothing panics
		assert.Error(t, runLog.Close())
	})
}
