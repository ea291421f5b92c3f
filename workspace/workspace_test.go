package workspace_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/workspace"
)

func discardLogger() *logger.Logger {
	log := logger.New()
	log.SetOutput(io.Discard)
	return log
}

func TestWorkspace(t *testing.T) {
	t.Parallel()

	t.Run("should create a uniquely named root under the temp directory", func(t *testing.T) {
		t.Parallel()

		// given / when
		first, err := workspace.New(discardLogger())
		require.NoError(t, err)
		defer first.Cleanup()
		second, err := workspace.New(discardLogger())
		require.NoError(t, err)
		defer second.Cleanup()

		// then
		assert.DirExists(t, first.Root)
		assert.True(t, strings.HasPrefix(filepath.Base(first.Root), "deckhand-"))
		assert.NotEqual(t, first.Root, second.Root)
	})

	t.Run("should derive paths inside the root", func(t *testing.T) {
		t.Parallel()

		// given
		ws, err := workspace.New(discardLogger())
		require.NoError(t, err)
		defer ws.Cleanup()

		// when / then
		assert.Equal(t, filepath.Join(ws.Root, "widget"), ws.CloneDir("widget"))
		assert.Equal(t, filepath.Join(ws.Root, "widget.conf"), ws.RenderPath("widget.conf"))
	})

	t.Run("should remove the tree on cleanup", func(t *testing.T) {
		t.Parallel()

		// given: a workspace with content in it
		ws, err := workspace.New(discardLogger())
		require.NoError(t, err)
		cloneDir := ws.CloneDir("widget")
		require.NoError(t, os.MkdirAll(cloneDir, 0o700))
		require.NoError(t, os.WriteFile(filepath.Join(cloneDir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))

		// when
		ws.Cleanup()

		// then
		assert.NoDirExists(t, ws.Root)
	})

	t.Run("should tolerate repeated cleanup", func(t *testing.T) {
		t.Parallel()

		// given
		ws, err := workspace.New(discardLogger())
		require.NoError(t, err)

		// when
		ws.Cleanup()

		// then
		assert.NotPanics(t, ws.Cleanup)
	})
}
