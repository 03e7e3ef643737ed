package nexus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoelJohnsonThomas/nexus-pipeline/ai/mock"
	"github.com/JoelJohnsonThomas/nexus-pipeline/extract"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.ItemRepository())
		assert.NotNil(t, db.StatusRepository())
		assert.NotNil(t, db.SummaryRepository())
		assert.NotNil(t, db.EmbeddingRepository())
		assert.NotNil(t, db.Queue())
		assert.NotNil(t, db.Cache())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("in-memory database", func(t *testing.T) {
		db, err := NewDatabase("", WithInMemory(), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		assert.NoError(t, db.Close())
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase("", WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithExtractor(extract.NewMockExtractor()))
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create orchestrator", func(t *testing.T) {
		orchestrator, err := db.NewOrchestrator()
		require.NoError(t, err)
		require.NotNil(t, orchestrator)
	})

	t.Run("can create runner with handlers registered", func(t *testing.T) {
		runner, err := db.NewRunner()
		require.NoError(t, err)
		require.NotNil(t, runner)
	})
}
