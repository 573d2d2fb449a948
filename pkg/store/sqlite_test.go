package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "scan.db")
	content := []byte(testContent)
	match := testMatch(content, 8, 20, `Assert\Regex`, `("/a/")`)

	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.AddBlob(match.BlobID, int64(len(content))))
	require.NoError(t, s.AddMatch(match))
	require.NoError(t, s.Close())

	s, err = NewSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	exists, err := s.BlobExists(match.BlobID)
	require.NoError(t, err)
	assert.True(t, exists)

	matches, err := s.GetAllMatches()
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, match.StructuralID, matches[0].StructuralID)
}

func TestSQLite_NullLocationValues(t *testing.T) {
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()

	blobID := types.ComputeBlobID([]byte("x"))
	_, err = s.db.Exec(`
		INSERT INTO matches (blob_id, rule_id, rule_name, structural_id, finding_id,
			qualified_name, description, offset_start, offset_end)
		VALUES (?, 'r', 'Regex', 'sid', 'fid', 'Regex', '', 1, 6)
	`, blobID.Hex())
	require.NoError(t, err)

	matches, err := s.GetMatches(blobID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].Location.Offset.Start)
	assert.Equal(t, 0, matches[0].Location.Source.Start.Line)
	assert.Nil(t, matches[0].Snippet.Before)
}

func TestCreateSchema(t *testing.T) {
	db, err := openDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, CreateSchema(db))

	version, err := ReadSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)

	for _, table := range []string{"blobs", "rules", "matches", "findings", "provenance"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	// Idempotent
	assert.NoError(t, CreateSchema(db))
}

func TestCreateSchema_VersionMismatch(t *testing.T) {
	db, err := openDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, CreateSchema(db))
	_, err = db.Exec("UPDATE schema_version SET version = ?", SchemaVersion+1)
	require.NoError(t, err)

	err = CreateSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version")
}

func TestReadSchemaVersion_Missing(t *testing.T) {
	db, err := sql.Open(driverName, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = ReadSchemaVersion(db)
	assert.Error(t, err)
}
