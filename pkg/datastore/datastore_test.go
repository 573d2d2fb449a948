package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/praetorian-inc/annotscan/pkg/store"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annotscan.ds")

	ds, err := Open(path, Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	defer ds.Close()

	assert.FileExists(t, filepath.Join(path, DBName))
	assert.FileExists(t, filepath.Join(path, ".gitignore"))
	assert.NoDirExists(t, filepath.Join(path, "blobs"))
	assert.Nil(t, ds.Blobs)
}

func TestOpen_StoreBlobs(t *testing.T) {
	path := t.TempDir()

	ds, err := Open(path, Options{StoreBlobs: true})
	require.NoError(t, err)

	require.NotNil(t, ds.Blobs)
	assert.DirExists(t, filepath.Join(path, "blobs"))

	id, err := ds.Blobs.Store([]byte("<?php"))
	require.NoError(t, err)
	require.NoError(t, ds.Store.AddBlob(id, 5))
	require.NoError(t, ds.Close())

	// Reopening keeps both the database and the blobs.
	ds, err = Open(path, Options{StoreBlobs: true})
	require.NoError(t, err)
	defer ds.Close()

	exists, err := ds.Store.BlobExists(id)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, ds.Blobs.Exists(id))
}

func TestOpen_Invalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	for _, path := range []string{"", store.MemoryPath, file} {
		_, err := Open(path, Options{})
		assert.Error(t, err, "path %q", path)
	}
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	ds, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	got, err := DatabasePath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DBName), got)

	got, err = DatabasePath(filepath.Join(dir, DBName))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DBName), got)

	_, err = DatabasePath(store.MemoryPath)
	assert.Error(t, err)

	_, err = DatabasePath(filepath.Join(dir, "missing.db"))
	assert.Error(t, err)

	_, err = DatabasePath(t.TempDir())
	assert.Error(t, err, "directory without a database")
}
