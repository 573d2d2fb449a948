package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

func TestBlobStore_Store(t *testing.T) {
	bs := &BlobStore{Root: t.TempDir()}

	content := []byte("<?php /** @Assert\\NotBlank */")
	id, err := bs.Store(content)
	require.NoError(t, err)
	assert.Equal(t, types.ComputeBlobID(content), id)

	hexID := id.Hex()
	stored, err := os.ReadFile(filepath.Join(bs.Root, hexID[:2], hexID[2:]))
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	// Storing again is a no-op.
	again, err := bs.Store(content)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	entries, err := os.ReadDir(filepath.Join(bs.Root, hexID[:2]))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestBlobStore_Get(t *testing.T) {
	bs := &BlobStore{Root: t.TempDir()}

	tests := []struct {
		name    string
		content []byte
	}{
		{"php", []byte("<?php\nclass User {}\n")},
		{"empty", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := types.ComputeBlobID(tt.content)
			require.NoError(t, bs.Put(id, tt.content))

			got, err := bs.Get(id)
			require.NoError(t, err)
			assert.Equal(t, len(tt.content), len(got))
			assert.True(t, bs.Exists(id))
		})
	}
}

func TestBlobStore_GetMissing(t *testing.T) {
	bs := &BlobStore{Root: t.TempDir()}

	id := types.ComputeBlobID([]byte("does not exist"))
	_, err := bs.Get(id)
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.False(t, bs.Exists(id))
}
