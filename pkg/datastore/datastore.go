// Package datastore lays out a scan datastore directory: the SQLite
// database plus, optionally, the content of every blob that matched.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/praetorian-inc/annotscan/pkg/store"
)

// DBName is the database file inside a datastore directory.
const DBName = "annotscan.db"

// Datastore is an open datastore directory.
type Datastore struct {
	Path  string      // directory path, e.g. "annotscan.ds"
	Store store.Store // SQLite store for metadata
	Blobs *BlobStore  // nil unless Options.StoreBlobs is set
}

// Options configures datastore behavior.
type Options struct {
	StoreBlobs bool // keep blob content under blobs/
	Logger     *zap.Logger
}

// Open opens or creates a datastore directory.
func Open(path string, opts Options) (*Datastore, error) {
	if path == "" {
		return nil, fmt.Errorf("datastore path is required")
	}
	if path == store.MemoryPath {
		return nil, fmt.Errorf("datastore must be a directory, not %s", store.MemoryPath)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("datastore path is a file: %s", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating datastore directory: %w", err)
	}

	// Keep datastores out of the repositories they scan.
	gitignorePath := filepath.Join(path, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("*\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	ds := &Datastore{Path: path}
	if opts.StoreBlobs {
		root := filepath.Join(path, "blobs")
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("creating blobs directory: %w", err)
		}
		ds.Blobs = &BlobStore{Root: root}
	}

	s, err := store.New(store.Config{Path: filepath.Join(path, DBName)})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}
	ds.Store = s

	logger.Debug("opened datastore",
		zap.String("path", path),
		zap.Bool("store_blobs", opts.StoreBlobs))
	return ds, nil
}

// DatabasePath maps a datastore argument to the SQLite file to open.
// path may be the database file itself or a datastore directory.
func DatabasePath(path string) (string, error) {
	if path == store.MemoryPath {
		return "", fmt.Errorf("cannot report from in-memory store")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("datastore not found: %s", path)
	}
	if !info.IsDir() {
		return path, nil
	}

	path = filepath.Join(path, DBName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("datastore not found: %s", path)
	}
	return path, nil
}

// Close closes the datastore and releases resources.
func (d *Datastore) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
