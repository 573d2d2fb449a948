// Package enum discovers PHP sources to scan.
package enum

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// DefaultExtensions are scanned when Config.Extensions is empty.
var DefaultExtensions = []string{".php"}

// Callback receives one blob. Enumerators may call it from several
// goroutines at once.
type Callback func(content []byte, blobID types.BlobID, prov types.Provenance) error

// Enumerator discovers content to scan from a source.
type Enumerator interface {
	// Enumerate yields blobs from the source.
	// The callback receives blob content, its ID, and provenance information.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links to files.
	FollowSymlinks bool

	// Extensions restricts enumeration to these file extensions
	// (with or without the leading dot). Nil means DefaultExtensions;
	// "*" matches every file.
	Extensions []string

	// Excludes are gitignore-style patterns applied on top of the root .gitignore.
	Excludes []string
}

// extensionFilter reports whether a path has one of the configured extensions.
type extensionFilter map[string]bool

func newExtensionFilter(exts []string) extensionFilter {
	if exts == nil {
		exts = DefaultExtensions
	}
	f := make(extensionFilter, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if ext != "*" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f[ext] = true
	}
	return f
}

func (f extensionFilter) matches(path string) bool {
	if len(f) == 0 || f["*"] {
		return true
	}
	return f[strings.ToLower(filepath.Ext(path))]
}
