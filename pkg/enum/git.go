package enum

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// DefaultRef is the revision scanned when none is given.
const DefaultRef = "HEAD"

// GitEnumerator enumerates the files of one revision of a git repository.
type GitEnumerator struct {
	config Config
	// CommitRef optionally specifies the revision to enumerate (defaults to HEAD)
	CommitRef string
}

// NewGitEnumerator creates a new git enumerator.
func NewGitEnumerator(config Config) *GitEnumerator {
	return &GitEnumerator{
		config:    config,
		CommitRef: DefaultRef,
	}
}

// Enumerate walks the revision's tree and yields each unique blob once.
func (e *GitEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	repo, err := git.PlainOpenWithOptions(e.config.Root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	ref := e.CommitRef
	if ref == "" {
		ref = DefaultRef
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return fmt.Errorf("failed to get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree: %w", err)
	}

	commitMeta := &types.CommitMetadata{
		CommitID:        commit.Hash.String(),
		AuthorName:      commit.Author.Name,
		AuthorEmail:     commit.Author.Email,
		AuthorTimestamp: commit.Author.When,
		Message:         commit.Message,
	}

	var ignore *gitignore.GitIgnore
	if len(e.config.Excludes) > 0 {
		ignore = gitignore.CompileIgnoreLines(e.config.Excludes...)
	}
	exts := newExtensionFilter(e.config.Extensions)
	seen := make(map[plumbing.Hash]bool)

	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if seen[f.Hash] || !exts.matches(f.Name) {
			return nil
		}
		if !e.config.IncludeHidden && hasHiddenSegment(f.Name) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(f.Name) {
			return nil
		}
		if e.config.MaxFileSize > 0 && f.Size > e.config.MaxFileSize {
			return nil
		}
		seen[f.Hash] = true

		content, err := f.Contents()
		if err != nil {
			return fmt.Errorf("failed to get contents of %s: %w", f.Name, err)
		}

		data := []byte(content)
		if isBinary(data) {
			return nil
		}

		prov := types.GitProvenance{
			RepoPath: e.config.Root,
			Commit:   commitMeta,
			BlobPath: f.Name,
		}
		return callback(data, types.ComputeBlobID(data), prov)
	})
	if err != nil {
		return fmt.Errorf("failed to walk tree: %w", err)
	}

	return nil
}

// hasHiddenSegment reports whether any element of a slash-separated path is hidden.
func hasHiddenSegment(path string) bool {
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if isHidden(path[start:i]) {
				return true
			}
			start = i + 1
		}
	}
	return false
}
