package enum

import (
	"context"
	"errors"
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticEnumerator yields fixed sources in order.
type staticEnumerator map[string]string

func (s staticEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	for _, path := range sortedKeys(s) {
		if err := ctx.Err(); err != nil {
			return err
		}
		content := []byte(s[path])
		if err := callback(content, types.ComputeBlobID(content), types.FileProvenance{FilePath: path}); err != nil {
			return err
		}
	}
	return nil
}

func TestCombinedEnumerator_Empty(t *testing.T) {
	var yielded int
	err := NewCombinedEnumerator().Enumerate(context.Background(), func([]byte, types.BlobID, types.Provenance) error {
		yielded++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, yielded)
}

func TestCombinedEnumerator_DeduplicatesByBlobID(t *testing.T) {
	const entity = "<?php /** @Assert\\NotBlank */"

	first := staticEnumerator{"src/User.php": entity}
	second := staticEnumerator{
		"vendor/User.php": entity,
		"src/Post.php":    "<?php /** @Assert\\Length(max=80) */",
	}

	var paths []string
	err := NewCombinedEnumerator(first, second).Enumerate(context.Background(), func(_ []byte, _ types.BlobID, prov types.Provenance) error {
		paths = append(paths, prov.Path())
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"src/User.php", "src/Post.php"}, paths, "first provenance of a blob wins")
}

func TestCombinedEnumerator_OnDuplicate(t *testing.T) {
	const entity = "<?php /** @Assert\\NotBlank */"

	combined := NewCombinedEnumerator(
		staticEnumerator{"app/User.php": entity},
		staticEnumerator{"legacy/User.php": entity},
	)

	var dups []string
	combined.OnDuplicate = func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		assert.Nil(t, content)
		assert.Equal(t, types.ComputeBlobID([]byte(entity)), blobID)
		dups = append(dups, prov.Path())
		return nil
	}

	var yielded int
	err := combined.Enumerate(context.Background(), func([]byte, types.BlobID, types.Provenance) error {
		yielded++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, yielded)
	assert.Equal(t, []string{"legacy/User.php"}, dups)
}

func TestCombinedEnumerator_CallbackError(t *testing.T) {
	boom := errors.New("boom")
	second := staticEnumerator{"b.php": "b"}

	err := NewCombinedEnumerator(staticEnumerator{"a.php": "a"}, second).Enumerate(context.Background(), func([]byte, types.BlobID, types.Provenance) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCombinedEnumerator_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := NewCombinedEnumerator(staticEnumerator{"a.php": "a", "b.php": "b"}).Enumerate(ctx, func([]byte, types.BlobID, types.Provenance) error {
		calls++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
