package enum

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/praetorian-inc/annotscan/pkg/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeTree creates files relative to root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// collector gathers enumerated blobs from concurrent callbacks.
type collector struct {
	mu    sync.Mutex
	blobs map[string][]byte // provenance path -> content
	provs map[string]types.Provenance
}

func newCollector() *collector {
	return &collector{
		blobs: make(map[string][]byte),
		provs: make(map[string]types.Provenance),
	}
}

func (c *collector) callback(content []byte, blobID types.BlobID, prov types.Provenance) error {
	if blobID != types.ComputeBlobID(content) {
		panic("blob ID does not match content")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobs[prov.Path()] = content
	c.provs[prov.Path()] = prov
	return nil
}

func (c *collector) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.blobs)
}
