package enum

import (
	"context"
	"sync"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// CombinedEnumerator runs several enumerators in order and yields each
// distinct blob once, under the first provenance it was found with.
type CombinedEnumerator struct {
	enumerators []Enumerator

	// OnDuplicate, when set, receives the provenance of every blob an
	// earlier enumerator already yielded. Content is nil.
	OnDuplicate Callback
}

// NewCombinedEnumerator wraps enumerators; they run in order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in turn.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	var mu sync.Mutex
	seen := make(map[types.BlobID]bool)

	for _, e := range c.enumerators {
		err := e.Enumerate(ctx, func(content []byte, blobID types.BlobID, prov types.Provenance) error {
			mu.Lock()
			dup := seen[blobID]
			seen[blobID] = true
			mu.Unlock()

			if !dup {
				return callback(content, blobID, prov)
			}
			if c.OnDuplicate != nil {
				return c.OnDuplicate(nil, blobID, prov)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
