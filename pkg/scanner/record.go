package scanner

import (
	"fmt"

	"github.com/praetorian-inc/annotscan/pkg/store"
	"github.com/praetorian-inc/annotscan/pkg/types"
)

// Record stores a scanned blob with its provenance, its matches and the
// findings they open. It returns how many findings were new to the store.
// Callers serialize calls that share a store.
func Record(s store.Store, blobID types.BlobID, size int64, prov types.Provenance, matches []*types.Match) (int, error) {
	if err := s.AddBlob(blobID, size); err != nil {
		return 0, fmt.Errorf("storing blob: %w", err)
	}
	if err := s.AddProvenance(blobID, prov); err != nil {
		return 0, fmt.Errorf("storing provenance: %w", err)
	}

	added := 0
	for _, match := range matches {
		if err := s.AddMatch(match); err != nil {
			return added, fmt.Errorf("storing match: %w", err)
		}

		exists, err := s.FindingExists(match.FindingID)
		if err != nil {
			return added, fmt.Errorf("checking finding: %w", err)
		}
		if exists {
			continue
		}

		finding := &types.Finding{
			ID:            match.FindingID,
			RuleID:        match.RuleID,
			QualifiedName: match.QualifiedName,
			Description:   match.Description,
		}
		if err := s.AddFinding(finding); err != nil {
			return added, fmt.Errorf("storing finding: %w", err)
		}
		added++
	}
	return added, nil
}
