package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// provenanceKey mirrors the SQLite uniqueness constraint on provenance.
type provenanceKey struct {
	kind, path, repoPath, commitHash string
}

// MemoryStore implements Store using in-memory data structures.
// It follows the same deduplication rules as the SQLite store.
type MemoryStore struct {
	mu         sync.RWMutex
	blobs      map[types.BlobID]int64
	rules      map[string]*types.Rule
	matches    []*types.Match
	matchIDs   map[string]bool           // structural IDs in matches
	findings   map[string]*types.Finding // keyed by finding ID
	provenance map[types.BlobID][]types.Provenance
	provKeys   map[types.BlobID]map[provenanceKey]bool
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		blobs:      make(map[types.BlobID]int64),
		rules:      make(map[string]*types.Rule),
		matchIDs:   make(map[string]bool),
		findings:   make(map[string]*types.Finding),
		provenance: make(map[types.BlobID][]types.Provenance),
		provKeys:   make(map[types.BlobID]map[provenanceKey]bool),
	}
}

// AddBlob stores a blob record.
func (m *MemoryStore) AddBlob(id types.BlobID, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[id]; !exists {
		m.blobs[id] = size
	}
	return nil
}

// AddRule stores a rule, replacing one with the same ID.
func (m *MemoryStore) AddRule(r *types.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rules[r.ID] = r
	return nil
}

// AddMatch stores a match record.
func (m *MemoryStore) AddMatch(match *types.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.matchIDs[match.StructuralID] {
		return nil
	}
	m.matchIDs[match.StructuralID] = true
	m.matches = append(m.matches, match)
	return nil
}

// AddFinding stores a finding (deduplicated).
func (m *MemoryStore) AddFinding(f *types.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.findings[f.ID]; !exists {
		m.findings[f.ID] = &types.Finding{
			ID:            f.ID,
			RuleID:        f.RuleID,
			QualifiedName: f.QualifiedName,
			Description:   f.Description,
		}
	}
	return nil
}

// AddProvenance associates provenance with a blob.
func (m *MemoryStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	row, err := toProvenanceRow(prov)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := provenanceKey{row.kind, row.path, row.repoPath, row.commitHash}
	keys := m.provKeys[blobID]
	if keys == nil {
		keys = make(map[provenanceKey]bool)
		m.provKeys[blobID] = keys
	}
	if keys[key] {
		return nil
	}
	keys[key] = true

	m.provenance[blobID] = append(m.provenance[blobID], prov)
	return nil
}

// GetMatches retrieves matches for a blob.
func (m *MemoryStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*types.Match{}
	for _, match := range m.matches {
		if match.BlobID == blobID {
			result = append(result, match)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Location.Offset.Start < result[j].Location.Offset.Start
	})
	return result, nil
}

// GetAllMatches retrieves all matches (for JSON export).
func (m *MemoryStore) GetAllMatches() ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to avoid external modifications
	result := make([]*types.Match, len(m.matches))
	copy(result, m.matches)
	return result, nil
}

// GetRules retrieves the stored rules ordered by ID.
func (m *MemoryStore) GetRules() ([]*types.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetFindings retrieves all findings (for reporting).
func (m *MemoryStore) GetFindings() ([]*types.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Finding, 0, len(m.findings))
	for _, f := range m.findings {
		copied := *f
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.QualifiedName != b.QualifiedName {
			return a.QualifiedName < b.QualifiedName
		}
		return a.Description < b.Description
	})

	attachMatches(result, m.matches)
	return result, nil
}

// GetProvenance retrieves every provenance record of a blob.
func (m *MemoryStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provs := m.provenance[blobID]
	result := make([]types.Provenance, len(provs))
	copy(result, provs)
	return result, nil
}

// FindingExists checks if a finding with this ID exists.
func (m *MemoryStore) FindingExists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.findings[id]
	return exists, nil
}

// BlobExists checks if a blob has already been scanned.
func (m *MemoryStore) BlobExists(id types.BlobID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.blobs[id]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
