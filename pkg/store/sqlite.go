package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/annotscan/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql name registered by modernc.org/sqlite.
const driverName = "sqlite"

const matchColumns = `blob_id, rule_id, rule_name, structural_id, finding_id,
	qualified_name, description, offset_start, offset_end,
	start_line, start_column, end_line, end_column,
	snippet_before, snippet_matching, snippet_after`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for an in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openDB opens path with a single connection. SQLite serializes writers
// anyway, and ":memory:" databases exist per connection.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}
	return db, nil
}

// AddBlob stores a blob record.
func (s *SQLiteStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO blobs (id, size) VALUES (?, ?)", id.Hex(), size)
	if err != nil {
		return fmt.Errorf("inserting blob: %w", err)
	}
	return nil
}

// AddRule stores a rule. A rule already stored under the same ID is replaced.
func (s *SQLiteStore) AddRule(r *types.Rule) error {
	refs, err := json.Marshal(nonNil(r.References))
	if err != nil {
		return fmt.Errorf("marshaling references: %w", err)
	}
	cats, err := json.Marshal(nonNil(r.Categories))
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO rules (id, name, structural_id, description, references_json, categories_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.StructuralID, r.Description, string(refs), string(cats))
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}
	return nil
}

// AddMatch stores a match record.
func (s *SQLiteStore) AddMatch(m *types.Match) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.BlobID.Hex(),
		m.RuleID,
		m.RuleName,
		m.StructuralID,
		m.FindingID,
		m.QualifiedName,
		m.Description,
		m.Location.Offset.Start,
		m.Location.Offset.End,
		m.Location.Source.Start.Line,
		m.Location.Source.Start.Column,
		m.Location.Source.End.Line,
		m.Location.Source.End.Column,
		m.Snippet.Before,
		m.Snippet.Matching,
		m.Snippet.After,
	)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}

	return nil
}

// AddFinding stores a finding (deduplicated).
func (s *SQLiteStore) AddFinding(f *types.Finding) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO findings (structural_id, rule_id, qualified_name, description)
		VALUES (?, ?, ?, ?)
	`, f.ID, f.RuleID, f.QualifiedName, f.Description)
	if err != nil {
		return fmt.Errorf("inserting finding: %w", err)
	}

	return nil
}

// AddProvenance associates provenance with a blob.
func (s *SQLiteStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	row, err := toProvenanceRow(prov)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO provenance
		(blob_id, type, path, repo_path, commit_hash, author_name, author_email, author_time, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		blobID.Hex(),
		row.kind,
		row.path,
		row.repoPath,
		row.commitHash,
		row.authorName,
		row.authorEmail,
		row.authorTime,
		row.message,
	)
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}

	return nil
}

// GetMatches retrieves matches for a blob.
func (s *SQLiteStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	return s.queryMatches(`
		SELECT `+matchColumns+`
		FROM matches
		WHERE blob_id = ?
		ORDER BY offset_start, id
	`, blobID.Hex())
}

// GetAllMatches retrieves all matches in insertion order.
func (s *SQLiteStore) GetAllMatches() ([]*types.Match, error) {
	return s.queryMatches(`
		SELECT ` + matchColumns + `
		FROM matches
		ORDER BY id
	`)
}

// GetRules retrieves the stored rules ordered by ID.
func (s *SQLiteStore) GetRules() ([]*types.Rule, error) {
	rows, err := s.db.Query(`
		SELECT id, name, structural_id, description, references_json, categories_json
		FROM rules
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []*types.Rule
	for rows.Next() {
		var r types.Rule
		var refs, cats string
		if err := rows.Scan(&r.ID, &r.Name, &r.StructuralID, &r.Description, &refs, &cats); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		if err := json.Unmarshal([]byte(refs), &r.References); err != nil {
			return nil, fmt.Errorf("unmarshaling references of %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(cats), &r.Categories); err != nil {
			return nil, fmt.Errorf("unmarshaling categories of %s: %w", r.ID, err)
		}
		rules = append(rules, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}
	return rules, nil
}

// GetFindings retrieves all findings (for reporting).
func (s *SQLiteStore) GetFindings() ([]*types.Finding, error) {
	rows, err := s.db.Query(`
		SELECT structural_id, rule_id, qualified_name, description
		FROM findings
		ORDER BY rule_id, qualified_name, description
	`)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []*types.Finding
	for rows.Next() {
		var f types.Finding
		if err := rows.Scan(&f.ID, &f.RuleID, &f.QualifiedName, &f.Description); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		findings = append(findings, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	rows.Close()

	matches, err := s.GetAllMatches()
	if err != nil {
		return nil, err
	}
	attachMatches(findings, matches)

	return findings, nil
}

// GetProvenance retrieves every provenance record of a blob.
func (s *SQLiteStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	rows, err := s.db.Query(`
		SELECT type, path, repo_path, commit_hash, author_name, author_email, author_time, message
		FROM provenance
		WHERE blob_id = ?
		ORDER BY id
	`, blobID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	provs := []types.Provenance{}
	for rows.Next() {
		var r provenanceRow
		err := rows.Scan(&r.kind, &r.path, &r.repoPath, &r.commitHash,
			&r.authorName, &r.authorEmail, &r.authorTime, &r.message)
		if err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := r.provenance()
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}
	return provs, nil
}

// FindingExists checks if a finding with this ID exists.
func (s *SQLiteStore) FindingExists(id string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM findings WHERE structural_id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking finding existence: %w", err)
	}
	return count > 0, nil
}

// BlobExists checks if a blob has already been scanned.
func (s *SQLiteStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM blobs WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blob existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *SQLiteStore) queryMatches(query string, args ...any) ([]*types.Match, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	matches := []*types.Match{}
	for rows.Next() {
		var m types.Match
		var blobIDHex string
		var startLine, startCol, endLine, endCol sql.NullInt64

		err := rows.Scan(
			&blobIDHex,
			&m.RuleID,
			&m.RuleName,
			&m.StructuralID,
			&m.FindingID,
			&m.QualifiedName,
			&m.Description,
			&m.Location.Offset.Start,
			&m.Location.Offset.End,
			&startLine,
			&startCol,
			&endLine,
			&endCol,
			&m.Snippet.Before,
			&m.Snippet.Matching,
			&m.Snippet.After,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		blobID, err := types.ParseBlobID(blobIDHex)
		if err != nil {
			return nil, fmt.Errorf("parsing blob ID: %w", err)
		}
		m.BlobID = blobID

		// Missing positions read back as zero.
		m.Location.Source.Start.Line = int(startLine.Int64)
		m.Location.Source.Start.Column = int(startCol.Int64)
		m.Location.Source.End.Line = int(endLine.Int64)
		m.Location.Source.End.Column = int(endCol.Int64)

		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// attachMatches sets each finding's Matches from matches, keeping match order.
func attachMatches(findings []*types.Finding, matches []*types.Match) {
	byID := make(map[string]*types.Finding, len(findings))
	for _, f := range findings {
		f.Matches = nil
		byID[f.ID] = f
	}
	for _, m := range matches {
		if f, ok := byID[m.FindingID]; ok {
			f.Matches = append(f.Matches, m)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
