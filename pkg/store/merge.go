package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	BlobsMerged      int
	RulesMerged      int
	MatchesMerged    int
	FindingsMerged   int
	ProvenanceMerged int
	SourcesProcessed int
}

func (s *MergeStats) add(o *MergeStats) {
	s.BlobsMerged += o.BlobsMerged
	s.RulesMerged += o.RulesMerged
	s.MatchesMerged += o.MatchesMerged
	s.FindingsMerged += o.FindingsMerged
	s.ProvenanceMerged += o.ProvenanceMerged
}

// mergeTables lists the copied tables in dependency order.
var mergeTables = []struct {
	name    string
	columns string
	counter func(*MergeStats) *int
}{
	{"blobs", "id, size", func(s *MergeStats) *int { return &s.BlobsMerged }},
	{"rules", "id, name, structural_id, description, references_json, categories_json", func(s *MergeStats) *int { return &s.RulesMerged }},
	{"matches", matchColumns, func(s *MergeStats) *int { return &s.MatchesMerged }},
	{"findings", "structural_id, rule_id, qualified_name, description", func(s *MergeStats) *int { return &s.FindingsMerged }},
	{"provenance", "blob_id, type, path, repo_path, commit_hash, author_name, author_email, author_time, message", func(s *MergeStats) *int { return &s.ProvenanceMerged }},
}

// Merge combines multiple annotscan databases into one.
// Deduplication is handled via INSERT OR IGNORE on unique keys.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	destDB, err := openDB(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(context.Background(), destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.add(sourceStats)
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom attaches a source database to the destination connection and
// copies every table inside one transaction.
func mergeFrom(ctx context.Context, destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	if err := checkSource(sourcePath); err != nil {
		return nil, err
	}

	conn, err := destDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS src", sourcePath); err != nil {
		return nil, fmt.Errorf("attaching source database: %w", err)
	}
	defer conn.ExecContext(ctx, "DETACH DATABASE src")

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stats := &MergeStats{}
	for _, t := range mergeTables {
		query := fmt.Sprintf("INSERT OR IGNORE INTO main.%s (%s) SELECT %s FROM src.%s",
			t.name, t.columns, t.columns, t.name)
		result, err := tx.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", t.name, err)
		}
		affected, _ := result.RowsAffected()
		*t.counter(stats) = int(affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}

// checkSource verifies that path is an existing database with our schema.
func checkSource(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := ReadSchemaVersion(db)
	if err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("source schema version %d does not match %d", version, SchemaVersion)
	}
	return nil
}
