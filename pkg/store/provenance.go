package store

import (
	"fmt"
	"time"

	"github.com/praetorian-inc/annotscan/pkg/types"
)

// provenanceRow is the flattened form of a provenance record.
type provenanceRow struct {
	kind        string
	path        string
	repoPath    string
	commitHash  string
	authorName  string
	authorEmail string
	authorTime  int64
	message     string
}

func toProvenanceRow(prov types.Provenance) (provenanceRow, error) {
	switch p := prov.(type) {
	case types.FileProvenance:
		return provenanceRow{kind: p.Kind(), path: p.FilePath}, nil
	case types.StringProvenance:
		return provenanceRow{kind: p.Kind(), path: p.Name}, nil
	case types.GitProvenance:
		row := provenanceRow{kind: p.Kind(), path: p.BlobPath, repoPath: p.RepoPath}
		if c := p.Commit; c != nil {
			row.commitHash = c.CommitID
			row.authorName = c.AuthorName
			row.authorEmail = c.AuthorEmail
			row.message = c.Message
			if !c.AuthorTimestamp.IsZero() {
				row.authorTime = c.AuthorTimestamp.Unix()
			}
		}
		return row, nil
	default:
		return provenanceRow{}, fmt.Errorf("unknown provenance type: %T", prov)
	}
}

func (r provenanceRow) provenance() (types.Provenance, error) {
	switch r.kind {
	case "file":
		return types.FileProvenance{FilePath: r.path}, nil
	case "string":
		return types.StringProvenance{Name: r.path}, nil
	case "git":
		p := types.GitProvenance{RepoPath: r.repoPath, BlobPath: r.path}
		if r.commitHash != "" {
			p.Commit = &types.CommitMetadata{
				CommitID:    r.commitHash,
				AuthorName:  r.authorName,
				AuthorEmail: r.authorEmail,
				Message:     r.message,
			}
			if r.authorTime != 0 {
				p.Commit.AuthorTimestamp = time.Unix(r.authorTime, 0).UTC()
			}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provenance type: %q", r.kind)
	}
}
