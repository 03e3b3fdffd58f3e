package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Evidence stores captured images for failed checklist rows. File names are
// derived from the audit number and the row's position within the audit, so
// a reused pair overwrites; audit numbers are consumed once, which makes
// that acceptable.
type Evidence struct {
	dir string
}

// NewEvidence ensures the evidence directory exists and returns a store
// over it.
func NewEvidence(dir string) (*Evidence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &Evidence{dir: dir}, nil
}

// Dir returns the evidence directory.
func (e *Evidence) Dir() string { return e.dir }

// Save writes image bytes for one audited row and returns the stored path.
func (e *Evidence) Save(auditNo, rowSeq int, data []byte) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("audit_%d_row_%d.jpg", auditNo, rowSeq))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write evidence image: %w", err)
	}
	return path, nil
}
