package execution

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Stager writes submitted source text to uniquely named files in a staging
// directory. Each submission owns its file/artifact pair exclusively, so
// concurrent submissions never contend for a path.
type Stager struct {
	dir string
}

// NewStager ensures the staging directory exists.
func NewStager(dir string) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{dir: dir}, nil
}

// Stage writes source to a fresh uuid-named file with the format-derived
// extension and returns its path.
func (s *Stager) Stage(extension, source string) (string, error) {
	jobID := uuid.New().String()
	path := filepath.Join(s.dir, jobID+"."+extension)

	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("failed to stage source file: %w", err)
	}
	return path, nil
}

// Dir returns the staging directory path.
func (s *Stager) Dir() string {
	return s.dir
}
