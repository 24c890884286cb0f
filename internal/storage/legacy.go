package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wagnerlima/promptmux/internal/models"
)

// LegacyProjectFile is the single-project document written by older releases.
const LegacyProjectFile = "project.json"

// ImportLegacy reads a single-project document from dataDir. It returns nil
// and no error when there is none.
func ImportLegacy(dataDir string) (*models.Project, error) {
	path := filepath.Join(dataDir, LegacyProjectFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%s: decode project: %w", path, err)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Sections == nil {
		p.Sections = []*models.Section{}
	}
	if p.History == nil {
		p.History = []models.Refinement{}
	}
	for _, s := range p.Sections {
		if s.History == nil {
			s.History = []models.Refinement{}
		}
		for _, t := range s.Topics {
			if t.History == nil {
				t.History = []models.Refinement{}
			}
		}
	}
	return &p, nil
}
