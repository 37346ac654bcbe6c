package synonyms

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/talent-match-engine/internal/core/domain"
)

// Load reads a canonical-term -> variants table from a YAML file:
//
//	Kubernetes:
//	  - K8s
//	PostgreSQL:
//	  - Postgres
//
// An empty path or a missing file falls back to the built-in table so the
// service starts without deployment-specific configuration.
func Load(path string) (*domain.SynonymTable, error) {
	if path == "" {
		return domain.DefaultSynonymTable(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.DefaultSynonymTable(), nil
		}
		return nil, fmt.Errorf("read synonym table %s: %w", path, err)
	}

	var groups map[string][]string
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("parse synonym table %s: %w", path, err)
	}
	if len(groups) == 0 {
		return domain.DefaultSynonymTable(), nil
	}
	return domain.NewSynonymTable(groups), nil
}
