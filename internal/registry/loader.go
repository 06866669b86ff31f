// Package registry discovers model specs from disk: one JSON file per
// model, declaring the fields PoolRegistry and PortEventRouter need to
// stand up a pool and wire its ports (internal/pool.Config, the port
// list internal/router.Classify consumes).
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modeld/internal/common/fsutil"
	"modeld/pkg/types"
)

// LoadDir scans dir for *.json model spec files and decodes each into a
// types.ModelSpec. Results are sorted by ID for deterministic iteration.
func LoadDir(dir string) ([]types.ModelSpec, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var specs []types.ModelSpec
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		path := filepath.Join(abs, name)
		spec, err := loadSpecFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs, nil
}

func loadSpecFile(path string) (types.ModelSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.ModelSpec{}, err
	}
	var spec types.ModelSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return types.ModelSpec{}, err
	}
	if spec.ID == "" {
		return types.ModelSpec{}, fmt.Errorf("missing required field %q", "id")
	}
	return spec, nil
}
