/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the set of projects rendered by the health matrix.
type Catalog struct {
	Projects   []string `yaml:"projects"`
	WindowDays int      `yaml:"window_days"`
}

// Catalog returns the catalog described by the environment alone. An empty
// project list falls back to DefaultMatrixProjects.
func (c Config) Catalog() Catalog {
	projects := c.MatrixProjects
	if len(projects) == 0 {
		projects = DefaultMatrixProjects
	}
	days := c.MatrixWindowDays
	if days <= 0 {
		days = 30
	}
	return Catalog{Projects: append([]string(nil), projects...), WindowDays: days}
}

// LoadCatalog reads a YAML project catalog. Fields missing from the file
// fall back to def.
func LoadCatalog(path string, def Catalog) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	cat.Projects = parseStrings(cat.Projects)
	if len(cat.Projects) == 0 {
		cat.Projects = append([]string(nil), def.Projects...)
	}
	if len(cat.Projects) == 0 {
		cat.Projects = append([]string(nil), DefaultMatrixProjects...)
	}
	if cat.WindowDays == 0 {
		cat.WindowDays = def.WindowDays
	}
	if cat.WindowDays == 0 {
		cat.WindowDays = 30
	}
	if err := cat.validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog: %w", err)
	}
	return cat, nil
}

func (c Catalog) validate() error {
	if len(c.Projects) == 0 {
		return errors.New("no projects")
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive, got %d", c.WindowDays)
	}
	seen := map[string]struct{}{}
	for _, p := range c.Projects {
		if !ValidProjectKey(p) {
			return fmt.Errorf("invalid project key %q", p)
		}
		k := strings.ToUpper(p)
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate project %q", p)
		}
		seen[k] = struct{}{}
	}
	return nil
}
