package coverage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Catalog is a read-only set of coverages keyed by identifier.
type Catalog struct {
	coverages map[string]*Coverage
}

// NewCatalog builds a catalog from already loaded coverages.
func NewCatalog(coverages ...*Coverage) (*Catalog, error) {
	c := &Catalog{coverages: make(map[string]*Coverage, len(coverages))}
	for _, cov := range coverages {
		if _, found := c.coverages[cov.Identifier]; found {
			return nil, fmt.Errorf("duplicate coverage identifier %s", cov.Identifier)
		}
		c.coverages[cov.Identifier] = cov
	}
	return c, nil
}

// LoadCatalog loads every *.yaml / *.yml descriptor in dir. An empty dir
// yields an empty catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	if dir == "" {
		return NewCatalog()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog directory: %w", err)
	}

	var coverages []*Coverage
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		cov, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		coverages = append(coverages, cov)
	}

	catalog, err := NewCatalog(coverages...)
	if err != nil {
		return nil, err
	}
	slog.Debug("coverage catalog loaded", "directory", dir, "coverages", len(coverages))
	return catalog, nil
}

// Get returns the coverage with the given identifier.
func (c *Catalog) Get(identifier string) (*Coverage, bool) {
	cov, ok := c.coverages[identifier]
	return cov, ok
}

// Has reports whether a coverage is registered under identifier.
func (c *Catalog) Has(identifier string) bool {
	_, ok := c.coverages[identifier]
	return ok
}

// Identifiers returns all identifiers in ascending order.
func (c *Catalog) Identifiers() []string {
	ids := make([]string, 0, len(c.coverages))
	for id := range c.coverages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
