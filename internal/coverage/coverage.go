// Package coverage holds the descriptors of the coverages that can be
// rendered: raster size, range type, data items and ground control points.
package coverage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinGCPs is the number of ground control points an affine fit needs.
const MinGCPs = 3

// GCP is a ground control point tying a pixel/line position to a
// georeferenced position.
type GCP struct {
	ID    string  `yaml:"id,omitempty" json:"id,omitempty"`
	Pixel float64 `yaml:"pixel" json:"pixel"`
	Line  float64 `yaml:"line" json:"line"`
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Z     float64 `yaml:"z,omitempty" json:"z,omitempty"`
}

// Band is one entry of the range type.
type Band struct {
	Name     string   `yaml:"name"`
	DataType string   `yaml:"data_type"`
	NoData   *float64 `yaml:"nodata,omitempty"`
}

// DataItem is a file holding some of the coverage's bands.
type DataItem struct {
	Path     string `yaml:"path"`
	Semantic string `yaml:"semantic"`
	Format   string `yaml:"format,omitempty"`
}

// Coverage describes a referenceable dataset.
type Coverage struct {
	Identifier string            `yaml:"identifier"`
	SizeX      int               `yaml:"size_x"`
	SizeY      int               `yaml:"size_y"`
	RangeType  []Band            `yaml:"range_type"`
	DataItems  []DataItem        `yaml:"data_items"`
	GCPs       []GCP             `yaml:"gcps"`
	GCPSRID    int               `yaml:"gcp_srid"`
	BeginTime  *time.Time        `yaml:"begin_time,omitempty"`
	EndTime    *time.Time        `yaml:"end_time,omitempty"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`

	// Collections are the dataset series the coverage belongs to.
	Collections []string `yaml:"collections,omitempty"`

	// Source is the descriptor file, empty for coverages built in code.
	Source string `yaml:"-"`
}

// BandIndex maps a band of the coverage (SetIndex) to a band of a data
// item (ItemIndex). Both are 1-based.
type BandIndex struct {
	SetIndex  int
	ItemIndex int
}

var semanticRegexp = regexp.MustCompile(`^bands\[(\d+)(?::(\d+))?\]$`)

// BandIndices expands the item's semantic, "bands[3]" or "bands[1:3]".
func (d DataItem) BandIndices() ([]BandIndex, error) {
	m := semanticRegexp.FindStringSubmatch(d.Semantic)
	if m == nil {
		return nil, fmt.Errorf("data item %s: invalid band semantic %q", d.Path, d.Semantic)
	}

	first, _ := strconv.Atoi(m[1])
	last := first
	if m[2] != "" {
		last, _ = strconv.Atoi(m[2])
	}
	if first < 1 || last < first {
		return nil, fmt.Errorf("data item %s: invalid band range %q", d.Path, d.Semantic)
	}

	indices := make([]BandIndex, 0, last-first+1)
	for i := first; i <= last; i++ {
		indices = append(indices, BandIndex{SetIndex: i, ItemIndex: i - first + 1})
	}
	return indices, nil
}

func (d DataItem) firstBand() int {
	indices, err := d.BandIndices()
	if err != nil || len(indices) == 0 {
		return 0
	}
	return indices[0].SetIndex
}

// BandItems returns the data items carrying bands, sorted by the first
// band they provide.
func (c *Coverage) BandItems() []DataItem {
	var items []DataItem
	for _, item := range c.DataItems {
		if strings.HasPrefix(item.Semantic, "bands") {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].firstBand() < items[j].firstBand()
	})
	return items
}

// Validate checks the descriptor for consistency.
func (c *Coverage) Validate() error {
	if c.Identifier == "" {
		return fmt.Errorf("coverage without identifier")
	}
	if c.SizeX <= 0 || c.SizeY <= 0 {
		return fmt.Errorf("coverage %s: invalid size %dx%d", c.Identifier, c.SizeX, c.SizeY)
	}
	if len(c.RangeType) == 0 {
		return fmt.Errorf("coverage %s: empty range type", c.Identifier)
	}
	if len(c.GCPs) < MinGCPs {
		return fmt.Errorf("coverage %s: %d ground control points, at least %d required",
			c.Identifier, len(c.GCPs), MinGCPs)
	}
	if c.BeginTime != nil && c.EndTime != nil && c.EndTime.Before(*c.BeginTime) {
		return fmt.Errorf("coverage %s: end time before begin time", c.Identifier)
	}

	items := c.BandItems()
	if len(items) == 0 {
		return fmt.Errorf("coverage %s: no band data items", c.Identifier)
	}

	// bands must be provided contiguously, 1..N
	next := 1
	for _, item := range items {
		indices, err := item.BandIndices()
		if err != nil {
			return fmt.Errorf("coverage %s: %w", c.Identifier, err)
		}
		for _, idx := range indices {
			if idx.SetIndex != next {
				return fmt.Errorf("coverage %s: data item %s provides band %d, expected band %d",
					c.Identifier, item.Path, idx.SetIndex, next)
			}
			next++
		}
	}
	if next-1 != len(c.RangeType) {
		return fmt.Errorf("coverage %s: data items provide %d bands, range type has %d",
			c.Identifier, next-1, len(c.RangeType))
	}

	return nil
}

// BandSelection resolves a range subset into 1-based band indices. Each
// selector is a band name, a 1-based index or an inclusive range "a:b" of
// either. No selectors select every band.
func (c *Coverage) BandSelection(selectors []string) ([]int, error) {
	if len(selectors) == 0 {
		all := make([]int, len(c.RangeType))
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}

	var indices []int
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if from, to, ok := strings.Cut(sel, ":"); ok {
			lo, err := c.bandIndex(from)
			if err != nil {
				return nil, err
			}
			hi, err := c.bandIndex(to)
			if err != nil {
				return nil, err
			}
			if lo > hi {
				return nil, fmt.Errorf("invalid band range %q", sel)
			}
			for i := lo; i <= hi; i++ {
				indices = append(indices, i)
			}
			continue
		}

		idx, err := c.bandIndex(sel)
		if err != nil {
			return nil, err
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

func (c *Coverage) bandIndex(sel string) (int, error) {
	sel = strings.TrimSpace(sel)
	for i, band := range c.RangeType {
		if band.Name == sel {
			return i + 1, nil
		}
	}
	if n, err := strconv.Atoi(sel); err == nil {
		if n < 1 || n > len(c.RangeType) {
			return 0, fmt.Errorf("band index %d out of range 1..%d", n, len(c.RangeType))
		}
		return n, nil
	}
	return 0, fmt.Errorf("unknown band %q", sel)
}

// Load reads a YAML descriptor. Relative data item paths are resolved
// against the descriptor's directory.
func Load(path string) (*Coverage, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Coverage
	if err := yaml.Unmarshal(source, &c); err != nil {
		return nil, fmt.Errorf("invalid coverage descriptor %s: %w", path, err)
	}

	c.Source = path
	dir := filepath.Dir(path)
	for i, item := range c.DataItems {
		if item.Path != "" && !filepath.IsAbs(item.Path) {
			c.DataItems[i].Path = filepath.Join(dir, item.Path)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}
