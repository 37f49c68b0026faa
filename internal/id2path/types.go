// Package id2path tracks which files and directories belong to which object
// identifier. Paths may be shared by several objects; an object whose
// identifier is not bound to a coverage is "unbound" and its paths are
// candidates for removal.
package id2path

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned for unknown objects and paths.
var ErrNotFound = errors.New("id2path: not found")

// PathType classifies a path item.
type PathType int

const (
	TypeFile         PathType = 1
	TypeData         PathType = 3
	TypeMetadata     PathType = 5
	TypeDataMetadata PathType = 7
	TypeRasterMask   PathType = 11
	TypeVectorMask   PathType = 13
	TypeBrowse       PathType = 15
	TypeDirectory    PathType = 128
)

var typeNames = map[PathType]string{
	TypeFile:         "file",
	TypeData:         "data",
	TypeMetadata:     "metadata",
	TypeDataMetadata: "data+metadata",
	TypeRasterMask:   "raster-mask",
	TypeVectorMask:   "vector-mask",
	TypeBrowse:       "browse",
	TypeDirectory:    "directory",
}

func (t PathType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("PathType(%d)", int(t))
}

// Valid reports whether t is a known path type.
func (t PathType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParsePathType converts a type name, case-insensitively.
func ParsePathType(name string) (PathType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid path type %q", name)
}

// TypeNames lists the type names in code order.
func TypeNames() []string {
	types := make([]int, 0, len(typeNames))
	for t := range typeNames {
		types = append(types, int(t))
	}
	sort.Ints(types)

	names := make([]string, len(types))
	for i, t := range types {
		names[i] = typeNames[PathType(t)]
	}
	return names
}

func (t PathType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid path type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *PathType) UnmarshalText(text []byte) error {
	parsed, err := ParsePathType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseFilter parses a comma separated list of type names. Every item,
// including the only item of an empty filter, must name a type.
func ParseFilter(filter string) ([]PathType, error) {
	var types []PathType
	for _, name := range strings.Split(filter, ",") {
		t, err := ParsePathType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// TrackedObject is an identifier owning path items.
type TrackedObject struct {
	Identifier string    `yaml:"identifier" json:"identifier"`
	Created    time.Time `yaml:"created" json:"created"`
	Updated    time.Time `yaml:"updated" json:"updated"`
}

// PathItem is a file or directory owned by one or more objects.
type PathItem struct {
	Path    string    `yaml:"path" json:"path"`
	Type    PathType  `yaml:"type" json:"type"`
	Label   string    `yaml:"label,omitempty" json:"label,omitempty"`
	Created time.Time `yaml:"created" json:"created"`
	Updated time.Time `yaml:"updated" json:"updated"`
}

// Store persists objects, path items and their ownership. Implementations
// are safe for concurrent use.
type Store interface {
	GetObject(ctx context.Context, identifier string) (*TrackedObject, error)
	CreateObject(ctx context.Context, identifier string) (*TrackedObject, error)
	// DeleteObject removes the object and its ownership links.
	DeleteObject(ctx context.Context, identifier string) error
	// ListObjects pages through the objects in identifier order.
	ListObjects(ctx context.Context, offset, limit int) ([]TrackedObject, error)

	// Paths returns the path items owned by the object, in path order.
	Paths(ctx context.Context, identifier string) ([]PathItem, error)
	GetPath(ctx context.Context, path string) (*PathItem, error)
	// PutPath creates the path item or updates its type and label, and
	// links it to the object. created is false for updates.
	PutPath(ctx context.Context, identifier string, item PathItem) (created bool, err error)
	// Owners returns the identifiers owning the path.
	Owners(ctx context.Context, path string) ([]string, error)
	// PathsWithPrefix returns the path items whose path starts with prefix.
	PathsWithPrefix(ctx context.Context, prefix string) ([]PathItem, error)
	Unlink(ctx context.Context, identifier, path string) error
	// DeletePath removes the path item regardless of its owners.
	DeletePath(ctx context.Context, path string) error

	Close() error
}

// Bindings tells whether an identifier is bound to a coverage.
type Bindings interface {
	Has(identifier string) bool
}

// NoBindings treats every identifier as unbound.
type NoBindings struct{}

func (NoBindings) Has(string) bool { return false }
