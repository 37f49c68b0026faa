package id2path

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

type bound map[string]bool

func (b bound) Has(identifier string) bool { return b[identifier] }

func newTestManager(t *testing.T, bindings Bindings) (*Manager, *FileStore) {
	t.Helper()
	store := NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, bindings, logger), store
}

func load(t *testing.T, m *Manager, input string) LoadStats {
	t.Helper()
	stats, err := m.Load(context.Background(), strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return stats
}

func list(t *testing.T, m *Manager, opts ListOptions) string {
	t.Helper()
	var out bytes.Buffer
	if err := m.List(context.Background(), &out, opts); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	return out.String()
}

func TestPathTypes(t *testing.T) {
	testCases := map[string]PathType{
		"file":          TypeFile,
		"data":          TypeData,
		"metadata":      TypeMetadata,
		"DATA+METADATA": TypeDataMetadata,
		"raster-mask":   TypeRasterMask,
		"vector-mask":   TypeVectorMask,
		"browse":        TypeBrowse,
		"directory":     TypeDirectory,
	}
	for name, want := range testCases {
		got, err := ParsePathType(name)
		if err != nil || got != want {
			t.Errorf("ParsePathType(%q) = %v, %v; want %v", name, got, err, want)
		}
	}

	if _, err := ParsePathType("folder"); err == nil {
		t.Error("expected error for unknown type")
	}
	if got := strings.Join(TypeNames(), "|"); got != "file|data|metadata|data+metadata|raster-mask|vector-mask|browse|directory" {
		t.Errorf("unexpected type names %s", got)
	}

	types, err := ParseFilter("data,browse")
	if err != nil || len(types) != 2 || types[1] != TypeBrowse {
		t.Errorf("ParseFilter = %v, %v", types, err)
	}
	for _, bad := range []string{"", "data,", ",browse"} {
		if _, err := ParseFilter(bad); err == nil {
			t.Errorf("expected error for filter %q", bad)
		}
	}
	if _, err := ParseFilter("data,bogus"); err == nil {
		t.Error("expected error for invalid filter")
	}
}

func TestLoad(t *testing.T) {
	m, store := newTestManager(t, nil)

	stats := load(t, m, `
#obj1
/data/obj1.tif;data;main
  /data/obj1.xml;METADATA
/data/obj1.bad
/data/obj1.bad;unknown

#obj2
/data/shared;directory
`)
	want := LoadStats{ObjectsCreated: 2, PathsCreated: 3, PathsFailed: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	// reload updates and links to another object
	stats = load(t, m, "#obj1\n/data/obj1.tif;browse\n/data/shared;directory;dir\n")
	want = LoadStats{ObjectsFound: 1, PathsUpdated: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	item, err := store.GetPath(context.Background(), "/data/obj1.tif")
	if err != nil {
		t.Fatalf("GetPath failed: %v", err)
	}
	if item.Type != TypeBrowse || item.Label != "" {
		t.Errorf("path item not updated: %+v", item)
	}

	owners, _ := store.Owners(context.Background(), "/data/shared")
	if strings.Join(owners, ",") != "obj1,obj2" {
		t.Errorf("unexpected owners %v", owners)
	}

	// records before any identifier fail
	stats = load(t, m, "/data/orphan.tif;file\n")
	if stats.PathsFailed != 1 {
		t.Errorf("expected a failure without tracked object, got %+v", stats)
	}

	var report bytes.Buffer
	stats.Report(&report)
	if !strings.Contains(report.String(), "Path Items failures:      1 of 1") {
		t.Errorf("unexpected report:\n%s", report.String())
	}
}

func TestLoadWithIdentifier(t *testing.T) {
	m, store := newTestManager(t, nil)

	stats, err := m.Load(context.Background(), strings.NewReader("/a;file\n"), "obj")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if stats.ObjectsCreated != 1 || stats.PathsCreated != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if paths, _ := store.Paths(context.Background(), "obj"); len(paths) != 1 {
		t.Errorf("expected one path, got %v", paths)
	}
}

const fixture = `
#bound
/data/bound.tif;data
/data/shared.xml;metadata
#unbound
/data/unbound.tif;data;L1
/data/shared.xml;metadata
/data/dir;directory
/data/dir/sub.tif;file
#nested
/data/dir/nested.tif;file
#empty
`

func TestList(t *testing.T) {
	m, _ := newTestManager(t, bound{"bound": true})
	load(t, m, fixture)

	testCases := []struct {
		name string
		opts ListOptions
		want string
	}{
		{
			name: "identifiers",
			want: "bound\nempty\nnested\nunbound\n",
		},
		{
			name: "unbound",
			opts: ListOptions{Unbound: true},
			want: "empty\nnested\nunbound\n",
		},
		{
			name: "empty",
			opts: ListOptions{Empty: true},
			want: "empty\n",
		},
		{
			name: "single object",
			opts: ListOptions{Identifier: "bound", Full: true},
			want: "#bound\n/data/bound.tif;data\n/data/shared.xml;metadata\n",
		},
		{
			name: "unknown object",
			opts: ListOptions{Identifier: "missing"},
			want: "",
		},
		{
			name: "full unbound",
			opts: ListOptions{Identifier: "unbound", Full: true, Unbound: true},
			want: "#unbound\n/data/dir;directory\n/data/dir/sub.tif;file\n/data/shared.xml;metadata\n/data/unbound.tif;data;L1\n",
		},
		{
			name: "full strictly unbound",
			opts: ListOptions{Full: true, UnboundStrict: true},
			want: "#empty\n#nested\n/data/dir/nested.tif;file\n#unbound\n/data/dir;directory\n/data/dir/sub.tif;file\n/data/unbound.tif;data;L1\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := list(t, m, tc.opts); got != tc.want {
				t.Errorf("List =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}

	err := m.List(context.Background(), io.Discard, ListOptions{UnboundStrict: true, Empty: true})
	if err == nil {
		t.Error("expected error for --empty with --unbound-strict")
	}
}

func TestListStrictDirectory(t *testing.T) {
	m, _ := newTestManager(t, bound{"bound": true})
	load(t, m, "#unbound\n/data/dir;directory\n#bound\n/data/dir/kept.tif;data\n")

	got := list(t, m, ListOptions{Full: true, UnboundStrict: true})
	if got != "#unbound\n" {
		t.Errorf("directory holding bound paths must be suppressed, got\n%s", got)
	}

	got = list(t, m, ListOptions{Full: true, Unbound: true})
	if got != "#unbound\n/data/dir;directory\n" {
		t.Errorf("non-strict listing must print the directory, got\n%s", got)
	}
}

func TestListMatch(t *testing.T) {
	m, _ := newTestManager(t, nil)
	load(t, m, fixture)

	match, err := ParseMatcher(`type == "data" && label == "L1"`)
	if err != nil {
		t.Fatalf("ParseMatcher failed: %v", err)
	}

	got := list(t, m, ListOptions{Identifier: "unbound", Full: true, Match: match})
	if got != "#unbound\n/data/unbound.tif;data;L1\n" {
		t.Errorf("unexpected full listing\n%s", got)
	}

	got = list(t, m, ListOptions{Match: match})
	if got != "unbound\n" {
		t.Errorf("unexpected identifier listing\n%s", got)
	}

	if _, err := ParseMatcher(`size > 10`); err == nil {
		t.Error("expected error for unsupported variable")
	}
	if m, err := ParseMatcher("  "); m != nil || err != nil {
		t.Errorf("blank expression must yield nil matcher, got %v, %v", m, err)
	}

	notBool, err := ParseMatcher(`path`)
	if err != nil {
		t.Fatalf("ParseMatcher failed: %v", err)
	}
	if _, err := notBool.Match(PathItem{Path: "/x"}); err == nil {
		t.Error("expected error for non-boolean result")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, nil)
	load(t, m, fixture)

	stats, err := m.Delete(ctx, strings.NewReader(`
#unbound
/data/shared.xml
/data/unbound.tif;data;L1
/data/bound.tif
#missing
/data/dir
#bound
/data/nothing
`), "", false)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	want := DeleteStats{
		ObjectsFound:  2,
		ObjectsFailed: 1,
		PathsFound:    2,
		PathsRemoved:  1,
		PathsUnlinked: 1,
		PathsAborted:  1,
		PathsFailed:   2,
	}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	if _, err := store.GetPath(ctx, "/data/unbound.tif"); !errors.Is(err, ErrNotFound) {
		t.Errorf("sole-owner path must be removed, got %v", err)
	}
	owners, _ := store.Owners(ctx, "/data/shared.xml")
	if strings.Join(owners, ",") != "bound" {
		t.Errorf("shared path must only be unlinked, owners %v", owners)
	}
	if _, err := store.GetPath(ctx, "/data/dir"); err != nil {
		t.Errorf("aborted path must survive: %v", err)
	}
}

func TestDeleteWithoutObject(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, nil)
	load(t, m, fixture)

	stats, err := m.Delete(ctx, strings.NewReader("/data/shared.xml\n/data/missing\n"), "", false)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if stats.PathsRemoved != 1 || stats.PathsFailed != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if _, err := store.GetPath(ctx, "/data/shared.xml"); !errors.Is(err, ErrNotFound) {
		t.Errorf("path without object must be removed regardless of owners, got %v", err)
	}
}

func TestDeleteRemoveEmpty(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, nil)
	load(t, m, fixture)

	stats, err := m.Delete(ctx, strings.NewReader("#nested\n/data/dir/nested.tif\n#empty\n#unbound\n/data/dir\n"), "", true)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if stats.ObjectsRemoved != 2 {
		t.Errorf("expected nested and empty to be removed, got %+v", stats)
	}
	for _, id := range []string{"nested", "empty"} {
		if _, err := store.GetObject(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Errorf("object %s must be removed, got %v", id, err)
		}
	}
	if _, err := store.GetObject(ctx, "unbound"); err != nil {
		t.Errorf("object with remaining paths must be kept: %v", err)
	}

	var report bytes.Buffer
	stats.Report(&report)
	if !strings.Contains(report.String(), "Tracked Objects removed:  2 of 3") {
		t.Errorf("unexpected report:\n%s", report.String())
	}
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, nil)
	load(t, m, fixture)

	paths, err := m.Lookup(ctx, "unbound", []PathType{TypeData, TypeFile})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(paths) != 2 || paths[0].Path != "/data/dir/sub.tif" || paths[1].Path != "/data/unbound.tif" {
		t.Errorf("unexpected paths %+v", paths)
	}

	if _, err := m.Lookup(ctx, "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStorePersistence(t *testing.T) {
	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "id2path.yaml")

	store, err := OpenFileStore(file)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	m := NewManager(store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	load(t, m, fixture)

	reopened, err := OpenFileStore(file)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	objects, err := reopened.ListObjects(ctx, 0, 0)
	if err != nil || len(objects) != 4 {
		t.Fatalf("expected 4 objects, got %v, %v", objects, err)
	}
	item, err := reopened.GetPath(ctx, "/data/unbound.tif")
	if err != nil || item.Type != TypeData || item.Label != "L1" {
		t.Errorf("unexpected path item %+v, %v", item, err)
	}
	owners, _ := reopened.Owners(ctx, "/data/shared.xml")
	if strings.Join(owners, ",") != "bound,unbound" {
		t.Errorf("unexpected owners %v", owners)
	}

	page, _ := reopened.ListObjects(ctx, 1, 2)
	if len(page) != 2 || page[0].Identifier != "empty" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestFileStoreRollback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := OpenFileStore(filepath.Join(dir, "id2path.yaml"))
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if _, err := store.CreateObject(ctx, "obj"); err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}
	for _, item := range []PathItem{
		{Path: "/data/a.tif", Type: TypeData, Label: "L1"},
		{Path: "/data/a.xml", Type: TypeMetadata},
	} {
		if _, err := store.PutPath(ctx, "obj", item); err != nil {
			t.Fatalf("PutPath failed: %v", err)
		}
	}
	if _, err := store.CreateObject(ctx, "other"); err != nil {
		t.Fatalf("CreateObject failed: %v", err)
	}

	// snapshots can no longer be written
	store.file = filepath.Join(dir, "missing", "id2path.yaml")

	testCases := []struct {
		name   string
		mutate func() error
	}{
		{"create object", func() error {
			_, err := store.CreateObject(ctx, "new")
			return err
		}},
		{"delete object", func() error { return store.DeleteObject(ctx, "obj") }},
		{"put new path", func() error {
			_, err := store.PutPath(ctx, "obj", PathItem{Path: "/data/b.tif", Type: TypeData})
			return err
		}},
		{"update path", func() error {
			_, err := store.PutPath(ctx, "other", PathItem{Path: "/data/a.tif", Type: TypeBrowse, Label: "L2"})
			return err
		}},
		{"unlink", func() error { return store.Unlink(ctx, "obj", "/data/a.xml") }},
		{"delete path", func() error { return store.DeletePath(ctx, "/data/a.tif") }},
	}

	for _, tc := range testCases {
		if err := tc.mutate(); err == nil {
			t.Errorf("%s: expected save error", tc.name)
		}

		objects, _ := store.ListObjects(ctx, 0, 0)
		if len(objects) != 2 || objects[0].Identifier != "obj" || objects[1].Identifier != "other" {
			t.Errorf("%s: objects changed to %+v", tc.name, objects)
		}
		items, err := store.Paths(ctx, "obj")
		if err != nil || len(items) != 2 {
			t.Fatalf("%s: paths changed to %+v, %v", tc.name, items, err)
		}
		if items[0].Type != TypeData || items[0].Label != "L1" {
			t.Errorf("%s: path item changed to %+v", tc.name, items[0])
		}
		if owners, _ := store.Owners(ctx, "/data/a.tif"); strings.Join(owners, ",") != "obj" {
			t.Errorf("%s: owners changed to %v", tc.name, owners)
		}
		if _, err := store.GetPath(ctx, "/data/b.tif"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: new path kept after failed save", tc.name)
		}
	}
}
