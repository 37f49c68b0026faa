package id2path

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// PageSize is the number of objects fetched per store round trip when
// listing.
const PageSize = 256

// Manager runs the load, list and delete operations on a store.
type Manager struct {
	store    Store
	bindings Bindings
	logger   *slog.Logger
}

// NewManager creates a manager. Nil bindings treat every identifier as
// unbound; a nil logger uses slog.Default.
func NewManager(store Store, bindings Bindings, logger *slog.Logger) *Manager {
	if bindings == nil {
		bindings = NoBindings{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, bindings: bindings, logger: logger}
}

// LoadStats counts the outcome of a load.
type LoadStats struct {
	ObjectsFound   int `json:"objects_found"`
	ObjectsCreated int `json:"objects_created"`
	PathsCreated   int `json:"paths_created"`
	PathsUpdated   int `json:"paths_updated"`
	PathsFailed    int `json:"paths_failed"`
}

// Report prints the statistics.
func (s LoadStats) Report(w io.Writer) {
	objects := s.ObjectsFound + s.ObjectsCreated
	paths := s.PathsCreated + s.PathsUpdated + s.PathsFailed
	fmt.Fprintf(w, "Tracked Objects created:  %d of %d\n", s.ObjectsCreated, objects)
	fmt.Fprintf(w, "Path Items created:       %d of %d\n", s.PathsCreated, paths)
	fmt.Fprintf(w, "Path Items updated:       %d of %d\n", s.PathsUpdated, paths)
	fmt.Fprintf(w, "Path Items failures:      %d of %d\n", s.PathsFailed, paths)
}

type loader struct {
	ctx        context.Context
	m          *Manager
	identifier string
	current    *TrackedObject
	stats      LoadStats
}

func (l *loader) getOrCreate(identifier string) error {
	l.identifier = identifier
	l.current = nil
	if identifier == "" {
		return nil
	}

	obj, err := l.m.store.GetObject(l.ctx, identifier)
	switch {
	case err == nil:
		l.stats.ObjectsFound++
		l.m.logger.Info("An existing tracked object found.", "id", identifier)
	case errors.Is(err, ErrNotFound):
		if obj, err = l.m.store.CreateObject(l.ctx, identifier); err != nil {
			return err
		}
		l.stats.ObjectsCreated++
		l.m.logger.Info("New tracked object created.", "id", identifier)
	default:
		return err
	}
	l.current = obj
	return nil
}

func (l *loader) Identifier(line int, identifier string) error {
	return l.getOrCreate(identifier)
}

func (l *loader) Record(rec Record) error {
	log := l.m.logger.With("line", rec.Line, "id", l.identifier, "path", rec.Path)

	if !rec.HasType {
		l.stats.PathsFailed++
		log.Error("Line ignored! Missing type field!")
		return nil
	}
	ptype, err := ParsePathType(rec.Type)
	if err != nil {
		l.stats.PathsFailed++
		log.Error("Line ignored! Invalid type field!", "type", rec.Type)
		return nil
	}
	if rec.Path == "" {
		l.stats.PathsFailed++
		log.Error("Line ignored! Missing path field!")
		return nil
	}
	if l.current == nil {
		l.stats.PathsFailed++
		log.Error("Line ignored! No tracked object given!")
		return nil
	}

	created, err := l.m.store.PutPath(l.ctx, l.current.Identifier, PathItem{Path: rec.Path, Type: ptype, Label: rec.Label})
	if err != nil {
		return fmt.Errorf("line %d: %w", rec.Line, err)
	}
	if created {
		l.stats.PathsCreated++
		log.Info("New path item created.", "type", ptype.String(), "label", rec.Label)
	} else {
		l.stats.PathsUpdated++
		log.Info("An existing path item updated.", "type", ptype.String(), "label", rec.Label)
	}
	return nil
}

// Load reads a record stream and registers its path items. identifier is
// the initial object, "" for none.
func (m *Manager) Load(ctx context.Context, r io.Reader, identifier string) (LoadStats, error) {
	l := &loader{ctx: ctx, m: m}
	if err := l.getOrCreate(identifier); err != nil {
		return l.stats, err
	}
	err := ScanRecords(r, l)
	return l.stats, err
}

// ListOptions select what List prints.
type ListOptions struct {
	// Identifier lists a single object; the filters do not apply then.
	Identifier string
	// Full prints "#<identifier>" followed by the path records.
	Full bool
	// Unbound lists objects without a coverage.
	Unbound bool
	// UnboundStrict implies Unbound and prints only paths whose other
	// owners are unbound too.
	UnboundStrict bool
	// Empty lists objects without path items.
	Empty bool
	// Match filters the printed path items.
	Match *Matcher
}

// List writes the selected objects to w.
func (m *Manager) List(ctx context.Context, w io.Writer, opts ListOptions) error {
	unbound := opts.Unbound || opts.UnboundStrict
	if unbound && opts.Empty {
		return errors.New("the '--empty', '--unbound' and '--unbound-strict' options are mutually exclusive")
	}

	if opts.Identifier != "" {
		obj, err := m.store.GetObject(ctx, opts.Identifier)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return m.printObject(ctx, w, obj, opts)
	}

	for offset := 0; ; offset += PageSize {
		page, err := m.store.ListObjects(ctx, offset, PageSize)
		if err != nil {
			return err
		}
		for i := range page {
			obj := &page[i]
			if unbound && m.bindings.Has(obj.Identifier) {
				continue
			}
			if opts.Empty {
				paths, err := m.store.Paths(ctx, obj.Identifier)
				if err != nil {
					return err
				}
				if len(paths) > 0 {
					continue
				}
			}
			if err := m.printObject(ctx, w, obj, opts); err != nil {
				return err
			}
		}
		if len(page) < PageSize {
			return nil
		}
	}
}

func (m *Manager) printObject(ctx context.Context, w io.Writer, obj *TrackedObject, opts ListOptions) error {
	if !opts.Full && opts.Match == nil {
		_, err := fmt.Fprintln(w, obj.Identifier)
		return err
	}

	paths, err := m.store.Paths(ctx, obj.Identifier)
	if err != nil {
		return err
	}

	var lines []string
	for _, item := range paths {
		ok, err := opts.Match.Match(item)
		if err != nil {
			return err
		}
		if ok && opts.UnboundStrict {
			if ok, err = m.strictlyUnbound(ctx, item, obj.Identifier); err != nil {
				return err
			}
		}
		if ok {
			lines = append(lines, FormatRecord(item))
		}
	}

	if !opts.Full {
		// only the identifiers of objects with matching paths
		if len(lines) > 0 {
			_, err = fmt.Fprintln(w, obj.Identifier)
		}
		return err
	}

	if _, err := fmt.Fprintf(w, "#%s\n", obj.Identifier); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// strictlyUnbound reports whether the path can be removed from the file
// system: all owners but exclude are unbound and, for directories, every
// path item below it is strictly unbound as well.
func (m *Manager) strictlyUnbound(ctx context.Context, item PathItem, exclude string) (bool, error) {
	owners, err := m.store.Owners(ctx, item.Path)
	if err != nil {
		return false, err
	}
	for _, owner := range owners {
		if owner != exclude && m.bindings.Has(owner) {
			return false, nil
		}
	}

	if item.Type != TypeDirectory {
		return true, nil
	}

	contained, err := m.store.PathsWithPrefix(ctx, item.Path)
	if err != nil {
		return false, err
	}
	for _, sub := range contained {
		if sub.Path == item.Path {
			continue
		}
		ok, err := m.strictlyUnbound(ctx, sub, "")
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// DeleteStats counts the outcome of a delete.
type DeleteStats struct {
	ObjectsFound         int `json:"objects_found"`
	ObjectsFailed        int `json:"objects_failed"`
	ObjectsRemoved       int `json:"objects_removed"`
	ObjectsRemovalFailed int `json:"objects_removal_failed"`
	PathsFound           int `json:"paths_found"`
	PathsRemoved         int `json:"paths_removed"`
	PathsUnlinked        int `json:"paths_unlinked"`
	PathsAborted         int `json:"paths_aborted"`
	PathsFailed          int `json:"paths_failed"`
}

// Report prints the statistics.
func (s DeleteStats) Report(w io.Writer) {
	objects := s.ObjectsFound + s.ObjectsFailed
	paths := s.PathsRemoved + s.PathsUnlinked + s.PathsAborted + s.PathsFailed
	fmt.Fprintf(w, "Tracked Objects removed:  %d of %d\n", s.ObjectsRemoved, objects)
	fmt.Fprintf(w, "Tracked Objects failed:   %d of %d\n", s.ObjectsFailed, objects)
	fmt.Fprintf(w, "Path Items removed:       %d of %d\n", s.PathsRemoved, paths)
	fmt.Fprintf(w, "Path Items unlinked:      %d of %d\n", s.PathsUnlinked, paths)
	fmt.Fprintf(w, "Path Items aborted:       %d of %d\n", s.PathsAborted, paths)
	fmt.Fprintf(w, "Path Items failed:        %d of %d\n", s.PathsFailed, paths)
}

type deleter struct {
	ctx         context.Context
	m           *Manager
	removeEmpty bool
	current     *TrackedObject
	// abort is set while the current identifier is unknown
	abort bool
	stats DeleteStats
}

func (d *deleter) getObject(identifier string) error {
	d.abort = false
	d.current = nil
	if identifier == "" {
		return nil
	}

	obj, err := d.m.store.GetObject(d.ctx, identifier)
	switch {
	case err == nil:
		d.stats.ObjectsFound++
		d.current = obj
		d.m.logger.Info("An existing tracked object found.", "id", identifier)
	case errors.Is(err, ErrNotFound):
		d.abort = true
		d.stats.ObjectsFailed++
		d.m.logger.Error("Tracked object not found! Subsequent path items' removals will be aborted!", "id", identifier)
	default:
		return err
	}
	return nil
}

func (d *deleter) removeIfEmpty() error {
	if !d.removeEmpty || d.current == nil {
		return nil
	}
	id := d.current.Identifier

	paths, err := d.m.store.Paths(d.ctx, id)
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		return nil
	}

	if err := d.m.store.DeleteObject(d.ctx, id); err != nil {
		d.stats.ObjectsRemovalFailed++
		d.m.logger.Error("Tracked object removal failed!", "id", id, "reason", err)
		return nil
	}
	d.stats.ObjectsRemoved++
	d.m.logger.Info("Tracked object removed.", "id", id)
	return nil
}

func (d *deleter) Identifier(line int, identifier string) error {
	if err := d.removeIfEmpty(); err != nil {
		return err
	}
	return d.getObject(identifier)
}

func (d *deleter) Record(rec Record) error {
	path := rec.Path
	log := d.m.logger.With("line", rec.Line, "path", path)

	if d.abort {
		d.stats.PathsAborted++
		log.Warn("Path item removal aborted!")
		return nil
	}

	if _, err := d.m.store.GetPath(d.ctx, path); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		d.stats.PathsFailed++
		log.Error("Path item not found!")
		return nil
	}

	if d.current != nil {
		id := d.current.Identifier
		owners, err := d.m.store.Owners(d.ctx, path)
		if err != nil {
			return err
		}
		owned, shared := false, false
		for _, owner := range owners {
			if owner == id {
				owned = true
			} else {
				shared = true
			}
		}
		if !owned {
			d.stats.PathsFailed++
			log.Error("Path item not found for the given tracked object!", "id", id)
			return nil
		}
		d.stats.PathsFound++

		if shared {
			if err := d.m.store.Unlink(d.ctx, id, path); err != nil {
				d.stats.PathsFailed++
				log.Error("Path item unlinking failed!", "id", id, "reason", err)
				return nil
			}
			d.stats.PathsUnlinked++
			log.Info("Path item unlinked from the tracked object.", "id", id)
			return nil
		}
	} else {
		d.stats.PathsFound++
	}

	if err := d.m.store.DeletePath(d.ctx, path); err != nil {
		d.stats.PathsFailed++
		log.Error("Path item removal failed!", "reason", err)
		return nil
	}
	d.stats.PathsRemoved++
	log.Info("Path item removed.")
	return nil
}

// Delete reads a record stream and removes or unlinks its path items. Only
// the path field of the records is used.
func (m *Manager) Delete(ctx context.Context, r io.Reader, identifier string, removeEmpty bool) (DeleteStats, error) {
	d := &deleter{ctx: ctx, m: m, removeEmpty: removeEmpty}
	if err := d.getObject(identifier); err != nil {
		return d.stats, err
	}
	if err := ScanRecords(r, d); err != nil {
		return d.stats, err
	}
	err := d.removeIfEmpty()
	return d.stats, err
}

// Lookup returns the path items of an object, restricted to the given
// types when any are given.
func (m *Manager) Lookup(ctx context.Context, identifier string, types []PathType) ([]PathItem, error) {
	paths, err := m.store.Paths(ctx, identifier)
	if err != nil || len(types) == 0 {
		return paths, err
	}

	wanted := make(map[PathType]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var filtered []PathItem
	for _, item := range paths {
		if wanted[item.Type] {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}
