package id2path

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type fileEntry struct {
	item   PathItem
	owners map[string]bool
}

// snapshot is the YAML document a FileStore persists.
type snapshot struct {
	Objects []TrackedObject `yaml:"objects"`
	Paths   []snapshotPath  `yaml:"paths"`
}

type snapshotPath struct {
	PathItem `yaml:",inline"`
	Owners   []string `yaml:"owners"`
}

// FileStore keeps everything in memory and, when a file is configured,
// rewrites a YAML snapshot after every change.
type FileStore struct {
	mu      sync.RWMutex
	file    string
	objects map[string]*TrackedObject
	paths   map[string]*fileEntry
	now     func() time.Time
}

// NewMemoryStore returns a store without persistence.
func NewMemoryStore() *FileStore {
	return &FileStore{
		objects: make(map[string]*TrackedObject),
		paths:   make(map[string]*fileEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// OpenFileStore loads the snapshot at file, if it exists.
func OpenFileStore(file string) (*FileStore, error) {
	s := NewMemoryStore()
	s.file = file

	data, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid id2path snapshot %s: %w", file, err)
	}
	for i := range snap.Objects {
		obj := snap.Objects[i]
		s.objects[obj.Identifier] = &obj
	}
	for _, p := range snap.Paths {
		entry := &fileEntry{item: p.PathItem, owners: make(map[string]bool)}
		for _, owner := range p.Owners {
			if _, ok := s.objects[owner]; !ok {
				return nil, fmt.Errorf("invalid id2path snapshot %s: path %s owned by unknown object %s", file, p.Path, owner)
			}
			entry.owners[owner] = true
		}
		s.paths[p.Path] = entry
	}
	return s, nil
}

// save must be called with the write lock held.
func (s *FileStore) save() error {
	if s.file == "" {
		return nil
	}

	var snap snapshot
	for _, id := range sortedKeys(s.objects) {
		snap.Objects = append(snap.Objects, *s.objects[id])
	}
	for _, path := range sortedKeys(s.paths) {
		entry := s.paths[path]
		snap.Paths = append(snap.Paths, snapshotPath{PathItem: entry.item, Owners: sortedKeys(entry.owners)})
	}

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.file), ".id2path-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.file)
}

// commit persists the change, reverting the in-memory state with undo
// when the snapshot cannot be written.
func (s *FileStore) commit(undo func()) error {
	if err := s.save(); err != nil {
		undo()
		return err
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *FileStore) GetObject(ctx context.Context, identifier string) (*TrackedObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *obj
	return &copied, nil
}

func (s *FileStore) CreateObject(ctx context.Context, identifier string) (*TrackedObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[identifier]; ok {
		return nil, fmt.Errorf("tracked object %s already exists", identifier)
	}
	now := s.now()
	obj := &TrackedObject{Identifier: identifier, Created: now, Updated: now}
	s.objects[identifier] = obj
	if err := s.commit(func() { delete(s.objects, identifier) }); err != nil {
		return nil, err
	}
	copied := *obj
	return &copied, nil
}

func (s *FileStore) DeleteObject(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[identifier]
	if !ok {
		return ErrNotFound
	}
	delete(s.objects, identifier)
	var owned []*fileEntry
	for _, entry := range s.paths {
		if entry.owners[identifier] {
			owned = append(owned, entry)
			delete(entry.owners, identifier)
		}
	}
	return s.commit(func() {
		s.objects[identifier] = obj
		for _, entry := range owned {
			entry.owners[identifier] = true
		}
	})
}

func (s *FileStore) ListObjects(ctx context.Context, offset, limit int) ([]TrackedObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := sortedKeys(s.objects)
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	objects := make([]TrackedObject, len(ids))
	for i, id := range ids {
		objects[i] = *s.objects[id]
	}
	return objects, nil
}

func (s *FileStore) Paths(ctx context.Context, identifier string) ([]PathItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[identifier]; !ok {
		return nil, ErrNotFound
	}
	var items []PathItem
	for _, path := range sortedKeys(s.paths) {
		if entry := s.paths[path]; entry.owners[identifier] {
			items = append(items, entry.item)
		}
	}
	return items, nil
}

func (s *FileStore) GetPath(ctx context.Context, path string) (*PathItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.paths[path]
	if !ok {
		return nil, ErrNotFound
	}
	item := entry.item
	return &item, nil
}

func (s *FileStore) PutPath(ctx context.Context, identifier string, item PathItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[identifier]; !ok {
		return false, ErrNotFound
	}

	now := s.now()
	entry, found := s.paths[item.Path]
	var undo func()
	if found {
		previous, owned := entry.item, entry.owners[identifier]
		undo = func() {
			entry.item = previous
			if !owned {
				delete(entry.owners, identifier)
			}
		}
		entry.item.Type = item.Type
		entry.item.Label = item.Label
		entry.item.Updated = now
	} else {
		undo = func() { delete(s.paths, item.Path) }
		item.Created, item.Updated = now, now
		entry = &fileEntry{item: item, owners: make(map[string]bool)}
		s.paths[item.Path] = entry
	}
	entry.owners[identifier] = true

	if err := s.commit(undo); err != nil {
		return false, err
	}
	return !found, nil
}

func (s *FileStore) Owners(ctx context.Context, path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.paths[path]
	if !ok {
		return nil, ErrNotFound
	}
	return sortedKeys(entry.owners), nil
}

func (s *FileStore) PathsWithPrefix(ctx context.Context, prefix string) ([]PathItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []PathItem
	for _, path := range sortedKeys(s.paths) {
		if strings.HasPrefix(path, prefix) {
			items = append(items, s.paths[path].item)
		}
	}
	return items, nil
}

func (s *FileStore) Unlink(ctx context.Context, identifier, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.paths[path]
	if !ok || !entry.owners[identifier] {
		return ErrNotFound
	}
	delete(entry.owners, identifier)
	return s.commit(func() { entry.owners[identifier] = true })
}

func (s *FileStore) DeletePath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.paths[path]
	if !ok {
		return ErrNotFound
	}
	delete(s.paths, path)
	return s.commit(func() { s.paths[path] = entry })
}

func (s *FileStore) Close() error {
	return nil
}
