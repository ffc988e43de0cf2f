package blobstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store with the same hash semantics as the
// GitHub contents API. Used for local development and tests.
type MemoryStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Get returns a copy of the blob at path
func (s *MemoryStore) Get(ctx context.Context, p string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get", p, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.blobs[clean(p)]
	if !exists {
		return nil, &NotFoundError{Path: p}
	}

	return &Blob{
		Path:    clean(p),
		Content: append([]byte(nil), content...),
		Hash:    GitBlobHash(content),
	}, nil
}

// Put writes content at path if expectedHash matches the current state
func (s *MemoryStore) Put(ctx context.Context, p string, content []byte, expectedHash, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("put", p, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := clean(p)
	current, exists := s.blobs[key]

	switch {
	case exists && expectedHash != GitBlobHash(current):
		return "", &ConflictError{Path: key, ExpectedHash: expectedHash, CurrentHash: GitBlobHash(current)}
	case !exists && expectedHash != "":
		return "", &ConflictError{Path: key, ExpectedHash: expectedHash}
	}

	s.blobs[key] = append([]byte(nil), content...)
	return GitBlobHash(content), nil
}

// Delete removes the blob at path if expectedHash matches
func (s *MemoryStore) Delete(ctx context.Context, p, expectedHash, message string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete", p, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := clean(p)
	current, exists := s.blobs[key]
	if !exists {
		return &NotFoundError{Path: key}
	}

	if currentHash := GitBlobHash(current); expectedHash != currentHash {
		return &ConflictError{Path: key, ExpectedHash: expectedHash, CurrentHash: currentHash}
	}

	delete(s.blobs, key)
	return nil
}

// List returns files and subdirectories directly under dir, sorted by name.
// A directory with no blobs below it does not exist, as in git.
func (s *MemoryStore) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list", dir, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := clean(dir)
	if prefix != "" {
		prefix += "/"
	}
	seenDirs := make(map[string]bool)
	entries := make([]Entry, 0)

	for key, content := range s.blobs {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := strings.TrimPrefix(key, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			name := rest[:idx]
			if !seenDirs[name] {
				seenDirs[name] = true
				entries = append(entries, Entry{Name: name, Path: prefix + name, Type: EntryTypeDir})
			}
			continue
		}

		entries = append(entries, Entry{
			Name: rest,
			Path: key,
			Type: EntryTypeFile,
			Hash: GitBlobHash(content),
		})
	}

	if len(entries) == 0 {
		return nil, &NotFoundError{Path: dir}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Len returns the number of stored blobs
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func clean(p string) string {
	return strings.Trim(p, "/")
}
