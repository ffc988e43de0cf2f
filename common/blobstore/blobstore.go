package blobstore

import (
	"context"
	"crypto/sha1"
	"fmt"
	"path"
)

// Store is a remote key/blob store guarded by content hashes.
// Every read returns the blob's current hash and every write presents the
// hash it replaces, which is how concurrent edits are detected.
// All implementations must be context-aware and safe for concurrent use.
type Store interface {
	// Get returns the blob at path or ErrNotFound.
	Get(ctx context.Context, path string) (*Blob, error)

	// Put creates the blob when expectedHash is empty and nothing exists at path,
	// or replaces it when expectedHash matches. Returns the new hash.
	Put(ctx context.Context, path string, content []byte, expectedHash, message string) (string, error)

	// Delete removes the blob when expectedHash matches.
	Delete(ctx context.Context, path, expectedHash, message string) error

	// List returns the direct children of dir (non-recursive).
	List(ctx context.Context, dir string) ([]Entry, error)
}

// Blob is a named, hash-versioned unit of content
type Blob struct {
	Path    string
	Content []byte
	Hash    string
}

// Entry is one item of a directory listing
type Entry struct {
	Name string
	Path string
	Type string // "file" or "dir"
	Hash string
}

const (
	EntryTypeFile = "file"
	EntryTypeDir  = "dir"
)

// GitBlobHash computes the git object id for content, the same value the
// GitHub contents API reports as "sha".
func GitBlobHash(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Join builds a store path from a directory and a name
func Join(dir, name string) string {
	return path.Join(dir, name)
}
