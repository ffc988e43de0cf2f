package blobstoretest

import (
	"context"
	"sync/atomic"

	"github.com/stationprofiles/station-sync/common/blobstore"
)

// Counting wraps a Store and counts every call that reaches it
type Counting struct {
	blobstore.Store
	calls atomic.Int64
}

// NewCounting wraps store
func NewCounting(store blobstore.Store) *Counting {
	return &Counting{Store: store}
}

// Calls returns the number of store operations performed
func (c *Counting) Calls() int64 {
	return c.calls.Load()
}

func (c *Counting) Get(ctx context.Context, path string) (*blobstore.Blob, error) {
	c.calls.Add(1)
	return c.Store.Get(ctx, path)
}

func (c *Counting) Put(ctx context.Context, path string, content []byte, expectedHash, message string) (string, error) {
	c.calls.Add(1)
	return c.Store.Put(ctx, path, content, expectedHash, message)
}

func (c *Counting) Delete(ctx context.Context, path, expectedHash, message string) error {
	c.calls.Add(1)
	return c.Store.Delete(ctx, path, expectedHash, message)
}

func (c *Counting) List(ctx context.Context, dir string) ([]blobstore.Entry, error) {
	c.calls.Add(1)
	return c.Store.List(ctx, dir)
}
