package wad

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// Catalog owns the levels of every archive loaded into it. Lookups may run
// concurrently with each other but not with Load, LoadFile, LoadFiles or
// Clear; callers that mix them must provide their own locking.
// The zero value is an empty catalog.
type Catalog struct {
	maps []*Map
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Load decodes every level in r and appends them to the catalog. On error
// nothing is added.
func (c *Catalog) Load(r io.ReadSeeker, opts ...Option) error {
	w, err := Decode(r, opts...)
	if err != nil {
		return err
	}
	c.maps = append(c.maps, w.Maps...)
	return nil
}

// LoadFile decodes the named archive file into the catalog. On error nothing
// is added.
func (c *Catalog) LoadFile(path string, opts ...Option) error {
	w, err := Open(path, opts...)
	if err != nil {
		return err
	}
	c.maps = append(c.maps, w.Maps...)
	return nil
}

// LoadFiles decodes several archive files in parallel, each on its own file
// handle, and appends their levels in argument order. If any archive fails
// nothing is added and the first error is returned.
func (c *Catalog) LoadFiles(ctx context.Context, paths []string, opts ...Option) error {
	wads := make([]*WAD, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w, err := Open(path, opts...)
			if err != nil {
				return err
			}
			wads[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, w := range wads {
		c.maps = append(c.maps, w.Maps...)
	}
	return nil
}

// FindByName returns the first level called name, in load order. The match is
// exact and case sensitive.
func (c *Catalog) FindByName(name string) (*Map, bool) {
	for _, m := range c.maps {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Maps returns the levels in load order. The slice must not be modified.
func (c *Catalog) Maps() []*Map {
	return c.maps
}

func (c *Catalog) Len() int {
	return len(c.maps)
}

// Clear discards every level.
func (c *Catalog) Clear() {
	c.maps = nil
}
