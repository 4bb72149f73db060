package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Resolver hands out the Resource for a kind.
type Resolver interface {
	Resource(k catalog.Kind) Resource
}

// Screen is one content page: the list view of a kind, its create/edit form,
// its delete confirmation, and the lookup indexes for its foreign keys.
type Screen struct {
	View    *View
	Form    *Form
	Confirm *DeleteConfirm

	kind     catalog.Kind
	siblings map[string]catalog.Kind

	mu        sync.RWMutex
	lookups   map[string]*Index
	lookupErr error
}

// NewScreen builds a screen for k. Ref targets are resolved through cat.
func NewScreen(cat *catalog.Catalog, k catalog.Kind) *Screen {
	s := &Screen{
		View:     NewView(k),
		Form:     NewForm(k),
		Confirm:  &DeleteConfirm{},
		kind:     k,
		siblings: map[string]catalog.Kind{},
	}
	for _, f := range k.Refs() {
		if sib, ok := cat.Kind(f.Ref); ok {
			s.siblings[f.Name] = sib
		}
	}
	return s
}

// Kind returns the screen's kind.
func (s *Screen) Kind() catalog.Kind { return s.kind }

// Mount closes any open modal, then loads the collection and every sibling
// collection its foreign keys point at, concurrently. The view's own load
// decides the returned error. A failed sibling load leaves that index empty,
// so its labels resolve to Unknown; the failure is kept for LookupErr.
func (s *Screen) Mount(ctx context.Context, res Resolver) error {
	s.Form.Close()
	s.Confirm.Close()

	gen := s.View.begin()

	var (
		mu      sync.Mutex
		lookups = make(map[string]*Index, len(s.siblings))
		errs    []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for field, sib := range s.siblings {
		g.Go(func() error {
			records, err := res.Resource(sib).List(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", sib.Name, err))
				lookups[field] = NewIndex(sib, nil)
				return nil
			}
			lookups[field] = NewIndex(sib, records)
			return nil
		})
	}

	records, err := res.Resource(s.kind).List(ctx)
	_ = g.Wait()

	if ferr := s.View.finish(gen, records, err); ferr != nil {
		return ferr
	}

	s.mu.Lock()
	s.lookups = lookups
	s.lookupErr = errors.Join(errs...)
	s.mu.Unlock()
	return nil
}

// Unmount drops the collection and closes any modal.
func (s *Screen) Unmount() {
	s.Form.Close()
	s.Confirm.Close()
	s.View.Unmount()
	s.mu.Lock()
	s.lookups = nil
	s.lookupErr = nil
	s.mu.Unlock()
}

// Lookup returns the index for a foreign-key field (nil if not loaded).
func (s *Screen) Lookup(field string) *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups[field]
}

// LookupErr reports sibling loads that failed during the last mount.
func (s *Screen) LookupErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupErr
}

// Label resolves the display label of r's foreign key field.
func (s *Screen) Label(r domain.Record, field string) string {
	f, ok := s.kind.Field(field)
	if !ok {
		return Unknown
	}
	return s.Lookup(field).Label(r.Ref(field, f.Nested))
}
