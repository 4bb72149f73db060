// Package crud is the generic resource-management engine behind every content
// screen: a list view with filtering and in-place patching, a create/edit form
// with validation and slug derivation, and a delete confirmation. It is driven
// entirely by a catalog.Kind; no code here knows about a concrete entity.
package crud

import (
	"context"
	"sync"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Lister loads a whole collection.
type Lister interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// Resource is the backend surface the engine needs for one kind.
// It is satisfied by *backend.Resource.
type Resource interface {
	Lister
	Create(ctx context.Context, p domain.Payload) (domain.Record, error)
	Update(ctx context.Context, id domain.ID, fields map[string]any) (domain.Record, error)
	Delete(ctx context.Context, id domain.ID) error
}

// Hooks receive the results of successful modal operations.
type Hooks interface {
	OnCreated(r domain.Record)
	OnUpdated(r domain.Record)
	OnDeleted(id domain.ID)
}

// Status is the load state of a view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// View owns the in-memory snapshot of one kind's collection for the lifetime
// of a mount. Every mount and unmount bumps a generation counter; results
// tagged with an older generation are dropped.
type View struct {
	kind catalog.Kind

	mu      sync.RWMutex
	status  Status
	err     error
	records []domain.Record
	gen     uint64
}

// NewView returns an idle view for kind k.
func NewView(k catalog.Kind) *View {
	return &View{kind: k}
}

// Kind returns the kind this view displays.
func (v *View) Kind() catalog.Kind { return v.kind }

// Mount moves the view to Loading and fetches the collection from src.
// On success the view is Ready; on failure it is Failed with no records and
// the error is returned. If the view was remounted or unmounted while src was
// loading, the result is discarded and domain.ErrStale is returned.
func (v *View) Mount(ctx context.Context, src Lister) error {
	gen := v.begin()

	records, err := src.List(ctx)
	return v.finish(gen, records, err)
}

func (v *View) begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.status = StatusLoading
	v.err = nil
	v.records = nil
	return v.gen
}

func (v *View) finish(gen uint64, records []domain.Record, err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen {
		return domain.ErrStale
	}
	if err != nil {
		v.status = StatusFailed
		v.err = err
		v.records = nil
		return err
	}
	v.status = StatusReady
	v.records = append(make([]domain.Record, 0, len(records)), records...)
	return nil
}

// Unmount returns the view to Idle and invalidates in-flight loads and hooks.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.status = StatusIdle
	v.err = nil
	v.records = nil
}

// Status returns the current load state and, when Failed, the load error.
func (v *View) Status() (Status, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status, v.err
}

// Generation identifies the current mount.
func (v *View) Generation() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.gen
}

// Records returns a copy of the full collection in its current order.
func (v *View) Records() []domain.Record {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Record(nil), v.records...)
}

// Len returns the size of the full collection.
func (v *View) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.records)
}

// Visible returns the records matching q. It is recomputed on every call.
func (v *View) Visible(q Query) []domain.Record {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Apply(v.kind, v.records, q)
}

// Find returns the record with the given id.
func (v *View) Find(id domain.ID) (domain.Record, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if i := v.indexOf(id); i >= 0 {
		return v.records[i], true
	}
	return domain.Record{}, false
}

// OnCreated appends r. A record whose id is already present replaces it
// instead, so ids stay unique.
func (v *View) OnCreated(r domain.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.created(r)
}

// OnUpdated replaces the record with r's id. Unknown ids are ignored.
func (v *View) OnUpdated(r domain.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updated(r)
}

// OnDeleted removes the record with the given id, if present.
func (v *View) OnDeleted(id domain.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.deleted(id)
}

// Hooks returns hooks bound to the current mount. Once the view is remounted
// or unmounted they become no-ops.
func (v *View) Hooks() Hooks {
	return boundHooks{view: v, gen: v.Generation()}
}

func (v *View) created(r domain.Record) {
	if i := v.indexOf(r.ID); i >= 0 {
		v.records[i] = r
		return
	}
	v.records = append(v.records, r)
}

func (v *View) updated(r domain.Record) {
	if i := v.indexOf(r.ID); i >= 0 {
		v.records[i] = r
	}
}

func (v *View) deleted(id domain.ID) {
	i := v.indexOf(id)
	if i < 0 {
		return
	}
	next := make([]domain.Record, 0, len(v.records)-1)
	next = append(next, v.records[:i]...)
	v.records = append(next, v.records[i+1:]...)
}

func (v *View) indexOf(id domain.ID) int {
	for i, r := range v.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

type boundHooks struct {
	view *View
	gen  uint64
}

func (h boundHooks) OnCreated(r domain.Record) {
	h.apply(func() { h.view.created(r) })
}

func (h boundHooks) OnUpdated(r domain.Record) {
	h.apply(func() { h.view.updated(r) })
}

func (h boundHooks) OnDeleted(id domain.ID) {
	h.apply(func() { h.view.deleted(id) })
}

func (h boundHooks) apply(fn func()) {
	h.view.mu.Lock()
	defer h.view.mu.Unlock()
	if h.view.gen != h.gen {
		return
	}
	fn()
}
