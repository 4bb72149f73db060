package crud_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// fakeResource is an in-memory crud.Resource that records every call.
// Set the err fields to make the matching call fail.
type fakeResource struct {
	mu      sync.Mutex
	records []domain.Record
	nextID  int
	calls   []string

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	lastPayload domain.Payload
	lastFields  map[string]any
}

var _ crud.Resource = (*fakeResource)(nil)

func (f *fakeResource) List(_ context.Context) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Record(nil), f.records...), nil
}

func (f *fakeResource) Create(_ context.Context, p domain.Payload) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.lastPayload = p
	if f.createErr != nil {
		return domain.Record{}, f.createErr
	}
	f.nextID++
	r := domain.Record{ID: domain.ID(strconv.Itoa(100 + f.nextID)), Fields: map[string]any{}}
	for k, v := range p.Fields {
		r.Fields[k] = v
	}
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeResource) Update(_ context.Context, id domain.ID, fields map[string]any) (domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	f.lastFields = fields
	if f.updateErr != nil {
		return domain.Record{}, f.updateErr
	}
	r := domain.Record{ID: id, Fields: map[string]any{}}
	for k, v := range fields {
		r.Fields[k] = v
	}
	return r, nil
}

func (f *fakeResource) Delete(_ context.Context, id domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+string(id))
	return f.deleteErr
}

func (f *fakeResource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// resolver maps kind names to fake resources.
type resolver map[string]*fakeResource

func (r resolver) Resource(k catalog.Kind) crud.Resource { return r[k.Name] }

func mustKind(t *testing.T, name string) catalog.Kind {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	k, ok := c.Kind(name)
	require.True(t, ok, "kind %q", name)
	return k
}

func mustCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

// rec decodes a backend JSON object into a Record.
func rec(t *testing.T, js string) domain.Record {
	t.Helper()
	var r domain.Record
	require.NoError(t, json.Unmarshal([]byte(js), &r))
	return r
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.ID)
	}
	return out
}
