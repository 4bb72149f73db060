package service_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// mockResource is a hand-written test double for crud.Resource.
// Each method is a function field; set only the ones your test needs.
type mockResource struct {
	list   func(ctx context.Context) ([]domain.Record, error)
	create func(ctx context.Context, p domain.Payload) (domain.Record, error)
	update func(ctx context.Context, id domain.ID, fields map[string]any) (domain.Record, error)
	delete func(ctx context.Context, id domain.ID) error
}

func (m *mockResource) List(ctx context.Context) ([]domain.Record, error) { return m.list(ctx) }
func (m *mockResource) Create(ctx context.Context, p domain.Payload) (domain.Record, error) {
	return m.create(ctx, p)
}
func (m *mockResource) Update(ctx context.Context, id domain.ID, fields map[string]any) (domain.Record, error) {
	return m.update(ctx, id, fields)
}
func (m *mockResource) Delete(ctx context.Context, id domain.ID) error { return m.delete(ctx, id) }

// compile-time check: mockResource must satisfy crud.Resource.
var _ crud.Resource = (*mockResource)(nil)

// mockResolver hands out a mockResource per kind name.
type mockResolver map[string]*mockResource

func (m mockResolver) Resource(k catalog.Kind) crud.Resource { return m[k.Name] }

// recordingAudit captures entries instead of persisting them.
type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, e domain.AuditEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingAudit) Entries() []domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func rec(t *testing.T, js string) domain.Record {
	t.Helper()
	var r domain.Record
	require.NoError(t, json.Unmarshal([]byte(js), &r))
	return r
}

func listing(records ...domain.Record) func(context.Context) ([]domain.Record, error) {
	return func(context.Context) ([]domain.Record, error) { return records, nil }
}
