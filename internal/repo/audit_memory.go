package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// memoryAuditRepo keeps entries in process memory, newest last.
type memoryAuditRepo struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
	now     func() time.Time
}

// NewMemoryAuditRepo returns an AuditRepo that forgets everything on restart.
func NewMemoryAuditRepo() AuditRepo {
	return &memoryAuditRepo{now: time.Now}
}

func (m *memoryAuditRepo) Create(_ context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = m.now().UTC()
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryAuditRepo) ListPaged(_ context.Context, f domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(f.Search)
	matched := []domain.AuditEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Details), search) &&
			!strings.Contains(strings.ToLower(e.Resource), search) {
			continue
		}
		if f.Action != "" && f.Action != domain.FilterAll && string(e.Action) != f.Action {
			continue
		}
		if f.Actor != "" && f.Actor != domain.FilterAll && e.Actor != f.Actor {
			continue
		}
		matched = append(matched, e)
	}

	total := int64(len(matched))
	start := p.Offset()
	if start >= len(matched) {
		return []domain.AuditEntry{}, total, nil
	}
	end := start + p.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memoryAuditRepo) Actors(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	actors := []string{}
	for _, e := range m.entries {
		if !seen[e.Actor] {
			seen[e.Actor] = true
			actors = append(actors, e.Actor)
		}
	}
	sort.Strings(actors)
	return actors, nil
}
