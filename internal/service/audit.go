package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/repo"
)

// AuditService records and lists console changes.
type AuditService struct {
	repo repo.AuditRepo
	log  *slog.Logger
}

var _ AuditRecorder = (*AuditService)(nil)

// NewAuditService constructs an AuditService backed by r.
func NewAuditService(r repo.AuditRepo, log *slog.Logger) *AuditService {
	return &AuditService{repo: r, log: log}
}

// Record appends e. A failed write is logged and otherwise ignored so the
// operator's change is never reported as failed because of the audit trail.
func (s *AuditService) Record(ctx context.Context, e domain.AuditEntry) {
	if !e.Action.Valid() {
		s.log.ErrorContext(ctx, "refusing audit entry with unknown action", "action", e.Action)
		return
	}
	if e.Actor == "" {
		e.Actor = "unknown"
	}
	if _, err := s.repo.Create(ctx, e); err != nil {
		s.log.ErrorContext(ctx, "writing audit entry failed",
			"action", e.Action,
			"resource", e.Resource,
			"resource_id", e.ResourceID,
			"error", err,
		)
	}
}

// AuditPage is one page of the audit log plus what the filter bar needs.
type AuditPage struct {
	Entries    []domain.AuditEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Actors     []string
}

// List returns the page of entries matching f.
func (s *AuditService) List(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) (AuditPage, error) {
	entries, total, err := s.repo.ListPaged(ctx, f, p)
	if err != nil {
		return AuditPage{}, fmt.Errorf("service.AuditService.List: %w", err)
	}
	actors, err := s.repo.Actors(ctx)
	if err != nil {
		return AuditPage{}, fmt.Errorf("service.AuditService.List: %w", err)
	}
	return AuditPage{
		Entries:    entries,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(total),
		Actors:     actors,
	}, nil
}
