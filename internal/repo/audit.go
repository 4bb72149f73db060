// Package repo persists the console's audit trail.
// AuditRepo has a Postgres implementation and an in-memory one used when no
// database is configured. No business logic lives here, only SQL and mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mylankajourney/admin-console/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuditRepo stores audit entries.
type AuditRepo interface {
	// Create inserts e and returns it with id and created_at populated.
	Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)

	// ListPaged returns one page of entries matching f, newest first, and the
	// total number of matching entries.
	ListPaged(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)

	// Actors returns every distinct actor, sorted.
	Actors(ctx context.Context) ([]string, error)
}

type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs a Postgres AuditRepo.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Create(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	const q = `
		INSERT INTO audit_entries (actor, action, resource, resource_id, details)
		VALUES (@actor, @action, @resource, @resource_id, @details)
		RETURNING id, actor, action, resource, resource_id, details, created_at`

	args := pgx.NamedArgs{
		"actor":       e.Actor,
		"action":      string(e.Action),
		"resource":    e.Resource,
		"resource_id": e.ResourceID,
		"details":     e.Details,
	}

	result, err := scanAuditEntry(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("repo.AuditRepo.Create: %w", err)
	}
	return result, nil
}

// auditWhere builds the shared WHERE clause for ListPaged's two queries.
func auditWhere(f domain.AuditFilter) (string, pgx.NamedArgs) {
	var conds []string
	args := pgx.NamedArgs{}
	if f.Search != "" {
		conds = append(conds, `(details ILIKE @search OR resource ILIKE @search)`)
		args["search"] = "%" + escapeLike(f.Search) + "%"
	}
	if f.Action != "" && f.Action != domain.FilterAll {
		conds = append(conds, `action = @action`)
		args["action"] = f.Action
	}
	if f.Actor != "" && f.Actor != domain.FilterAll {
		conds = append(conds, `actor = @actor`)
		args["actor"] = f.Actor
	}
	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *pgAuditRepo) ListPaged(ctx context.Context, f domain.AuditFilter, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	where, args := auditWhere(f)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_entries `+where, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `
		SELECT id, actor, action, resource, resource_id, details, created_at
		FROM audit_entries ` + where + `
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.ListPaged: rows: %w", err)
	}
	return entries, total, nil
}

func (r *pgAuditRepo) Actors(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT actor FROM audit_entries ORDER BY actor`)
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.Actors: %w", err)
	}
	actors, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.Actors: %w", err)
	}
	return actors, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAuditEntry(s scanner) (domain.AuditEntry, error) {
	var (
		e      domain.AuditEntry
		id     pgtype.UUID
		action string
	)
	err := s.Scan(&id, &e.Actor, &action, &e.Resource, &e.ResourceID, &e.Details, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AuditEntry{}, domain.ErrNotFound
		}
		return domain.AuditEntry{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.Action = domain.AuditAction(action)
	return e, nil
}
