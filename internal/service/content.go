package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Operator identifies who is acting: the session token owning the workspace
// and the e-mail recorded in the audit trail.
type Operator struct {
	Token string
	Email string
}

// AuditRecorder appends to the audit trail. It never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry)
}

// ContentService drives the CRUD screens of every catalog kind for every
// session.
type ContentService struct {
	cat   *catalog.Catalog
	res   crud.Resolver
	ws    *Workspaces
	audit AuditRecorder
	log   *slog.Logger
}

// NewContentService wires the engine to the backend resolver and audit trail.
func NewContentService(cat *catalog.Catalog, res crud.Resolver, ws *Workspaces, audit AuditRecorder, log *slog.Logger) *ContentService {
	return &ContentService{cat: cat, res: res, ws: ws, audit: audit, log: log}
}

// Kinds lists the managed kinds in catalog order.
func (s *ContentService) Kinds() []catalog.Kind { return s.cat.Kinds() }

// Kind looks up a kind by name.
func (s *ContentService) Kind(name string) (catalog.Kind, error) {
	k, ok := s.cat.Kind(name)
	if !ok {
		return catalog.Kind{}, fmt.Errorf("service.ContentService.Kind %q: %w", name, domain.ErrNotFound)
	}
	return k, nil
}

// Screen returns op's screen for kind without loading anything.
func (s *ContentService) Screen(op Operator, kind string) (*crud.Screen, error) {
	k, err := s.Kind(kind)
	if err != nil {
		return nil, err
	}
	return s.ws.For(op.Token).Screen(k), nil
}

// Mount (re)loads op's screen for kind, as navigating to it does. A failed
// load is returned as the error while the screen is still returned, Failed
// and empty, for rendering.
func (s *ContentService) Mount(ctx context.Context, op Operator, kind string) (*crud.Screen, error) {
	k, err := s.Kind(kind)
	if err != nil {
		return nil, err
	}
	w := s.ws.For(op.Token)
	w.activate(k)
	scr := w.Screen(k)
	if err := scr.Mount(ctx, s.res); err != nil {
		if !errors.Is(err, domain.ErrStale) {
			s.log.WarnContext(ctx, "loading collection failed", "kind", kind, "error", err)
		}
		return scr, fmt.Errorf("service.ContentService.Mount: %w", err)
	}
	if lerr := scr.LookupErr(); lerr != nil {
		s.log.WarnContext(ctx, "loading lookups failed", "kind", kind, "error", lerr)
	}
	return scr, nil
}

// Ensure returns op's screen for kind, mounting it only if it is idle.
func (s *ContentService) Ensure(ctx context.Context, op Operator, kind string) (*crud.Screen, error) {
	scr, err := s.Screen(op, kind)
	if err != nil {
		return nil, err
	}
	if st, _ := scr.View.Status(); st != crud.StatusIdle {
		return scr, nil
	}
	return s.Mount(ctx, op, kind)
}

// Find returns a record of kind from op's mounted view.
func (s *ContentService) Find(ctx context.Context, op Operator, kind string, id domain.ID) (domain.Record, *crud.Screen, error) {
	scr, err := s.Ensure(ctx, op, kind)
	if err != nil {
		return domain.Record{}, scr, err
	}
	r, ok := scr.View.Find(id)
	if !ok {
		return domain.Record{}, scr, fmt.Errorf("service.ContentService.Find %s/%s: %w", kind, id, domain.ErrNotFound)
	}
	return r, scr, nil
}

// OpenCreate opens an empty create form.
func (s *ContentService) OpenCreate(ctx context.Context, op Operator, kind string) (*crud.Screen, error) {
	scr, err := s.Ensure(ctx, op, kind)
	if err != nil {
		return scr, err
	}
	scr.Confirm.Close()
	scr.Form.OpenCreate()
	return scr, nil
}

// OpenEdit opens the form on a copy of record id.
func (s *ContentService) OpenEdit(ctx context.Context, op Operator, kind string, id domain.ID) (*crud.Screen, error) {
	r, scr, err := s.Find(ctx, op, kind, id)
	if err != nil {
		return scr, err
	}
	scr.Confirm.Close()
	scr.Form.OpenEdit(r)
	return scr, nil
}

// Submission is one posted form.
type Submission struct {
	Values map[string]string
	Files  map[string]domain.Attachment
}

// Submit applies sub to op's open form for kind and submits it. For an
// update, id must be the record the form was opened on; a form that is not
// open in the right mode is opened first so a stale browser tab still works.
func (s *ContentService) Submit(ctx context.Context, op Operator, kind string, id domain.ID, sub Submission) (domain.Record, *crud.Screen, error) {
	scr, err := s.Ensure(ctx, op, kind)
	if err != nil {
		return domain.Record{}, scr, err
	}
	k := scr.Kind()

	snap := scr.Form.Snapshot()
	switch {
	case id == "" && (snap.State != crud.FormOpen || snap.Mode != crud.ModeCreate):
		scr.Form.OpenCreate()
	case id != "" && (snap.State != crud.FormOpen || snap.Mode != crud.ModeEdit || snap.Target != id):
		r, ok := scr.View.Find(id)
		if !ok {
			return domain.Record{}, scr, fmt.Errorf("service.ContentService.Submit %s/%s: %w", kind, id, domain.ErrNotFound)
		}
		scr.Form.OpenEdit(r)
	}

	if err := scr.Form.Apply(knownValues(k, sub.Values)); err != nil {
		return domain.Record{}, scr, fmt.Errorf("service.ContentService.Submit: %w", err)
	}
	for field, a := range sub.Files {
		if err := scr.Form.Attach(field, a); err != nil {
			return domain.Record{}, scr, fmt.Errorf("service.ContentService.Submit: %w", err)
		}
	}

	mode := scr.Form.Snapshot().Mode
	rec, err := scr.Form.Submit(ctx, s.res.Resource(k), scr.View.Hooks())
	if err != nil {
		return domain.Record{}, scr, fmt.Errorf("service.ContentService.Submit: %w", err)
	}

	action, verb := domain.ActionCreate, "Created"
	if mode == crud.ModeEdit {
		action, verb = domain.ActionUpdate, "Updated"
	}
	s.record(ctx, op, k, action, verb, rec)
	return rec, scr, nil
}

// knownValues drops posted keys the kind does not declare, such as the CSRF
// token.
func knownValues(k catalog.Kind, values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for name, v := range values {
		if _, ok := k.Field(name); ok {
			out[name] = v
		}
	}
	return out
}

// OpenDelete targets record id for deletion.
func (s *ContentService) OpenDelete(ctx context.Context, op Operator, kind string, id domain.ID) (*crud.Screen, error) {
	r, scr, err := s.Find(ctx, op, kind, id)
	if err != nil {
		return scr, err
	}
	scr.Form.Close()
	scr.Confirm.Open(r)
	return scr, nil
}

// Close cancels whatever modal is open on op's screen for kind.
func (s *ContentService) Close(op Operator, kind string) error {
	scr, err := s.Screen(op, kind)
	if err != nil {
		return err
	}
	scr.Form.Close()
	scr.Confirm.Close()
	return nil
}

// ConfirmDelete deletes the targeted record. id must match the open
// confirmation, so a resubmitted page cannot delete a different record.
func (s *ContentService) ConfirmDelete(ctx context.Context, op Operator, kind string, id domain.ID) (*crud.Screen, error) {
	scr, err := s.Screen(op, kind)
	if err != nil {
		return nil, err
	}
	state, target, _ := scr.Confirm.Snapshot()
	if state != crud.ConfirmOpen || target.ID != id {
		return scr, fmt.Errorf("service.ContentService.ConfirmDelete: %w", crud.ErrConfirmNotOpen)
	}
	k := scr.Kind()
	if err := scr.Confirm.Confirm(ctx, s.res.Resource(k), scr.View.Hooks()); err != nil {
		return scr, fmt.Errorf("service.ContentService.ConfirmDelete: %w", err)
	}
	s.record(ctx, op, k, domain.ActionDelete, "Deleted", target)
	return scr, nil
}

func (s *ContentService) record(ctx context.Context, op Operator, k catalog.Kind, action domain.AuditAction, verb string, r domain.Record) {
	if s.audit == nil {
		return
	}
	details := fmt.Sprintf("%s %s", verb, strings.ToLower(k.Singular))
	if label := r.Text(k.Label); label != "" {
		details += " " + label
	}
	s.audit.Record(ctx, domain.AuditEntry{
		Actor:      op.Email,
		Action:     action,
		Resource:   k.Name,
		ResourceID: string(r.ID),
		Details:    details,
	})
}
