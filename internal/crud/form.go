package crud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// ErrFormNotOpen is returned when a form operation needs an open form.
var ErrFormNotOpen = errors.New("form is not open")

// FormState is the lifecycle state of a create/edit form.
type FormState int

const (
	FormClosed FormState = iota
	FormOpen
	FormSubmitting
)

// FormMode says whether an open form creates or edits.
type FormMode int

const (
	ModeCreate FormMode = iota
	ModeEdit
)

// Form collects and validates a draft of one record and delegates
// persistence to a Resource.
//
//	Closed → Open(draft) → Submitting → Closed        (success)
//	                                  → Open + error  (failure, draft kept)
type Form struct {
	kind catalog.Kind

	mu        sync.Mutex
	state     FormState
	mode      FormMode
	target    domain.ID
	draft     Draft
	fieldErrs map[string]string
	err       error
	// slugAuto tracks, per slug field, whether it still follows its source.
	slugAuto map[string]bool
}

// FormSnapshot is a read-only copy of a form's state, safe to render.
type FormSnapshot struct {
	State       FormState
	Mode        FormMode
	Target      domain.ID
	Draft       Draft
	FieldErrors map[string]string
	Err         error
}

// NewForm returns a closed form for kind k.
func NewForm(k catalog.Kind) *Form {
	return &Form{kind: k}
}

// OpenCreate opens the form with an empty draft. Slug fields follow their
// source field until the operator diverges them.
func (f *Form) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open(ModeCreate, "", NewDraft(f.kind))
	for _, fld := range f.kind.Fields {
		if fld.Type == catalog.TypeSlug && fld.From != "" {
			f.slugAuto[fld.Name] = true
		}
	}
}

// OpenEdit opens the form with a copy of r's values. r itself is never
// modified. A slug keeps following its source only if it currently equals
// the derivation of that source.
func (f *Form) OpenEdit(r domain.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open(ModeEdit, r.ID, DraftFrom(f.kind, r.Clone()))
	for _, fld := range f.kind.Fields {
		if fld.Type == catalog.TypeSlug && fld.From != "" {
			f.slugAuto[fld.Name] = f.draft.Values[fld.Name] == Slugify(f.draft.Values[fld.From])
		}
	}
}

func (f *Form) open(mode FormMode, target domain.ID, d Draft) {
	f.state = FormOpen
	f.mode = mode
	f.target = target
	f.draft = d
	f.fieldErrs = nil
	f.err = nil
	f.slugAuto = map[string]bool{}
}

// Close discards the draft. Closing while a submission is in flight is
// ignored; the submission decides the final state.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == FormSubmitting {
		return
	}
	f.state = FormClosed
	f.draft = Draft{}
	f.fieldErrs = nil
	f.err = nil
	f.slugAuto = nil
}

// Set changes one draft field. Changing a slug source re-derives every slug
// still following it; editing a slug to anything other than its derivation
// stops it following for the rest of this draft's life.
func (f *Form) Set(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set(field, value)
}

func (f *Form) set(field, value string) error {
	if f.state != FormOpen {
		return ErrFormNotOpen
	}
	fld, ok := f.kind.Field(field)
	if !ok {
		return fmt.Errorf("crud.Form.Set: unknown field %q", field)
	}
	f.draft.Values[field] = value

	if fld.Type == catalog.TypeSlug && fld.From != "" {
		if value != Slugify(f.draft.Values[fld.From]) {
			f.slugAuto[field] = false
		}
	}
	for _, dep := range f.kind.Fields {
		if dep.Type == catalog.TypeSlug && dep.From == field && f.slugAuto[dep.Name] {
			f.draft.Values[dep.Name] = Slugify(value)
		}
	}
	return nil
}

// Apply merges a full form submission into the draft. Source fields are
// applied first; a slug whose submitted value equals the value it had before
// this submission counts as untouched, so it keeps following its source.
func (f *Form) Apply(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FormOpen {
		return ErrFormNotOpen
	}
	before := make(map[string]string)
	for _, fld := range f.kind.Fields {
		if fld.Type == catalog.TypeSlug {
			before[fld.Name] = f.draft.Values[fld.Name]
		}
	}
	for _, fld := range f.kind.Fields {
		if fld.Type == catalog.TypeSlug {
			continue
		}
		if v, ok := values[fld.Name]; ok {
			if err := f.set(fld.Name, v); err != nil {
				return err
			}
		}
	}
	for _, fld := range f.kind.Fields {
		if fld.Type != catalog.TypeSlug {
			continue
		}
		if v, ok := values[fld.Name]; ok && v != before[fld.Name] {
			if err := f.set(fld.Name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Attach stores an upload for an image field. Updates are sent as JSON, so
// an edit form only takes the image as a URL; an upload there is rejected as
// a field error and the draft keeps its current image.
func (f *Form) Attach(field string, a domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FormOpen {
		return ErrFormNotOpen
	}
	fld, ok := f.kind.Field(field)
	if !ok || fld.Type != catalog.TypeImage {
		return fmt.Errorf("crud.Form.Attach: %q is not an image field", field)
	}
	if f.mode == ModeEdit {
		f.fieldErrs = map[string]string{field: label(fld) + " can only be replaced by URL when editing"}
		f.err = nil
		return domain.NewValidationError(f.fieldErrs)
	}
	f.draft.Files[field] = a
	return nil
}

// Submit validates the draft and, if valid, creates or updates through res.
// Validation failures return a *domain.ValidationError without any network
// call. On success the form closes and hooks receive the backend's record,
// never the local draft. On backend failure the form reopens with the error
// and the draft intact.
func (f *Form) Submit(ctx context.Context, res Resource, hooks Hooks) (domain.Record, error) {
	f.mu.Lock()
	if f.state != FormOpen {
		f.mu.Unlock()
		return domain.Record{}, ErrFormNotOpen
	}
	f.fillBlankSlugs()
	if errs := Validate(f.kind, f.draft); len(errs) > 0 {
		f.fieldErrs = errs
		f.err = nil
		f.mu.Unlock()
		return domain.Record{}, domain.NewValidationError(errs)
	}
	f.fieldErrs = nil
	f.err = nil
	f.state = FormSubmitting
	mode, target := f.mode, f.target
	payload := Encode(f.kind, f.draft)
	f.mu.Unlock()

	var (
		rec domain.Record
		err error
	)
	if mode == ModeCreate {
		rec, err = res.Create(ctx, payload)
	} else {
		rec, err = res.Update(ctx, target, payload.Fields)
	}

	f.mu.Lock()
	if err != nil {
		f.state = FormOpen
		f.err = err
		f.mu.Unlock()
		return domain.Record{}, err
	}
	f.state = FormClosed
	f.draft = Draft{}
	f.slugAuto = nil
	f.mu.Unlock()

	if hooks != nil {
		if mode == ModeCreate {
			hooks.OnCreated(rec)
		} else {
			hooks.OnUpdated(rec)
		}
	}
	return rec, nil
}

// fillBlankSlugs derives optional slugs the operator left empty.
func (f *Form) fillBlankSlugs() {
	for _, fld := range f.kind.Fields {
		if fld.Type == catalog.TypeSlug && fld.From != "" && f.draft.Values[fld.Name] == "" {
			f.draft.Values[fld.Name] = Slugify(f.draft.Values[fld.From])
		}
	}
}

// Snapshot returns a copy of the form's state.
func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := FormSnapshot{State: f.state, Mode: f.mode, Target: f.target, Err: f.err}
	if f.draft.Values != nil {
		s.Draft = f.draft.Clone()
	}
	if len(f.fieldErrs) > 0 {
		s.FieldErrors = make(map[string]string, len(f.fieldErrs))
		for k, v := range f.fieldErrs {
			s.FieldErrors[k] = v
		}
	}
	return s
}
