package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
	"github.com/mylankajourney/admin-console/internal/service"
)

// maxFormMemory is how much of a multipart form is held in memory; the rest
// spills to temporary files. The body size itself is capped by middleware.
const maxFormMemory = 8 << 20

// contentPage is the view of one kind's list screen plus any open modal.
type contentPage struct {
	Kind         catalog.Kind
	Failed       bool
	LookupFailed bool
	Search       string
	Filters      []filterView
	Columns      []string
	Rows         []rowView
	Total        int
	Shown        int
	NewURL       string
	Form         *formView
	Confirm      *confirmView
	Detail       *detailView
}

type filterView struct {
	Field    string
	Label    string
	Options  []crud.Option
	Selected string
}

type rowView struct {
	ID        string
	Cells     []string
	ViewURL   string
	EditURL   string
	DeleteURL string
}

type formView struct {
	Title     string
	Submit    string
	Action    string
	CloseURL  string
	Multipart bool
	Err       string
	Fields    []fieldView
}

type fieldView struct {
	Name     string
	Label    string
	Type     string
	Value    string
	Error    string
	Required bool
	Upload   bool
	Options  []crud.Option
}

type confirmView struct {
	Label    string
	Action   string
	CloseURL string
	Err      string
}

type detailView struct {
	Title    string
	Fields   []detailField
	EditURL  string
	CloseURL string
}

type detailField struct {
	Label string
	Type  string
	Value string
}

// listState is the search and filter part of a content URL, carried through
// modal links and form posts so the operator returns to the same list.
func listState(k catalog.Kind, q url.Values) url.Values {
	out := url.Values{}
	if v := q.Get("q"); v != "" {
		out.Set("q", v)
	}
	for _, f := range k.Filters {
		if v := q.Get(f.Field); v != "" && v != crud.All {
			out.Set(f.Field, v)
		}
	}
	return out
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// keepURL returns to the mounted list without reloading it.
func keepURL(kind string, state url.Values) string {
	q := url.Values{"keep": {"1"}}
	for k, v := range state {
		q[k] = v
	}
	return withQuery("/content/"+kind, q)
}

func recordID(r *http.Request) domain.ID {
	return domain.ID(chi.URLParam(r, "id"))
}

// contentList handles GET /content/{kind}. Navigating to the page remounts
// the view; keep=1 reuses the mounted one.
func (s *Server) contentList(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	var (
		scr *crud.Screen
		err error
	)
	if r.URL.Query().Get("keep") == "1" {
		scr, err = s.content.Ensure(r.Context(), operator(r), kind)
	} else {
		scr, err = s.content.Mount(r.Context(), operator(r), kind)
	}
	s.respondContent(w, r, scr, err, nil)
}

// contentNew handles GET /content/{kind}/new.
func (s *Server) contentNew(w http.ResponseWriter, r *http.Request) {
	scr, err := s.content.OpenCreate(r.Context(), operator(r), chi.URLParam(r, "kind"))
	s.respondContent(w, r, scr, err, nil)
}

// contentEdit handles GET /content/{kind}/{id}/edit.
func (s *Server) contentEdit(w http.ResponseWriter, r *http.Request) {
	scr, err := s.content.OpenEdit(r.Context(), operator(r), chi.URLParam(r, "kind"), recordID(r))
	s.respondContent(w, r, scr, err, nil)
}

// contentShow handles GET /content/{kind}/{id}, the read-only detail modal.
func (s *Server) contentShow(w http.ResponseWriter, r *http.Request) {
	rec, scr, err := s.content.Find(r.Context(), operator(r), chi.URLParam(r, "kind"), recordID(r))
	var detail *detailView
	if err == nil {
		detail = buildDetail(scr, rec, listState(scr.Kind(), r.URL.Query()))
	}
	s.respondContent(w, r, scr, err, detail)
}

// contentCreate handles POST /content/{kind}.
func (s *Server) contentCreate(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, "")
}

// contentUpdate handles POST /content/{kind}/{id}.
func (s *Server) contentUpdate(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, recordID(r))
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, id domain.ID) {
	kind := chi.URLParam(r, "kind")
	sub, err := readSubmission(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	_, scr, err := s.content.Submit(r.Context(), operator(r), kind, id, sub)
	if err != nil {
		s.respondContent(w, r, scr, err, nil)
		return
	}
	http.Redirect(w, r, keepURL(kind, listState(scr.Kind(), r.URL.Query())), http.StatusSeeOther)
}

// readSubmission collects a posted form, url-encoded or multipart. Only the
// first value of each key counts; uploads are kept for image fields.
func readSubmission(r *http.Request) (service.Submission, error) {
	sub := service.Submission{Values: map[string]string{}, Files: map[string]domain.Attachment{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return sub, err
		}
	} else if err := r.ParseForm(); err != nil {
		return sub, err
	}
	for key, vals := range r.PostForm {
		if len(vals) > 0 {
			sub.Values[key] = vals[0]
		}
	}
	if r.MultipartForm == nil {
		return sub, nil
	}
	for key, headers := range r.MultipartForm.File {
		if len(headers) == 0 || headers[0].Size == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return sub, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return sub, err
		}
		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = http.DetectContentType(data)
		}
		sub.Files[key] = domain.Attachment{Filename: fh.Filename, ContentType: ct, Data: data}
	}
	return sub, nil
}

// contentDeletePrompt handles GET /content/{kind}/{id}/delete.
func (s *Server) contentDeletePrompt(w http.ResponseWriter, r *http.Request) {
	scr, err := s.content.OpenDelete(r.Context(), operator(r), chi.URLParam(r, "kind"), recordID(r))
	s.respondContent(w, r, scr, err, nil)
}

// contentDelete handles POST /content/{kind}/{id}/delete.
func (s *Server) contentDelete(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	scr, err := s.content.ConfirmDelete(r.Context(), operator(r), kind, recordID(r))
	if err != nil {
		s.respondContent(w, r, scr, err, nil)
		return
	}
	http.Redirect(w, r, keepURL(kind, listState(scr.Kind(), r.URL.Query())), http.StatusSeeOther)
}

// contentClose handles POST /content/{kind}/close: cancel whatever modal is open.
func (s *Server) contentClose(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if err := s.content.Close(operator(r), kind); err != nil {
		s.fail(w, r, err)
		return
	}
	state := url.Values{}
	for _, k := range s.content.Kinds() {
		if k.Name == kind {
			state = listState(k, r.URL.Query())
		}
	}
	http.Redirect(w, r, keepURL(kind, state), http.StatusSeeOther)
}

// respondContent renders a content screen after an operation. Errors the
// open modal already shows (field errors, a failed save or delete) are not
// repeated in the page banner.
func (s *Server) respondContent(w http.ResponseWriter, r *http.Request, scr *crud.Screen, err error, detail *detailView) {
	if err != nil && errors.Is(err, domain.ErrUnauthenticated) {
		s.expire(w, r)
		return
	}
	if scr == nil {
		s.fail(w, r, err)
		return
	}

	status, banner := http.StatusOK, ""
	view := buildContent(scr, r.URL.Query(), detail)
	if err != nil && !errors.Is(err, domain.ErrStale) {
		status = statusFor(err)
		if status == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "content operation failed", "kind", scr.Kind().Name, "error", err)
		}
		if view.Form == nil && (view.Confirm == nil || view.Confirm.Err == "") {
			banner = errMessage(err)
			if view.Failed {
				banner = fmt.Sprintf("Could not load %s. %s", scr.Kind().Title, banner)
			}
		}
	}
	s.render(w, r, status, "content", page{
		Title:   scr.Kind().Title,
		Section: scr.Kind().Name,
		Banner:  banner,
		Data:    view,
	})
}

// listColumn reports whether a field is short enough for the table.
func listColumn(f catalog.Field) bool {
	switch f.Type {
	case catalog.TypeText, catalog.TypeSlug, catalog.TypeNumber, catalog.TypeRef, catalog.TypeSelect:
		return true
	}
	return false
}

func cell(scr *crud.Screen, rec domain.Record, f catalog.Field) string {
	if f.Type == catalog.TypeRef {
		return scr.Label(rec, f.Name)
	}
	return rec.Text(f.Name)
}

func buildContent(scr *crud.Screen, q url.Values, detail *detailView) contentPage {
	k := scr.Kind()
	state := listState(k, q)
	base := "/content/" + k.Name
	st, _ := scr.View.Status()

	query := crud.Query{Search: q.Get("q"), Filters: map[string]string{}}
	p := contentPage{
		Kind:         k,
		Failed:       st == crud.StatusFailed,
		LookupFailed: scr.LookupErr() != nil,
		Search:       q.Get("q"),
		Total:        scr.View.Len(),
		NewURL:       withQuery(base+"/new", state),
		Detail:       detail,
	}
	for _, f := range k.Filters {
		sel := q.Get(f.Field)
		if sel == "" {
			sel = crud.All
		}
		query.Filters[f.Field] = sel
		p.Filters = append(p.Filters, filterView{Field: f.Field, Label: f.Label, Options: scr.Lookup(f.Field).Options(), Selected: sel})
	}

	var cols []catalog.Field
	for _, f := range k.Fields {
		if listColumn(f) {
			cols = append(cols, f)
			p.Columns = append(p.Columns, f.Label)
		}
	}
	visible := scr.View.Visible(query)
	p.Shown = len(visible)
	for _, rec := range visible {
		row := rowView{
			ID:        rec.ID.String(),
			ViewURL:   withQuery(base+"/"+url.PathEscape(rec.ID.String()), state),
			EditURL:   withQuery(base+"/"+url.PathEscape(rec.ID.String())+"/edit", state),
			DeleteURL: withQuery(base+"/"+url.PathEscape(rec.ID.String())+"/delete", state),
		}
		for _, f := range cols {
			row.Cells = append(row.Cells, cell(scr, rec, f))
		}
		p.Rows = append(p.Rows, row)
	}

	closeURL := withQuery(base+"/close", state)
	if snap := scr.Form.Snapshot(); snap.State != crud.FormClosed {
		p.Form = buildForm(scr, snap, state, closeURL)
	}
	if cst, target, cerr := scr.Confirm.Snapshot(); cst != crud.ConfirmClosed {
		label := target.Text(k.Label)
		if label == "" {
			label = "#" + target.ID.String()
		}
		p.Confirm = &confirmView{
			Label:    label,
			Action:   withQuery(base+"/"+url.PathEscape(target.ID.String())+"/delete", state),
			CloseURL: closeURL,
		}
		if cerr != nil {
			p.Confirm.Err = errMessage(cerr)
		}
	}
	return p
}

func buildForm(scr *crud.Screen, snap crud.FormSnapshot, state url.Values, closeURL string) *formView {
	k := scr.Kind()
	base := "/content/" + k.Name
	fv := &formView{
		Title:     "Add " + k.Singular,
		Submit:    "Create",
		Action:    withQuery(base, state),
		CloseURL:  closeURL,
		Multipart: k.Multipart && snap.Mode == crud.ModeCreate,
	}
	if snap.Mode == crud.ModeEdit {
		fv.Title = "Edit " + k.Singular
		fv.Submit = "Update"
		fv.Action = withQuery(base+"/"+url.PathEscape(snap.Target.String()), state)
	}

	errs := snap.FieldErrors
	if snap.Err != nil {
		fv.Err = errMessage(snap.Err)
		if backendErrs := fieldErrors(snap.Err); len(backendErrs) > 0 {
			errs = backendErrs
		}
	} else if len(errs) > 0 {
		fv.Err = "Please fix the highlighted fields."
	}

	for _, f := range k.Fields {
		field := fieldView{
			Name:     f.Name,
			Label:    f.Label,
			Type:     string(f.Type),
			Value:    snap.Draft.Values[f.Name],
			Error:    errs[f.Name],
			Required: f.Required,
		}
		switch f.Type {
		case catalog.TypeImage:
			if fv.Multipart {
				field.Upload = true
			} else {
				field.Type = string(catalog.TypeURL)
			}
		case catalog.TypeRef:
			field.Options = scr.Lookup(f.Name).Options()
		case catalog.TypeSelect:
			for _, o := range f.Options {
				field.Options = append(field.Options, crud.Option{Value: o, Label: o})
			}
		}
		fv.Fields = append(fv.Fields, field)
	}
	return fv
}

func buildDetail(scr *crud.Screen, rec domain.Record, state url.Values) *detailView {
	k := scr.Kind()
	base := "/content/" + k.Name + "/" + url.PathEscape(rec.ID.String())
	title := rec.Text(k.Label)
	if title == "" {
		title = k.Singular + " #" + rec.ID.String()
	}
	d := &detailView{
		Title:    title,
		EditURL:  withQuery(base+"/edit", state),
		CloseURL: keepURL(k.Name, state),
	}
	for _, f := range k.Fields {
		typ := string(f.Type)
		if f.Type == catalog.TypeRef {
			typ = string(catalog.TypeText)
		}
		d.Fields = append(d.Fields, detailField{Label: f.Label, Type: typ, Value: cell(scr, rec, f)})
	}
	return d
}
