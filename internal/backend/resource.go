package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/crud"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Resource performs CRUD calls for one entity kind at /admin/{kind}.
type Resource struct {
	client *Client
	kind   catalog.Kind
}

var _ crud.Resource = (*Resource)(nil)

// Kind returns the Resource for k.
func (c *Client) Kind(k catalog.Kind) *Resource {
	return &Resource{client: c, kind: k}
}

// Resource satisfies crud.Resolver.
func (c *Client) Resource(k catalog.Kind) crud.Resource {
	return c.Kind(k)
}

func (r *Resource) itemPath(id domain.ID) string {
	return r.kind.Path() + "/" + url.PathEscape(string(id))
}

// List fetches the whole collection.
func (r *Resource) List(ctx context.Context) ([]domain.Record, error) {
	resp, err := r.client.do(ctx, request{method: http.MethodGet, path: r.kind.Path()})
	if err != nil {
		return nil, fmt.Errorf("backend.Resource.List %s: %w", r.kind.Name, err)
	}
	records, err := decode[[]domain.Record](resp.body)
	if err != nil {
		return nil, fmt.Errorf("backend.Resource.List %s: %w", r.kind.Name, err)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// Get fetches one record.
func (r *Resource) Get(ctx context.Context, id domain.ID) (domain.Record, error) {
	resp, err := r.client.do(ctx, request{method: http.MethodGet, path: r.itemPath(id)})
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Get %s/%s: %w", r.kind.Name, id, err)
	}
	rec, err := decode[domain.Record](resp.body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Get %s/%s: %w", r.kind.Name, id, err)
	}
	return rec, nil
}

// Create posts a new record and returns the backend's version of it. Kinds
// marked multipart are sent as multipart/form-data with any file parts;
// everything else is JSON.
func (r *Resource) Create(ctx context.Context, p domain.Payload) (domain.Record, error) {
	var (
		resp response
		err  error
	)
	if r.kind.Multipart {
		var body *bytes.Buffer
		var contentType string
		body, contentType, err = encodeMultipart(p)
		if err != nil {
			return domain.Record{}, fmt.Errorf("backend.Resource.Create %s: %w", r.kind.Name, err)
		}
		resp, err = r.client.do(ctx, request{method: http.MethodPost, path: r.kind.Path(), body: body, contentType: contentType})
	} else {
		resp, err = r.client.sendJSON(ctx, http.MethodPost, r.kind.Path(), p.Fields)
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Create %s: %w", r.kind.Name, err)
	}
	rec, err := decode[domain.Record](resp.body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Create %s: %w", r.kind.Name, err)
	}
	return rec, nil
}

// Update replaces the record's fields with a JSON PUT.
func (r *Resource) Update(ctx context.Context, id domain.ID, fields map[string]any) (domain.Record, error) {
	resp, err := r.client.sendJSON(ctx, http.MethodPut, r.itemPath(id), fields)
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Update %s/%s: %w", r.kind.Name, id, err)
	}
	rec, err := decode[domain.Record](resp.body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("backend.Resource.Update %s/%s: %w", r.kind.Name, id, err)
	}
	return rec, nil
}

// Delete removes the record permanently.
func (r *Resource) Delete(ctx context.Context, id domain.ID) error {
	if _, err := r.client.do(ctx, request{method: http.MethodDelete, path: r.itemPath(id)}); err != nil {
		return fmt.Errorf("backend.Resource.Delete %s/%s: %w", r.kind.Name, id, err)
	}
	return nil
}

func encodeMultipart(p domain.Payload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(p.Fields))
	for name := range p.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, formValue(p.Fields[name])); err != nil {
			return nil, "", err
		}
	}

	files := make([]string, 0, len(p.Files))
	for name := range p.Files {
		files = append(files, name)
	}
	sort.Strings(files)
	for _, name := range files {
		a := p.Files[name]
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, a.Filename))
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func formValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
