// Package domain contains the core data types of the admin console.
// Managed content is carried as a schema-less Record whose shape is described
// by the kind catalog; read-only views (bookings, dashboard) and the audit
// log have concrete types.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is the backend-assigned record identifier. The backend issues numeric ids
// but the console treats them as opaque strings.
type ID string

func (id ID) String() string { return string(id) }

// Record is one row of a managed collection as returned by the backend.
// ID and CreatedAt are lifted out of the JSON object; every other key lands
// in Fields untouched (numbers stay json.Number).
type Record struct {
	ID        ID
	CreatedAt time.Time
	Fields    map[string]any
}

// timestampLayouts covers the formats the backend has been seen to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON decodes a backend JSON object. Both created_at and createdAt are accepted.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("domain.Record: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("domain.Record: expected object, got null")
	}

	*r = Record{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "id":
			r.ID = ID(scalarString(v))
		case "created_at", "createdAt":
			if s, ok := v.(string); ok {
				r.CreatedAt = parseTimestamp(s)
			}
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

// MarshalJSON re-emits the record in the backend's snake_case shape.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["id"] = r.ID
	if !r.CreatedAt.IsZero() {
		out["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// Text returns the display string of a scalar field, or "" when the field is
// absent, null, or not a scalar.
func (r Record) Text(field string) string {
	return scalarString(r.Fields[field])
}

// Ref resolves a foreign-key field. The flat field wins; when it is absent the
// id of the nested object under nested (e.g. "activityCategory") is used.
func (r Record) Ref(field, nested string) ID {
	if s := r.Text(field); s != "" {
		return ID(s)
	}
	if nested == "" {
		return ""
	}
	obj, ok := r.Fields[nested].(map[string]any)
	if !ok {
		return ""
	}
	return ID(scalarString(obj["id"]))
}

// Clone returns a copy whose Fields map (and nested maps) can be mutated
// without affecting r.
func (r Record) Clone() Record {
	c := Record{ID: r.ID, CreatedAt: r.CreatedAt, Fields: make(map[string]any, len(r.Fields))}
	for k, v := range r.Fields {
		c.Fields[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
