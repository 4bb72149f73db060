package crud

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// Draft is a form's local, unsaved copy of a record's fields. Values hold the
// raw text the operator typed; Files hold uploads for image fields.
type Draft struct {
	Values map[string]string
	Files  map[string]domain.Attachment
}

// NewDraft returns an empty draft for kind k with field defaults applied.
func NewDraft(k catalog.Kind) Draft {
	d := Draft{Values: make(map[string]string, len(k.Fields)), Files: map[string]domain.Attachment{}}
	for _, f := range k.Fields {
		d.Values[f.Name] = f.Default
	}
	return d
}

// DraftFrom copies r's current values into a new draft. Foreign keys are read
// from the flat field or the nested object, whichever the backend sent.
func DraftFrom(k catalog.Kind, r domain.Record) Draft {
	d := Draft{Values: make(map[string]string, len(k.Fields)), Files: map[string]domain.Attachment{}}
	for _, f := range k.Fields {
		if f.Type == catalog.TypeRef {
			d.Values[f.Name] = string(r.Ref(f.Name, f.Nested))
			continue
		}
		d.Values[f.Name] = r.Text(f.Name)
	}
	return d
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	c := Draft{Values: make(map[string]string, len(d.Values)), Files: make(map[string]domain.Attachment, len(d.Files))}
	for k, v := range d.Values {
		c.Values[k] = v
	}
	for k, v := range d.Files {
		v.Data = append([]byte(nil), v.Data...)
		c.Files[k] = v
	}
	return c
}

// Validate checks d against k's schema and returns a message per offending
// field. An empty map means the draft may be submitted.
func Validate(k catalog.Kind, d Draft) map[string]string {
	errs := map[string]string{}
	for _, f := range k.Fields {
		value := strings.TrimSpace(d.Values[f.Name])
		_, hasFile := d.Files[f.Name]

		if value == "" {
			if f.Required && !hasFile {
				errs[f.Name] = label(f) + " is required"
			}
			continue
		}

		switch f.Type {
		case catalog.TypeSlug:
			if !ValidSlug(value) {
				errs[f.Name] = label(f) + " can only contain lowercase letters, numbers, and hyphens"
			}
		case catalog.TypeNumber:
			if _, err := parseNonNegative(value); err != nil {
				errs[f.Name] = label(f) + " must be a non-negative number"
			}
		case catalog.TypeSelect:
			if !contains(f.Options, value) {
				errs[f.Name] = fmt.Sprintf("%s must be one of: %s", label(f), strings.Join(f.Options, ", "))
			}
		}
	}
	return errs
}

// Encode turns a validated draft into the payload sent to the backend.
// Numbers become float64, numeric foreign keys become int64, and empty
// numbers and foreign keys are omitted. Text fields are always sent.
func Encode(k catalog.Kind, d Draft) domain.Payload {
	p := domain.Payload{Fields: make(map[string]any, len(k.Fields)), Files: map[string]domain.Attachment{}}
	for _, f := range k.Fields {
		value := strings.TrimSpace(d.Values[f.Name])
		switch f.Type {
		case catalog.TypeNumber:
			if n, err := parseNonNegative(value); err == nil && value != "" {
				p.Fields[f.Name] = n
			}
		case catalog.TypeRef:
			if value == "" {
				continue
			}
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				p.Fields[f.Name] = n
			} else {
				p.Fields[f.Name] = value
			}
		case catalog.TypeImage:
			if a, ok := d.Files[f.Name]; ok {
				p.Files[f.Name] = a
			} else if value != "" {
				p.Fields[f.Name] = value
			}
		default:
			p.Fields[f.Name] = value
		}
	}
	return p
}

func parseNonNegative(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative number", s)
	}
	return n, nil
}

func label(f catalog.Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
