// Package catalog describes the entity kinds the console manages.
// A kind is pure configuration: its endpoint, field schema, validation rules,
// search fields and categorical filters. The CRUD engine is generic over it.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed kinds.yaml
var defaultKinds []byte

// FieldType selects how a field is edited, validated and encoded.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeTextarea FieldType = "textarea"
	TypeURL      FieldType = "url"
	TypeSlug     FieldType = "slug"
	TypeNumber   FieldType = "number"
	TypeRef      FieldType = "ref"
	TypeSelect   FieldType = "select"
	TypeImage    FieldType = "image"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeText, TypeTextarea, TypeURL, TypeSlug, TypeNumber, TypeRef, TypeSelect, TypeImage:
		return true
	}
	return false
}

// Field is one editable attribute of a kind.
type Field struct {
	Name     string    `yaml:"name"`
	Label    string    `yaml:"label"`
	Type     FieldType `yaml:"type"`
	Required bool      `yaml:"required"`
	// From names the field a slug is derived from.
	From string `yaml:"from"`
	// Ref names the kind a foreign key points at.
	Ref string `yaml:"ref"`
	// Nested is the key of the embedded foreign object some backend
	// responses carry instead of the flat id (e.g. "location").
	Nested  string   `yaml:"nested"`
	Options []string `yaml:"options"`
	Default string   `yaml:"default"`
}

// Filter is a categorical filter over a ref field. "all" means unconstrained.
type Filter struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// Kind describes one managed collection.
type Kind struct {
	Name      string   `yaml:"name"`
	Title     string   `yaml:"title"`
	Singular  string   `yaml:"singular"`
	Label     string   `yaml:"label"`
	Multipart bool     `yaml:"multipart"`
	Search    []string `yaml:"search"`
	Filters   []Filter `yaml:"filters"`
	Fields    []Field  `yaml:"fields"`
}

// Path is the backend collection path, relative to the backend base URL.
func (k Kind) Path() string { return "admin/" + k.Name }

// Field looks up a field by name.
func (k Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Refs returns the foreign-key fields in schema order.
func (k Kind) Refs() []Field {
	var out []Field
	for _, f := range k.Fields {
		if f.Type == TypeRef {
			out = append(out, f)
		}
	}
	return out
}

// Catalog is an ordered, validated set of kinds.
type Catalog struct {
	kinds  []Kind
	byName map[string]int
}

type document struct {
	Kinds []Kind `yaml:"kinds"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(string(defaultKinds)))
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML catalog. Unknown keys are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog.Load: decode: %w", err)
	}

	c := &Catalog{kinds: doc.Kinds, byName: make(map[string]int, len(doc.Kinds))}
	for i, k := range doc.Kinds {
		if k.Name == "" {
			return nil, fmt.Errorf("catalog.Load: kind #%d has no name", i+1)
		}
		if _, dup := c.byName[k.Name]; dup {
			return nil, fmt.Errorf("catalog.Load: duplicate kind %q", k.Name)
		}
		c.byName[k.Name] = i
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	return c, nil
}

// Kind looks up a kind by name.
func (c *Catalog) Kind(name string) (Kind, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Kind{}, false
	}
	return c.kinds[i], true
}

// Kinds returns all kinds in declaration order.
func (c *Catalog) Kinds() []Kind {
	out := make([]Kind, len(c.kinds))
	copy(out, c.kinds)
	return out
}

func (c *Catalog) validate() error {
	var errs []error
	for _, k := range c.kinds {
		if len(k.Fields) == 0 {
			errs = append(errs, fmt.Errorf("%s: no fields", k.Name))
			continue
		}
		if _, ok := k.Field(k.Label); !ok {
			errs = append(errs, fmt.Errorf("%s: label field %q not declared", k.Name, k.Label))
		}
		for _, s := range k.Search {
			if _, ok := k.Field(s); !ok {
				errs = append(errs, fmt.Errorf("%s: search field %q not declared", k.Name, s))
			}
		}
		seen := map[string]bool{}
		for _, f := range k.Fields {
			if seen[f.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate field %q", k.Name, f.Name))
			}
			seen[f.Name] = true
			errs = append(errs, c.validateField(k, f)...)
		}
		for _, flt := range k.Filters {
			f, ok := k.Field(flt.Field)
			if !ok || f.Type != TypeRef {
				errs = append(errs, fmt.Errorf("%s: filter %q must name a ref field", k.Name, flt.Field))
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) validateField(k Kind, f Field) []error {
	var errs []error
	if !f.Type.valid() {
		errs = append(errs, fmt.Errorf("%s.%s: unknown type %q", k.Name, f.Name, f.Type))
	}
	if f.Type == TypeSlug && f.From != "" {
		if _, ok := k.Field(f.From); !ok {
			errs = append(errs, fmt.Errorf("%s.%s: slug source %q not declared", k.Name, f.Name, f.From))
		}
	}
	if f.Type == TypeRef {
		if _, ok := c.byName[f.Ref]; !ok {
			errs = append(errs, fmt.Errorf("%s.%s: ref kind %q not declared", k.Name, f.Name, f.Ref))
		}
	}
	if f.Type == TypeSelect && len(f.Options) == 0 {
		errs = append(errs, fmt.Errorf("%s.%s: select has no options", k.Name, f.Name))
	}
	return errs
}
