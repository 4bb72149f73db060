package crud

import (
	"strings"

	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/domain"
)

// All is the categorical filter value meaning "no constraint".
const All = domain.FilterAll

// Unknown is shown when a foreign id has no match in its sibling collection.
const Unknown = "Unknown"

// Predicate is an extra constraint a screen may add (e.g. status).
type Predicate func(domain.Record) bool

// Query is the filter state of a list view.
type Query struct {
	Search string
	// Filters maps a ref field name to the id it must equal, or All.
	Filters    map[string]string
	Predicates []Predicate
}

// Apply returns the records of kind k that match q, preserving order.
// It never mutates records and always returns a non-nil slice.
func Apply(k catalog.Kind, records []domain.Record, q Query) []domain.Record {
	needle := strings.ToLower(q.Search)
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if needle != "" && !matchesSearch(k, r, needle) {
			continue
		}
		if !matchesFilters(k, r, q.Filters) {
			continue
		}
		if !matchesPredicates(r, q.Predicates) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(k catalog.Kind, r domain.Record, needle string) bool {
	for _, field := range k.Search {
		if strings.Contains(strings.ToLower(r.Text(field)), needle) {
			return true
		}
	}
	return false
}

func matchesFilters(k catalog.Kind, r domain.Record, filters map[string]string) bool {
	for field, want := range filters {
		if want == "" || want == All {
			continue
		}
		f, _ := k.Field(field)
		if string(r.Ref(field, f.Nested)) != want {
			return false
		}
	}
	return true
}

func matchesPredicates(r domain.Record, preds []Predicate) bool {
	for _, p := range preds {
		if p != nil && !p(r) {
			return false
		}
	}
	return true
}

// Index resolves foreign ids of one sibling collection to display labels.
// It is built once per collection load.
type Index struct {
	labels map[domain.ID]string
	order  []domain.ID
}

// NewIndex indexes records of kind k by id, labelled by k.Label.
func NewIndex(k catalog.Kind, records []domain.Record) *Index {
	idx := &Index{labels: make(map[domain.ID]string, len(records)), order: make([]domain.ID, 0, len(records))}
	for _, r := range records {
		if _, dup := idx.labels[r.ID]; !dup {
			idx.order = append(idx.order, r.ID)
		}
		idx.labels[r.ID] = r.Text(k.Label)
	}
	return idx
}

// Label returns the display label for id, or Unknown when id is not indexed.
// A nil Index resolves everything to Unknown.
func (i *Index) Label(id domain.ID) string {
	if i == nil {
		return Unknown
	}
	if l, ok := i.labels[id]; ok {
		return l
	}
	return Unknown
}

// Option is one entry of a filter or select dropdown.
type Option struct {
	Value string
	Label string
}

// Options lists indexed records in load order, for dropdowns.
func (i *Index) Options() []Option {
	if i == nil {
		return nil
	}
	out := make([]Option, len(i.order))
	for n, id := range i.order {
		out[n] = Option{Value: string(id), Label: i.labels[id]}
	}
	return out
}
