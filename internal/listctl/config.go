// Package listctl implements the list controller shared by every back-office
// entity: a free-text filter, a single-column sort, pagination, column
// visibility and add/edit/delete dialogs over an in-memory or remote-backed
// collection.
package listctl

import (
	"errors"
	"time"
)

// Kind selects the comparator and formatter used for a field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
	KindBool
)

// Strategy controls how a remote-backed controller reconciles its cache
// after a mutation.
type Strategy int

const (
	// StrategyRefetch awaits the mutation and reloads the full collection.
	StrategyRefetch Strategy = iota
	// StrategyPatch applies the server response to the local collection.
	StrategyPatch
)

// DefaultPageSizes lists the page sizes offered when a config omits them.
var DefaultPageSizes = []int{10, 25, 50, 100}

// Field describes one column of an entity.
type Field[E any] struct {
	Key   string
	Label string
	Kind  Kind
	Value func(E) any
	// Compare overrides the kind comparator when set.
	Compare func(a, b E) int
}

// Config parameterises a Controller for one entity type.
type Config[E any] struct {
	// Entity is the plural resource name, used for export filenames.
	Entity     string
	Fields     []Field[E]
	Searchable []string

	ID     func(E) string
	WithID func(E, string) (E, error)
	NextID IDGenerator

	// Stamp sets creation audit fields on locally created entities.
	Stamp func(E, time.Time) E
	// Touch refreshes updatedAt after an edit.
	Touch func(E, time.Time) E

	PageSizes       []int
	DefaultPageSize int
	ExportColumns   []string
	Strategy        Strategy

	Now func() time.Time
}

func (c Config[E]) validate() error {
	if c.ID == nil {
		return errors.New("listctl: config requires an ID accessor")
	}
	if len(c.Fields) == 0 {
		return errors.New("listctl: config requires at least one field")
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Key == "" || f.Value == nil {
			return errors.New("listctl: field requires a key and a value accessor")
		}
		if _, dup := seen[f.Key]; dup {
			return errors.New("listctl: duplicate field " + f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	for _, key := range c.Searchable {
		if _, ok := seen[key]; !ok {
			return errors.New("listctl: searchable field " + key + " is not declared")
		}
	}
	for _, key := range c.ExportColumns {
		if _, ok := seen[key]; !ok {
			return errors.New("listctl: export column " + key + " is not declared")
		}
	}
	return nil
}

func (c Config[E]) withDefaults() Config[E] {
	if len(c.PageSizes) == 0 {
		c.PageSizes = DefaultPageSizes
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = c.PageSizes[0]
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Field returns the field declared under key.
func (c Config[E]) Field(key string) (Field[E], bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field[E]{}, false
}

// Exported returns the export columns in order, defaulting to every field.
func (c Config[E]) Exported() []Field[E] {
	if len(c.ExportColumns) == 0 {
		return c.Fields
	}
	out := make([]Field[E], 0, len(c.ExportColumns))
	for _, key := range c.ExportColumns {
		if f, ok := c.Field(key); ok {
			out = append(out, f)
		}
	}
	return out
}
