package cloak

import (
	"bytes"
	"maps"
	"sort"
)

// Record is the view of a host record the hooks operate on.
//
// Has reports whether the field is present with a non-nil value; absent and
// null fields are skipped by every hook. Clean clears change tracking.
type Record interface {
	Has(field string) bool
	Get(field string) any
	Set(field string, value any)
	Clean()
}

// FieldTracker is implemented by records that track changes per field.
// A shadow released after a failed write puts each field's flag back as it
// was before BeforeWrite.
type FieldTracker interface {
	IsDirty(field string) bool
	MarkClean(field string)
}

// Entity is a map-backed Record with change tracking.
// An Entity is not safe for concurrent use.
type Entity struct {
	values map[string]any
	dirty  map[string]bool
	isNew  bool
}

// NewEntity returns a new, unsaved entity holding a copy of values.
// Every field starts dirty.
func NewEntity(values map[string]any) *Entity {
	e := &Entity{
		values: make(map[string]any, len(values)),
		dirty:  make(map[string]bool, len(values)),
		isNew:  true,
	}
	for k, v := range values {
		e.values[k] = v
		e.dirty[k] = true
	}
	return e
}

// Has implements Record.
func (e *Entity) Has(field string) bool {
	v, ok := e.values[field]
	return ok && v != nil
}

// Get implements Record.
func (e *Entity) Get(field string) any {
	return e.values[field]
}

// Set implements Record. The field becomes dirty.
func (e *Entity) Set(field string, value any) {
	if e.values == nil {
		e.values = make(map[string]any)
	}
	if e.dirty == nil {
		e.dirty = make(map[string]bool)
	}
	e.values[field] = value
	e.dirty[field] = true
}

// Unset removes a field.
func (e *Entity) Unset(field string) {
	delete(e.values, field)
	delete(e.dirty, field)
}

// Clean implements Record.
func (e *Entity) Clean() {
	clear(e.dirty)
}

// MarkClean clears the change flag of one field.
func (e *Entity) MarkClean(field string) {
	delete(e.dirty, field)
}

// IsDirty reports whether field changed since the last Clean.
func (e *Entity) IsDirty(field string) bool {
	return e.dirty[field]
}

// Dirty returns the changed fields, sorted.
func (e *Entity) Dirty() []string {
	out := make([]string, 0, len(e.dirty))
	for k := range e.dirty {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fields returns every field name, sorted.
func (e *Entity) Fields() []string {
	out := make([]string, 0, len(e.values))
	for k := range e.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsNew reports whether the entity has never been persisted.
func (e *Entity) IsNew() bool {
	return e.isNew
}

// SetNew marks the entity as new or persisted.
func (e *Entity) SetNew(isNew bool) {
	e.isNew = isNew
}

// ToMap returns a shallow copy of the field values.
func (e *Entity) ToMap() map[string]any {
	return maps.Clone(e.values)
}

// Clone returns a copy of the entity. Byte slices are copied; other
// reference values are shared.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		values: make(map[string]any, len(e.values)),
		dirty:  maps.Clone(e.dirty),
		isNew:  e.isNew,
	}
	for k, v := range e.values {
		if b, ok := v.([]byte); ok {
			v = bytes.Clone(b)
		}
		c.values[k] = v
	}
	return c
}
