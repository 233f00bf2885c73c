package cloak

import "context"

// RestoreStatus reports what AfterWrite did.
type RestoreStatus int

const (
	// RestoreApplied means plaintext values were restored from a shadow.
	RestoreApplied RestoreStatus = iota

	// RestoreNothing means no shadow was given and the record carries no
	// configured field, so there was nothing to restore.
	RestoreNothing

	// RestoreShadowMissing means no shadow was given although the record
	// carries configured fields. The record may still hold ciphertext.
	RestoreShadowMissing
)

func (s RestoreStatus) String() string {
	switch s {
	case RestoreApplied:
		return "applied"
	case RestoreNothing:
		return "nothing"
	case RestoreShadowMissing:
		return "shadow-missing"
	}
	return "unknown"
}

// Shadow holds the plaintext values replaced by BeforeWrite for one record
// and one save. It is owned by the save operation: pass it to AfterWrite on
// success, and Release it on every exit path. A Shadow is not safe for
// concurrent use.
type Shadow struct {
	hooks    *Hooks
	record   Record
	fields   []string
	values   map[string]any
	clean    []string
	released bool
}

// Len returns the number of shadowed fields.
func (s *Shadow) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns the shadowed field names in write order.
func (s *Shadow) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Value returns the original value of a shadowed field.
func (s *Shadow) Value(field string) (any, bool) {
	if s == nil || s.released {
		return nil, false
	}
	v, ok := s.values[field]
	return v, ok
}

// Active reports whether the shadow still holds values, i.e. BeforeWrite
// ran and neither AfterWrite nor Release has.
func (s *Shadow) Active() bool {
	return s != nil && !s.released
}

// Release discards the shadow on a failed or abandoned write. The record's
// plaintext values are put back so it is never left holding ciphertext.
// When the record implements FieldTracker, fields that were clean before
// BeforeWrite are clean again.
// Release is idempotent and a no-op after AfterWrite.
func (s *Shadow) Release(ctx context.Context) {
	if !s.Active() {
		return
	}
	s.restore()
	if tr, ok := s.record.(FieldTracker); ok {
		for _, field := range s.clean {
			tr.MarkClean(field)
		}
	}
	s.discard()
	if s.hooks != nil {
		emitShadowReleased(ctx, s.hooks.typeName, len(s.fields))
	}
}

// restore puts every original value back on the record.
func (s *Shadow) restore() {
	for _, field := range s.fields {
		s.record.Set(field, s.values[field])
	}
}

// discard drops the plaintext references.
func (s *Shadow) discard() {
	clear(s.values)
	s.values = nil
	s.clean = nil
	s.released = true
}
