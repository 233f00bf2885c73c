package cloak

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("cloak")
	sentinel.Tag("db")
}

// column maps one exported struct field to a record field.
type column struct {
	name  string
	index []int
	typ   reflect.Type
	tag   TypeTag
}

// columnsFor scans T and returns its record columns. A field's record name
// comes from its db tag, falling back to the lowercased Go name; db:"-"
// excludes it.
func columnsFor[T any]() []column {
	meta := sentinel.Scan[T]()
	cols := make([]column, 0, len(meta.Fields))
	for _, field := range meta.Fields {
		name := field.Tags["db"]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		cols = append(cols, column{
			name:  name,
			index: field.Index,
			typ:   field.ReflectType,
			tag:   TypeTag(field.Tags["cloak"]),
		})
	}
	return cols
}

// FieldsFor builds a field set from the cloak tags of struct T, for use as
// RawConfig.Fields:
//
//	type Payment struct {
//	    ID     string    `db:"id"`
//	    Number int64     `db:"number" cloak:"integer"`
//	    Expire time.Time `db:"expire_date" cloak:"date"`
//	}
//
//	raw := cloak.RawConfig{Fields: must(cloak.FieldsFor[Payment]())}
func FieldsFor[T any]() (map[string]any, error) {
	fields := make(map[string]any)
	for _, c := range columnsFor[T]() {
		if c.tag == "" {
			continue
		}
		if !IsValidType(c.tag) {
			return nil, newConfigError(ErrUnknownType, c.name, string(c.tag))
		}
		fields[c.name] = string(c.tag)
	}
	if len(fields) == 0 {
		return nil, newConfigError(ErrEmptyFieldSet, "", "")
	}
	return fields, nil
}

// EntityOf returns a new entity holding the column values of v.
// Nil pointers become absent values.
func EntityOf[T any](v *T) *Entity {
	rv := reflect.ValueOf(v).Elem()
	values := make(map[string]any)
	for _, c := range columnsFor[T]() {
		fv := rv.FieldByIndex(c.index)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				values[c.name] = nil
				continue
			}
			fv = fv.Elem()
		}
		values[c.name] = fv.Interface()
	}
	return NewEntity(values)
}

// Bind copies the entity's values into the matching columns of dst.
// Absent or nil values zero the column.
func Bind[T any](e *Entity, dst *T) error {
	rv := reflect.ValueOf(dst).Elem()
	for _, c := range columnsFor[T]() {
		fv := rv.FieldByIndex(c.index)
		if err := assign(fv, e.Get(c.name), c.tag); err != nil {
			return fmt.Errorf("bind field %s: %w", c.name, withField(err, c.name))
		}
	}
	return nil
}

// assign stores value in fv, allocating pointers and converting between
// kinds of the same family.
func assign(fv reflect.Value, value any, tag TypeTag) error {
	if value == nil {
		fv.SetZero()
		return nil
	}

	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(fv.Type()) {
		fv.Set(vv)
		return nil
	}

	target := fv
	if fv.Kind() == reflect.Pointer {
		target = reflect.New(fv.Type().Elem()).Elem()
	}

	switch {
	case vv.Type().AssignableTo(target.Type()):
		target.Set(vv)
	case sameFamily(vv.Kind(), target.Kind()) && vv.Type().ConvertibleTo(target.Type()):
		target.Set(vv.Convert(target.Type()))
	default:
		return &CoercionError{
			Err:   ErrTypeMismatch,
			Type:  tag,
			Value: fmt.Sprintf("%T", value),
			Cause: fmt.Errorf("cannot assign to %s", fv.Type()),
		}
	}

	if fv.Kind() == reflect.Pointer {
		fv.Set(target.Addr())
	}
	return nil
}

func sameFamily(a, b reflect.Kind) bool {
	return kindFamily(a) != 0 && kindFamily(a) == kindFamily(b)
}

func kindFamily(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Slice:
		return 3
	case reflect.Bool:
		return 4
	}
	return 0
}
