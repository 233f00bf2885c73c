package cloak

import (
	"context"
	"errors"
	"testing"
	"time"
)

type payment struct {
	ID       int64      `db:"id"`
	Type     string     `db:"type" cloak:"string"`
	Number   int64      `db:"number" cloak:"integer"`
	Expire   time.Time  `db:"expire_date" cloak:"date"`
	Approved *bool      `db:"approved" cloak:"boolean"`
	Note     string     `db:"-"`
	Reviewed *time.Time `db:"reviewed_at"`
}

type untagged struct {
	ID int64 `db:"id"`
}

type badTag struct {
	Amount int64 `db:"amount" cloak:"money"`
}

func TestFieldsFor(t *testing.T) {
	fields, err := FieldsFor[payment]()
	if err != nil {
		t.Fatalf("FieldsFor() error: %v", err)
	}

	want := map[string]string{
		"type":        "string",
		"number":      "integer",
		"expire_date": "date",
		"approved":    "boolean",
	}
	if len(fields) != len(want) {
		t.Fatalf("FieldsFor() = %v, want %v", fields, want)
	}
	for name, tag := range want {
		if fields[name] != tag {
			t.Errorf("fields[%s] = %v, want %s", name, fields[name], tag)
		}
	}
}

func TestFieldsFor_Errors(t *testing.T) {
	if _, err := FieldsFor[untagged](); !errors.Is(err, ErrEmptyFieldSet) {
		t.Errorf("FieldsFor[untagged]() error = %v, want ErrEmptyFieldSet", err)
	}
	if _, err := FieldsFor[badTag](); !errors.Is(err, ErrUnknownType) {
		t.Errorf("FieldsFor[badTag]() error = %v, want ErrUnknownType", err)
	}
}

func TestEntityOf(t *testing.T) {
	approved := true
	p := payment{
		ID:       1,
		Type:     "my-type",
		Number:   123456789,
		Expire:   time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC),
		Approved: &approved,
		Note:     "ignored",
	}

	e := EntityOf(&p)

	if e.Get("approved") != true {
		t.Errorf("approved = %#v, want dereferenced pointer", e.Get("approved"))
	}
	if e.Has("reviewed_at") {
		t.Error("nil pointer should be null")
	}
	if e.Has("-") || e.Has("note") {
		t.Error("excluded column should be absent")
	}
	if !e.IsNew() {
		t.Error("EntityOf should return a new entity")
	}
}

func TestBind_RoundTrip(t *testing.T) {
	fields, _ := FieldsFor[payment]()
	h := newTestHooks(t, fields)
	ctx := context.Background()

	approved := false
	p := payment{ID: 7, Type: "my-type", Number: 42, Expire: time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), Approved: &approved}
	e := EntityOf(&p)

	shadow, err := h.BeforeWrite(ctx, e)
	if err != nil {
		t.Fatalf("BeforeWrite() error: %v", err)
	}
	stored := e.Clone()
	shadow.Release(ctx)

	if err := h.Load(ctx, stored); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	var got payment
	if err := Bind(stored, &got); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}

	if got.ID != 7 || got.Type != "my-type" || got.Number != 42 {
		t.Errorf("Bind() = %+v", got)
	}
	if !got.Expire.Equal(p.Expire) {
		t.Errorf("Expire = %v, want %v", got.Expire, p.Expire)
	}
	if got.Approved == nil || *got.Approved {
		t.Errorf("Approved = %v, want false", got.Approved)
	}
	if got.Reviewed != nil {
		t.Error("Reviewed should stay nil")
	}
}

func TestBind_Convert(t *testing.T) {
	e := NewEntity(map[string]any{"id": 5, "number": int32(9)})

	var got payment
	if err := Bind(e, &got); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if got.ID != 5 || got.Number != 9 {
		t.Errorf("Bind() = %+v", got)
	}
}

func TestBind_Mismatch(t *testing.T) {
	e := NewEntity(map[string]any{"number": "not a number"})

	var got payment
	err := Bind(e, &got)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("Bind() error = %v, want ErrTypeMismatch", err)
	}

	var ce *CoercionError
	if !errors.As(err, &ce) || ce.Field != "number" || ce.Type != TypeInteger {
		t.Errorf("error = %+v, want field number of type integer", ce)
	}
}
