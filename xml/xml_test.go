package xml

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/zoobzio/cloak"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/xml" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/xml")
	}
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<config key="k" salt="s" algorithm="xchacha20-poly1305">
	<field name="number" type="integer"/>
	<field name="expire_date" type="date"/>
</config>`)

	raw, err := cloak.ParseConfig(New(), doc)
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}

	cfg, err := cloak.NewConfig(raw, cloak.Defaults{})
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}

	fields := cfg.Fields()
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if fields[0].Name != "expire_date" || fields[0].Type != cloak.TypeDate {
		t.Errorf("fields[0] = %+v, want expire_date/date", fields[0])
	}
	if cfg.Algorithm() != cloak.AlgorithmXChaCha20 {
		t.Errorf("Algorithm() = %q, want %q", cfg.Algorithm(), cloak.AlgorithmXChaCha20)
	}
}

func TestParseConfig_MissingType(t *testing.T) {
	doc := []byte(`<config key="k" salt="s"><field name="number"/></config>`)

	raw, err := cloak.ParseConfig(New(), doc)
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}

	_, err = cloak.NewConfig(raw, cloak.Defaults{})
	if !errors.Is(err, cloak.ErrInvalidFieldEntry) {
		t.Errorf("NewConfig() error = %v, want ErrInvalidFieldEntry", err)
	}
}

func TestParseConfig_DuplicateField(t *testing.T) {
	doc := []byte(`<config><field name="number" type="integer"/><field name="number" type="string"/></config>`)

	_, err := cloak.ParseConfig(New(), doc)
	if !errors.Is(err, cloak.ErrInvalidFieldEntry) {
		t.Errorf("ParseConfig() error = %v, want ErrInvalidFieldEntry", err)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := cloak.ParseConfig(New(), []byte("<config><field"))
	if err == nil {
		t.Error("ParseConfig(invalid) should return error")
	}
}

func TestMarshalConfig_Document(t *testing.T) {
	data, err := cloak.MarshalConfig(New(), cloak.RawConfig{
		Fields: map[string]any{"type": "string", "number": cloak.TypeInteger},
		Driver: cloak.DriverMySQL,
	})
	if err != nil {
		t.Fatalf("MarshalConfig() error: %v", err)
	}

	want := `<config driver="mysql"><field name="number" type="integer"></field><field name="type" type="string"></field></config>`
	if string(data) != want {
		t.Errorf("MarshalConfig() = %s, want %s", data, want)
	}
}

func TestMarshalConfig_NonStringEntry(t *testing.T) {
	_, err := cloak.MarshalConfig(New(), cloak.RawConfig{Fields: map[string]any{"number": 7}})
	if !errors.Is(err, cloak.ErrInvalidFieldEntry) {
		t.Errorf("MarshalConfig() error = %v, want ErrInvalidFieldEntry", err)
	}
	if err != nil && !strings.Contains(err.Error(), "number") {
		t.Errorf("error %q should name the field", err)
	}
}

func TestMarshalConfig_RoundTrip(t *testing.T) {
	cfg, err := cloak.NewConfig(cloak.RawConfig{
		Fields:    map[string]any{"number": "integer", "expire_date": "date"},
		Key:       "k",
		Salt:      "s",
		Algorithm: cloak.AlgorithmXChaCha20,
		Driver:    cloak.DriverPostgres,
	}, cloak.Defaults{})
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}

	data, err := cloak.MarshalConfig(New(), cfg.Raw())
	if err != nil {
		t.Fatalf("MarshalConfig() error: %v", err)
	}

	raw, err := cloak.ParseConfig(New(), data)
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}
	if raw.Key != "" || raw.Salt != "" {
		t.Errorf("rendered config carries key %q salt %q", raw.Key, raw.Salt)
	}

	restored, err := cloak.NewConfig(raw, cloak.Defaults{Key: "k", Salt: "s"})
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}
	if !reflect.DeepEqual(restored.Raw(), cfg.Raw()) {
		t.Errorf("round-trip = %+v, want %+v", restored.Raw(), cfg.Raw())
	}
}
