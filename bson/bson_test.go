package bson

import (
	"errors"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

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
	if c.ContentType() != "application/bson" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/bson")
	}
}

func TestParseConfig(t *testing.T) {
	doc, err := bson.Marshal(bson.M{
		"fields":    bson.M{"number": "integer", "expire_date": "date"},
		"key":       "k",
		"salt":      "s",
		"algorithm": "xchacha20-poly1305",
	})
	if err != nil {
		t.Fatalf("bson.Marshal() error: %v", err)
	}

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

func TestParseConfig_NonStringEntry(t *testing.T) {
	doc, err := bson.Marshal(bson.M{
		"fields": bson.M{"number": int32(7)},
		"key":    "k",
		"salt":   "s",
	})
	if err != nil {
		t.Fatalf("bson.Marshal() error: %v", err)
	}

	raw, err := cloak.ParseConfig(New(), doc)
	if err != nil {
		t.Fatalf("ParseConfig() error: %v", err)
	}

	_, err = cloak.NewConfig(raw, cloak.Defaults{})
	if !errors.Is(err, cloak.ErrInvalidFieldEntry) {
		t.Errorf("NewConfig() error = %v, want ErrInvalidFieldEntry", err)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := cloak.ParseConfig(New(), []byte("not bson"))
	if err == nil {
		t.Error("ParseConfig(invalid) should return error")
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
