package testing

import (
	"context"
	"reflect"
	"testing"

	"github.com/zoobzio/cloak"
)

func TestTestKey(t *testing.T) {
	key := TestKey(t)
	if len(key) != 32 {
		t.Errorf("TestKey() length = %d, want 32", len(key))
	}
}

func TestTestEngine(t *testing.T) {
	enc := TestEngine(t)
	if enc == nil {
		t.Fatal("TestEngine() should not return nil")
	}

	// Verify it works
	plaintext := []byte("test")
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Errorf("Encrypt() error: %v", err)
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Errorf("Decrypt() error: %v", err)
	}

	if string(decrypted) != string(plaintext) {
		t.Errorf("round-trip failed")
	}
}

func TestTestConfig_Options(t *testing.T) {
	raw := TestConfig(t, func(r *cloak.RawConfig) {
		r.Encoding = cloak.EncodingBase64
	})

	if raw.Encoding != cloak.EncodingBase64 {
		t.Errorf("Encoding = %q, want %q", raw.Encoding, cloak.EncodingBase64)
	}
	if raw.Key != TestKey(t) || raw.Salt != TestSalt(t) {
		t.Error("TestConfig() should carry the test key and salt")
	}
}

func TestTestHooks(t *testing.T) {
	h := TestHooks(t)
	e := BinaryValuesEntity()

	err := h.Save(context.Background(), e, func(context.Context, cloak.Record) error { return nil })
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if !reflect.DeepEqual(e.ToMap(), BinaryValuesData()) {
		t.Errorf("entity = %v, want %v", e.ToMap(), BinaryValuesData())
	}
}

func TestBinaryValues_FieldsMatch(t *testing.T) {
	fields, err := cloak.FieldsFor[BinaryValues]()
	if err != nil {
		t.Fatalf("FieldsFor() error: %v", err)
	}

	if !reflect.DeepEqual(fields, BinaryValuesFields()) {
		t.Errorf("FieldsFor() = %v, want %v", fields, BinaryValuesFields())
	}
}
