// Package testing provides test utilities for cloak.
package testing

import (
	"testing"
	"time"

	"github.com/zoobzio/cloak"
)

// TestKey returns a fixed encryption key for testing.
func TestKey(_ testing.TB) string {
	return "32-byte-key-for-aes-256-encrypt!"
}

// TestSalt returns a fixed encryption salt for testing.
func TestSalt(_ testing.TB) string {
	return "cloak-test-salt"
}

// BinaryValuesFields is the field set of the BinaryValues fixture.
func BinaryValuesFields() map[string]any {
	return map[string]any{
		"type":        "string",
		"number":      "integer",
		"expire_date": "date",
	}
}

// TestConfig returns a raw config for the BinaryValues fixture, keyed with
// TestKey and TestSalt. Options override the defaults.
func TestConfig(tb testing.TB, opts ...func(*cloak.RawConfig)) cloak.RawConfig {
	tb.Helper()
	raw := cloak.RawConfig{
		Fields: BinaryValuesFields(),
		Key:    TestKey(tb),
		Salt:   TestSalt(tb),
	}
	for _, opt := range opts {
		opt(&raw)
	}
	return raw
}

// TestHooks attaches hooks for the BinaryValues fixture.
func TestHooks(tb testing.TB, opts ...func(*cloak.RawConfig)) *cloak.Hooks {
	tb.Helper()
	h, err := cloak.Attach("binary_values", TestConfig(tb, opts...), cloak.Defaults{})
	if err != nil {
		tb.Fatalf("Attach() error: %v", err)
	}
	return h
}

// TestEngine returns an engine keyed with TestKey and TestSalt.
func TestEngine(tb testing.TB) *cloak.Engine {
	tb.Helper()
	e, err := cloak.NewEngine([]byte(TestKey(tb)), []byte(TestSalt(tb)), cloak.AlgorithmAESGCM)
	if err != nil {
		tb.Fatalf("NewEngine() error: %v", err)
	}
	return e
}

// BinaryValues is the struct form of the fixture record.
type BinaryValues struct {
	ID     string    `db:"id"`
	Type   string    `db:"type" cloak:"string"`
	Number int64     `db:"number" cloak:"integer"`
	Expire time.Time `db:"expire_date" cloak:"date"`
}

// BinaryValuesData returns the plaintext of a fixture record.
func BinaryValuesData() map[string]any {
	return map[string]any{
		"id":          1,
		"type":        "my-type",
		"number":      123456789,
		"expire_date": "2015-06-01",
	}
}

// BinaryValuesEntity returns a new entity holding BinaryValuesData.
func BinaryValuesEntity() *cloak.Entity {
	return cloak.NewEntity(BinaryValuesData())
}
