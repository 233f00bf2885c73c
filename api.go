// Package cloak provides transparent field-level authenticated encryption
// for persisted records.
//
// A record type declares which of its fields are sensitive and what native
// type each holds. Hooks attached to that type encrypt those fields just
// before a write, put the plaintext back right after it, decrypt them when
// records are read and coerce raw input to native types. Application code
// only ever sees plaintext; storage only ever sees ciphertext.
//
// # Field Configuration
//
// Fields are declared as a map of field name to type tag:
//
//	raw := cloak.RawConfig{
//	    Fields: map[string]any{
//	        "number":      "integer",
//	        "expire_date": "date",
//	    },
//	    Key:  os.Getenv("PAYMENT_KEY"),
//	    Salt: os.Getenv("PAYMENT_SALT"),
//	}
//
// Key and salt fall back to process-wide defaults, read from
// APP_ENCRYPT_KEY and APP_ENCRYPT_SALT by DefaultsFromEnv. Configuration
// documents are read with ParseConfig and written with MarshalConfig using
// the json, yaml, xml, msgpack or bson subpackages. Struct types can
// derive their field set from cloak tags with FieldsFor.
//
// # Lifecycle
//
//	defaults, err := cloak.DefaultsFromEnv()
//	hooks, err := cloak.Attach("payment", raw, defaults)
//
//	// Save: encrypt, write, restore.
//	err = hooks.Save(ctx, rec, func(ctx context.Context, rec cloak.Record) error {
//	    return db.Write(ctx, rec)
//	})
//
//	// Read: decrypt lazily while iterating.
//	for rec, err := range hooks.BeforeRead(ctx, rows) {
//	    ...
//	}
//
//	// Ingest: coerce raw input before assignment.
//	err = hooks.Ingest(ctx, input)
//
// BeforeWrite and AfterWrite can be called directly when the host drives the
// write itself. BeforeWrite returns a Shadow holding the replaced plaintext;
// hand it to AfterWrite on success and Release it on every exit path.
//
// # Types
//
// Built-in type tags: string, text, uuid, integer, biginteger, float,
// boolean, binary, date, time, datetime, timestamp, json. Custom types are
// added with RegisterType. Boolean and datetime storage representations
// depend on the configured Driver.
//
// # Ciphertext
//
// Every ciphertext starts with a one-byte scheme version, followed by a
// random nonce and the AEAD output. AES-256-GCM (version 1) and
// XChaCha20-Poly1305 (version 2) are supported; both are always accepted on
// decrypt, so records written under either scheme stay readable. Per-scheme
// keys are derived from the configured key and salt with HKDF-SHA256.
//
// # Observability
//
// Lifecycle events are emitted as capitan signals (see signals.go).
package cloak
