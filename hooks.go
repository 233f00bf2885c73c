package cloak

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"iter"
	"reflect"
	"time"
)

// Hooks applies field encryption at the lifecycle points of one record type.
//
// The host persistence layer calls BeforeWrite immediately before a write,
// AfterWrite immediately after a successful one, BeforeRead over query
// results and Ingest over raw input before it is merged into a record.
//
// Hooks are immutable after Attach and safe for concurrent use, provided
// concurrent operations work on distinct records.
type Hooks struct {
	typeName string
	config   *Config
	enc      Encryptor
}

// WriteFunc performs the underlying write of a record whose configured
// fields already hold ciphertext.
type WriteFunc func(ctx context.Context, rec Record) error

// Attach validates raw and returns the hooks for typeName.
// Key and salt fall back to defaults; pass Defaults{} to require explicit
// values, or the result of DefaultsFromEnv for the process-wide ones.
func Attach(typeName string, raw RawConfig, defaults Defaults) (*Hooks, error) {
	cfg, err := NewConfig(raw, defaults)
	if err != nil {
		return nil, err
	}
	return NewHooks(typeName, cfg)
}

// NewHooks returns hooks for an already validated config, encrypting with
// an Engine derived from the config's key and salt.
func NewHooks(typeName string, cfg *Config) (*Hooks, error) {
	enc, err := NewEngine(cfg.key, cfg.salt, cfg.algorithm)
	if err != nil {
		return nil, err
	}
	return NewHooksWithEncryptor(typeName, cfg, enc)
}

// NewHooksWithEncryptor returns hooks using a custom Encryptor.
func NewHooksWithEncryptor(typeName string, cfg *Config, enc Encryptor) (*Hooks, error) {
	if cfg == nil {
		return nil, ErrMissingConfig
	}
	if enc == nil {
		return nil, ErrMissingEncryptor
	}

	h := &Hooks{
		typeName: typeName,
		config:   cfg,
		enc:      enc,
	}

	emitHooksAttached(context.Background(), typeName, len(cfg.fields))
	return h, nil
}

// TypeName returns the record type the hooks are attached to.
func (h *Hooks) TypeName() string {
	return h.typeName
}

// Config returns the hooks' configuration.
func (h *Hooks) Config() *Config {
	return h.config
}

// staged is a field value computed before any record is modified.
type staged struct {
	field    string
	original any
	value    any
}

// BeforeWrite encrypts every configured field present on rec and returns
// the shadow holding the replaced plaintext.
//
// All fields are converted and encrypted before rec is touched, so on error
// rec is unchanged and no shadow exists.
func (h *Hooks) BeforeWrite(ctx context.Context, rec Record) (*Shadow, error) {
	start := time.Now()
	var retErr error
	var count int
	defer func() {
		emitWriteComplete(ctx, h.typeName, time.Since(start), count, retErr)
	}()

	pending := make([]staged, 0, len(h.config.fields))
	for _, f := range h.config.fields {
		if !rec.Has(f.Name) {
			continue
		}

		original := rec.Get(f.Name)
		repr, err := f.coercer.ToStorage(original, h.config.driver)
		if err != nil {
			retErr = fmt.Errorf("coerce field %s: %w", f.Name, withField(err, f.Name))
			return nil, retErr
		}

		// A stream is consumed by conversion; keep what it held.
		if _, ok := original.(io.Reader); ok {
			original = bytes.Clone(repr)
		}

		ciphertext, err := h.enc.Encrypt(repr)
		if err != nil {
			retErr = fmt.Errorf("encrypt field %s: %w", f.Name, err)
			return nil, retErr
		}

		pending = append(pending, staged{field: f.Name, original: original, value: h.encode(ciphertext)})
	}

	shadow := &Shadow{
		hooks:  h,
		record: rec,
		fields: make([]string, 0, len(pending)),
		values: make(map[string]any, len(pending)),
	}
	tracker, tracked := rec.(FieldTracker)
	for _, p := range pending {
		if tracked && !tracker.IsDirty(p.field) {
			shadow.clean = append(shadow.clean, p.field)
		}
		rec.Set(p.field, p.value)
		shadow.fields = append(shadow.fields, p.field)
		shadow.values[p.field] = p.original
	}

	count = len(pending)
	return shadow, nil
}

// AfterWrite restores the plaintext held by shadow onto rec, marks rec clean
// and discards the shadow.
//
// A nil shadow is not an error: the result is RestoreNothing when rec holds
// no configured field, and RestoreShadowMissing (with a diagnostic signal)
// when it does.
func (h *Hooks) AfterWrite(ctx context.Context, rec Record, shadow *Shadow) (RestoreStatus, error) {
	if shadow == nil {
		present := h.presentFields(rec)
		if present > 0 {
			emitShadowMissing(ctx, h.typeName, present)
			return RestoreShadowMissing, nil
		}
		emitRestoreSkipped(ctx, h.typeName)
		return RestoreNothing, nil
	}

	if shadow.released {
		return RestoreNothing, ErrShadowReleased
	}
	if !sameRecord(shadow.record, rec) {
		return RestoreNothing, ErrShadowMismatch
	}

	shadow.restore()
	rec.Clean()
	restored := len(shadow.fields)
	shadow.discard()

	emitRestoreComplete(ctx, h.typeName, restored)
	return RestoreApplied, nil
}

// Save runs one save cycle: BeforeWrite, write, then AfterWrite on success.
// The shadow is released on every exit path, so a failed write leaves rec
// with its plaintext values and no stale shadow.
func (h *Hooks) Save(ctx context.Context, rec Record, write WriteFunc) error {
	shadow, err := h.BeforeWrite(ctx, rec)
	if err != nil {
		return err
	}
	defer shadow.Release(ctx)

	if err := write(ctx, rec); err != nil {
		return err
	}

	_, err = h.AfterWrite(ctx, rec, shadow)
	return err
}

// Load decrypts every configured field present on rec and marks it clean.
// On error rec is left unchanged.
func (h *Hooks) Load(ctx context.Context, rec Record) error {
	start := time.Now()
	var retErr error
	var count int
	defer func() {
		emitLoadComplete(ctx, h.typeName, time.Since(start), count, retErr)
	}()

	pending := make([]staged, 0, len(h.config.fields))
	for _, f := range h.config.fields {
		if !rec.Has(f.Name) {
			continue
		}

		ciphertext, err := h.decode(rec.Get(f.Name))
		if err != nil {
			retErr = fmt.Errorf("decrypt field %s: %w", f.Name, err)
			return retErr
		}

		plaintext, err := h.enc.Decrypt(ciphertext)
		if err != nil {
			retErr = fmt.Errorf("decrypt field %s: %w", f.Name, err)
			return retErr
		}

		value, err := f.coercer.FromStorage(plaintext, h.config.driver)
		if err != nil {
			retErr = fmt.Errorf("coerce field %s: %w", f.Name, withField(err, f.Name))
			return retErr
		}

		pending = append(pending, staged{field: f.Name, value: value})
	}

	for _, p := range pending {
		rec.Set(p.field, p.value)
	}
	if len(pending) > 0 {
		rec.Clean()
	}

	count = len(pending)
	return nil
}

// BeforeRead returns a lazy, single-pass sequence decrypting each record of
// results as it is pulled. A record that fails to decrypt is yielded with
// its error and left unchanged; the consumer decides whether to continue.
// Nil records pass through untouched.
func (h *Hooks) BeforeRead(ctx context.Context, results iter.Seq[Record]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var total, failed int
		defer func() {
			emitReadComplete(ctx, h.typeName, total, failed)
		}()

		for rec := range results {
			total++
			if rec == nil {
				if !yield(nil, nil) {
					return
				}
				continue
			}

			err := h.Load(ctx, rec)
			if err != nil {
				failed++
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Ingest coerces the configured fields of raw input to their native types
// in place. Nothing is encrypted. On error data is left unchanged.
func (h *Hooks) Ingest(ctx context.Context, data map[string]any) error {
	var retErr error
	var count int
	defer func() {
		emitIngestComplete(ctx, h.typeName, count, retErr)
	}()

	pending := make([]staged, 0, len(h.config.fields))
	for _, f := range h.config.fields {
		raw, ok := data[f.Name]
		if !ok || raw == nil {
			continue
		}

		value, err := f.coercer.Marshal(raw)
		if err != nil {
			retErr = fmt.Errorf("marshal field %s: %w", f.Name, withField(err, f.Name))
			return retErr
		}

		pending = append(pending, staged{field: f.Name, value: value})
	}

	for _, p := range pending {
		data[p.field] = p.value
	}

	count = len(pending)
	return nil
}

// encode renders ciphertext for the record field.
func (h *Hooks) encode(ciphertext []byte) any {
	if h.config.encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(ciphertext)
	}
	return ciphertext
}

// decode extracts ciphertext bytes from a stored field value, materializing
// streams.
func (h *Hooks) decode(stored any) ([]byte, error) {
	var raw []byte
	switch v := stored.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return nil, newCipherError(ErrInvalidInput, "decrypt", err)
		}
		raw = b
	default:
		return nil, newCipherError(ErrInvalidInput, "decrypt", fmt.Errorf("unsupported stored value %T", stored))
	}

	if h.config.encoding != EncodingBase64 {
		return raw, nil
	}

	out := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(out, raw)
	if err != nil {
		return nil, newCipherError(ErrInvalidInput, "decrypt", fmt.Errorf("base64: %w", err))
	}
	return out[:n], nil
}

// presentFields counts configured fields present on rec.
func (h *Hooks) presentFields(rec Record) int {
	n := 0
	for _, f := range h.config.fields {
		if rec.Has(f.Name) {
			n++
		}
	}
	return n
}

// sameRecord reports whether a and b are the same record, without
// panicking on records of non-comparable types.
func sameRecord(a, b Record) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return !va.IsValid() && !vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	if va.Type().Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
