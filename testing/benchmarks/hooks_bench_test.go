package benchmarks

import (
	"context"
	"slices"
	"testing"

	"github.com/zoobzio/cloak"
	cloaktest "github.com/zoobzio/cloak/testing"
)

func noWrite(context.Context, cloak.Record) error { return nil }

func BenchmarkEngine_Encrypt(b *testing.B) {
	enc := cloaktest.TestEngine(b)
	plaintext := []byte("4111111111111111")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Encrypt(plaintext)
	}
}

func BenchmarkEngine_Decrypt(b *testing.B) {
	enc := cloaktest.TestEngine(b)
	ciphertext, _ := enc.Encrypt([]byte("4111111111111111"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Decrypt(ciphertext)
	}
}

func BenchmarkHooks_Save(b *testing.B) {
	hooks := cloaktest.TestHooks(b)
	ctx := context.Background()
	e := cloaktest.BinaryValuesEntity()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = hooks.Save(ctx, e, noWrite)
	}
}

func BenchmarkHooks_Save_XChaCha20(b *testing.B) {
	hooks := cloaktest.TestHooks(b, func(r *cloak.RawConfig) { r.Algorithm = cloak.AlgorithmXChaCha20 })
	ctx := context.Background()
	e := cloaktest.BinaryValuesEntity()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = hooks.Save(ctx, e, noWrite)
	}
}

func BenchmarkHooks_Load(b *testing.B) {
	hooks := cloaktest.TestHooks(b)
	ctx := context.Background()

	e := cloaktest.BinaryValuesEntity()
	shadow, _ := hooks.BeforeWrite(ctx, e)
	stored := e.Clone()
	shadow.Release(ctx)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = hooks.Load(ctx, stored.Clone())
	}
}

func BenchmarkHooks_BeforeRead(b *testing.B) {
	hooks := cloaktest.TestHooks(b)
	ctx := context.Background()

	rows := make([]*cloak.Entity, 100)
	for i := range rows {
		e := cloaktest.BinaryValuesEntity()
		shadow, _ := hooks.BeforeWrite(ctx, e)
		rows[i] = e.Clone()
		shadow.Release(ctx)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch := make([]cloak.Record, len(rows))
		for j, r := range rows {
			batch[j] = r.Clone()
		}
		for _, err := range hooks.BeforeRead(ctx, slices.Values(batch)) {
			_ = err
		}
	}
}

func BenchmarkHooks_Ingest(b *testing.B) {
	hooks := cloaktest.TestHooks(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := map[string]any{"type": "my-type", "number": "123456789", "expire_date": "2015-06-01"}
		_ = hooks.Ingest(ctx, data)
	}
}
