package cloak

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for lifecycle events.
var (
	SignalHooksAttached   = capitan.NewSignal("cloak.hooks.attached", "Hooks attached to a record type")
	SignalWriteComplete   = capitan.NewSignal("cloak.write.complete", "Pre-persist encryption finished")
	SignalRestoreComplete = capitan.NewSignal("cloak.restore.complete", "Post-persist plaintext restored")
	SignalRestoreSkipped  = capitan.NewSignal("cloak.restore.skipped", "Post-persist had nothing to restore")
	SignalShadowMissing   = capitan.NewSignal("cloak.restore.shadow-missing", "Post-persist expected a shadow but none was given")
	SignalShadowReleased  = capitan.NewSignal("cloak.shadow.released", "Shadow released without a successful write")
	SignalLoadComplete    = capitan.NewSignal("cloak.load.complete", "Record decryption finished")
	SignalReadComplete    = capitan.NewSignal("cloak.read.complete", "Result set decryption finished")
	SignalIngestComplete  = capitan.NewSignal("cloak.ingest.complete", "Input normalization finished")
)

// Keys for typed event data.
var (
	KeyTypeName        = capitan.NewStringKey("type_name")
	KeyDuration        = capitan.NewDurationKey("duration")
	KeyError           = capitan.NewErrorKey("error")
	KeyFieldCount      = capitan.NewIntKey("field_count")
	KeyEncryptedCount  = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount  = capitan.NewIntKey("decrypted_count")
	KeyRestoredCount   = capitan.NewIntKey("restored_count")
	KeyNormalizedCount = capitan.NewIntKey("normalized_count")
	KeyRecordCount     = capitan.NewIntKey("record_count")
	KeyFailedCount     = capitan.NewIntKey("failed_count")
)

// emitHooksAttached emits an event when hooks are attached.
func emitHooksAttached(ctx context.Context, typeName string, fields int) {
	capitan.Emit(ctx, SignalHooksAttached,
		KeyTypeName.Field(typeName),
		KeyFieldCount.Field(fields),
	)
}

// emitWriteComplete emits an event when pre-persist finishes.
func emitWriteComplete(ctx context.Context, typeName string, duration time.Duration, encrypted int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyEncryptedCount.Field(encrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalWriteComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalWriteComplete, fields...)
	}
}

// emitRestoreComplete emits an event when post-persist restores values.
func emitRestoreComplete(ctx context.Context, typeName string, restored int) {
	capitan.Emit(ctx, SignalRestoreComplete,
		KeyTypeName.Field(typeName),
		KeyRestoredCount.Field(restored),
	)
}

// emitRestoreSkipped emits an event when post-persist has nothing to do.
func emitRestoreSkipped(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalRestoreSkipped,
		KeyTypeName.Field(typeName),
	)
}

// emitShadowMissing emits an event when configured fields are present but
// no shadow was handed to post-persist.
func emitShadowMissing(ctx context.Context, typeName string, present int) {
	capitan.Emit(ctx, SignalShadowMissing,
		KeyTypeName.Field(typeName),
		KeyFieldCount.Field(present),
	)
}

// emitShadowReleased emits an event when a shadow is released unused.
func emitShadowReleased(ctx context.Context, typeName string, restored int) {
	capitan.Emit(ctx, SignalShadowReleased,
		KeyTypeName.Field(typeName),
		KeyRestoredCount.Field(restored),
	)
}

// emitLoadComplete emits an event when a record has been decrypted.
func emitLoadComplete(ctx context.Context, typeName string, duration time.Duration, decrypted int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyDecryptedCount.Field(decrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalLoadComplete, fields...)
	}
}

// emitReadComplete emits an event when a result set has been consumed.
func emitReadComplete(ctx context.Context, typeName string, records, failed int) {
	capitan.Emit(ctx, SignalReadComplete,
		KeyTypeName.Field(typeName),
		KeyRecordCount.Field(records),
		KeyFailedCount.Field(failed),
	)
}

// emitIngestComplete emits an event when input normalization finishes.
func emitIngestComplete(ctx context.Context, typeName string, normalized int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyNormalizedCount.Field(normalized),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalIngestComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalIngestComplete, fields...)
	}
}
