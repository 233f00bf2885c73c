package cloak

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrEmptyFieldSet indicates a configuration without any fields.
	ErrEmptyFieldSet = errors.New("empty field set")

	// ErrInvalidFieldEntry indicates a field entry with an empty name or a
	// missing, empty or non-string type.
	ErrInvalidFieldEntry = errors.New("invalid field entry")

	// ErrUnknownType indicates a type tag that is not registered.
	ErrUnknownType = errors.New("unknown type")

	// ErrMissingKey indicates no encryption key could be resolved.
	ErrMissingKey = errors.New("missing encryption key")

	// ErrMissingSalt indicates no encryption salt could be resolved.
	ErrMissingSalt = errors.New("missing encryption salt")

	// ErrInvalidOption indicates an unknown algorithm, driver or encoding.
	ErrInvalidOption = errors.New("invalid option")

	// ErrMissingConfig indicates hooks built without a config.
	ErrMissingConfig = errors.New("missing config")

	// ErrMissingEncryptor indicates hooks built without an encryptor.
	ErrMissingEncryptor = errors.New("missing encryptor")

	// ErrAuthenticationFailed indicates ciphertext that fails the integrity
	// check: wrong key, corrupted data, or data not produced by this engine.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrInvalidInput indicates empty or malformed cipher input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTypeMismatch indicates a value of the wrong Go type for its field.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnparsableValue indicates a value that could not be parsed.
	ErrUnparsableValue = errors.New("unparsable value")

	// ErrShadowMismatch indicates a shadow passed with a record it was not
	// taken from.
	ErrShadowMismatch = errors.New("shadow belongs to another record")

	// ErrShadowReleased indicates a shadow that was already restored or
	// released.
	ErrShadowReleased = errors.New("shadow already released")
)

// ConfigError represents an attach-time configuration error.
// It wraps a sentinel error with the offending field and type.
type ConfigError struct {
	Err   error  // Underlying sentinel error (ErrEmptyFieldSet, etc.)
	Field string // Field name that triggered the error
	Type  string // Type tag or option value that was invalid
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Type != "" {
		return fmt.Sprintf("%s %q (field %s)", e.Err.Error(), e.Type, e.Field)
	}
	if e.Type != "" {
		return fmt.Sprintf("%s %q", e.Err.Error(), e.Type)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CipherError represents an encryption or decryption failure.
type CipherError struct {
	Err       error  // ErrAuthenticationFailed or ErrInvalidInput
	Operation string // encrypt or decrypt
	Cause     error  // Original error from the underlying primitive
}

func (e *CipherError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Err.Error(), e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Err.Error())
}

func (e *CipherError) Unwrap() error {
	return e.Err
}

// CoercionError represents a failed conversion between a native value and
// its storage representation.
type CoercionError struct {
	Err   error   // ErrTypeMismatch or ErrUnparsableValue
	Field string  // Field name, empty when raised outside a hook
	Type  TypeTag // Type tag of the field
	Value string  // Go type of the offending value
	Cause error   // Parser error, if any
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("%s: %s for %s", e.Type, e.Err.Error(), e.Value)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %s)", msg, e.Field)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError.
func newConfigError(sentinel error, field, typ string) error {
	return &ConfigError{
		Err:   sentinel,
		Field: field,
		Type:  typ,
	}
}

// newCipherError creates a CipherError.
func newCipherError(sentinel error, operation string, cause error) error {
	return &CipherError{
		Err:       sentinel,
		Operation: operation,
		Cause:     cause,
	}
}

// mismatch creates a CoercionError for a value of the wrong Go type.
func mismatch(tag TypeTag, value any) error {
	return &CoercionError{
		Err:   ErrTypeMismatch,
		Type:  tag,
		Value: fmt.Sprintf("%T", value),
	}
}

// unparsable creates a CoercionError for a value that failed to parse.
func unparsable(tag TypeTag, value any, cause error) error {
	return &CoercionError{
		Err:   ErrUnparsableValue,
		Type:  tag,
		Value: fmt.Sprintf("%T", value),
		Cause: cause,
	}
}

// withField attaches the field name to a CoercionError without mutating the
// original.
func withField(err error, field string) error {
	var ce *CoercionError
	if errors.As(err, &ce) {
		cp := *ce
		cp.Field = field
		return &cp
	}
	return err
}
