package cloak

import (
	"fmt"
	"sort"

	"github.com/caarlos0/env/v11"
)

// Process-wide lookup keys for the default key and salt.
const (
	DefaultKeyEnv  = "APP_ENCRYPT_KEY"
	DefaultSaltEnv = "APP_ENCRYPT_SALT"
)

// RawConfig is the loosely typed attach-time configuration.
//
// Fields maps a field name to its type tag. Values are typed any so that
// decoded documents carrying non-string entries are rejected with
// ErrInvalidFieldEntry rather than silently coerced.
type RawConfig struct {
	Fields    map[string]any `json:"fields" yaml:"fields" msgpack:"fields" bson:"fields"`
	Key       string         `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty" bson:"key,omitempty"`
	Salt      string         `json:"salt,omitempty" yaml:"salt,omitempty" msgpack:"salt,omitempty" bson:"salt,omitempty"`
	Algorithm Algorithm      `json:"algorithm,omitempty" yaml:"algorithm,omitempty" msgpack:"algorithm,omitempty" bson:"algorithm,omitempty"`
	Driver    Driver         `json:"driver,omitempty" yaml:"driver,omitempty" msgpack:"driver,omitempty" bson:"driver,omitempty"`
	Encoding  Encoding       `json:"encoding,omitempty" yaml:"encoding,omitempty" msgpack:"encoding,omitempty" bson:"encoding,omitempty"`
}

// Defaults holds the process-wide key and salt used when a RawConfig
// leaves them empty. The zero value provides no fallback.
type Defaults struct {
	Key  string `env:"KEY"`
	Salt string `env:"SALT"`
}

// DefaultsFromEnv reads APP_ENCRYPT_KEY and APP_ENCRYPT_SALT.
// Missing variables leave the corresponding field empty; NewConfig reports
// them when the config relies on the fallback.
func DefaultsFromEnv() (Defaults, error) {
	var d Defaults
	if err := env.ParseWithOptions(&d, env.Options{Prefix: "APP_ENCRYPT_"}); err != nil {
		return Defaults{}, fmt.Errorf("error getting encryption defaults from env: %w", err)
	}
	return d, nil
}

// FieldSpec describes one encrypted field.
type FieldSpec struct {
	Name string
	Type TypeTag

	coercer Type
}

// Coercer returns the type resolved for the field when the config was built.
func (f FieldSpec) Coercer() Type {
	return f.coercer
}

// Config is the validated, immutable configuration for one record type.
// It is safe for concurrent read-only use.
type Config struct {
	fields    []FieldSpec
	index     map[string]int
	key       []byte
	salt      []byte
	algorithm Algorithm
	driver    Driver
	encoding  Encoding
}

// NewConfig validates raw and resolves key and salt, falling back to
// defaults for whichever raw leaves empty. Resolution happens once here.
//
// Fields are ordered by name.
func NewConfig(raw RawConfig, defaults Defaults) (*Config, error) {
	if len(raw.Fields) == 0 {
		return nil, newConfigError(ErrEmptyFieldSet, "", "")
	}

	names := make([]string, 0, len(raw.Fields))
	for name := range raw.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := &Config{
		fields: make([]FieldSpec, 0, len(names)),
		index:  make(map[string]int, len(names)),
	}

	for _, name := range names {
		if name == "" {
			return nil, newConfigError(ErrInvalidFieldEntry, "", "")
		}
		tagStr, ok := raw.Fields[name].(string)
		if !ok {
			// TypeTag values come from typed callers and decoded documents alike.
			tag, isTag := raw.Fields[name].(TypeTag)
			if !isTag {
				return nil, newConfigError(ErrInvalidFieldEntry, name, fmt.Sprintf("%T", raw.Fields[name]))
			}
			tagStr = string(tag)
		}
		if tagStr == "" {
			return nil, newConfigError(ErrInvalidFieldEntry, name, "")
		}

		coercer, ok := LookupType(TypeTag(tagStr))
		if !ok {
			return nil, newConfigError(ErrUnknownType, name, tagStr)
		}

		cfg.index[name] = len(cfg.fields)
		cfg.fields = append(cfg.fields, FieldSpec{Name: name, Type: TypeTag(tagStr), coercer: coercer})
	}

	key := raw.Key
	if key == "" {
		key = defaults.Key
	}
	if key == "" {
		return nil, newConfigError(ErrMissingKey, "", DefaultKeyEnv)
	}

	salt := raw.Salt
	if salt == "" {
		salt = defaults.Salt
	}
	if salt == "" {
		return nil, newConfigError(ErrMissingSalt, "", DefaultSaltEnv)
	}

	cfg.key = []byte(key)
	cfg.salt = []byte(salt)

	cfg.algorithm = raw.Algorithm
	if cfg.algorithm == "" {
		cfg.algorithm = AlgorithmAESGCM
	}
	if !IsValidAlgorithm(cfg.algorithm) {
		return nil, newConfigError(ErrInvalidOption, "", string(cfg.algorithm))
	}

	cfg.driver = raw.Driver
	if cfg.driver == "" {
		cfg.driver = DriverGeneric
	}
	if !IsValidDriver(cfg.driver) {
		return nil, newConfigError(ErrInvalidOption, "", string(cfg.driver))
	}

	cfg.encoding = raw.Encoding
	if cfg.encoding == "" {
		cfg.encoding = EncodingBinary
	}
	if !IsValidEncoding(cfg.encoding) {
		return nil, newConfigError(ErrInvalidOption, "", string(cfg.encoding))
	}

	return cfg, nil
}

// Fields returns the configured fields in order.
func (c *Config) Fields() []FieldSpec {
	out := make([]FieldSpec, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field returns the FieldSpec for name.
func (c *Config) Field(name string) (FieldSpec, bool) {
	i, ok := c.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return c.fields[i], true
}

// Raw returns the field set and options of c as a RawConfig. Key and salt
// are left empty so the result can be rendered and shared.
func (c *Config) Raw() RawConfig {
	fields := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		fields[f.Name] = string(f.Type)
	}
	return RawConfig{
		Fields:    fields,
		Algorithm: c.algorithm,
		Driver:    c.driver,
		Encoding:  c.encoding,
	}
}

// Algorithm returns the encryption scheme for new ciphertext.
func (c *Config) Algorithm() Algorithm { return c.algorithm }

// Driver returns the storage conversion rules in use.
func (c *Config) Driver() Driver { return c.driver }

// Encoding returns how ciphertext is written into records.
func (c *Config) Encoding() Encoding { return c.encoding }
