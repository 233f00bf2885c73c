package cloak

// TypeTag names a field type in the configuration.
// Use these constants as field types: `cloak:"integer"`
type TypeTag string

const (
	TypeString     TypeTag = "string"     // string
	TypeText       TypeTag = "text"       // string
	TypeUUID       TypeTag = "uuid"       // uuid.UUID
	TypeInteger    TypeTag = "integer"    // int64
	TypeBigInteger TypeTag = "biginteger" // *big.Int
	TypeFloat      TypeTag = "float"      // float64
	TypeBoolean    TypeTag = "boolean"    // bool
	TypeBinary     TypeTag = "binary"     // []byte
	TypeDate       TypeTag = "date"       // time.Time at midnight UTC
	TypeTime       TypeTag = "time"       // time.Time on 0000-01-01, offset kept
	TypeDateTime   TypeTag = "datetime"   // time.Time
	TypeTimestamp  TypeTag = "timestamp"  // time.Time
	TypeJSON       TypeTag = "json"       // any JSON-compatible value
)

// Algorithm represents a supported authenticated encryption scheme.
type Algorithm string

const (
	// AlgorithmAESGCM uses AES-256-GCM. This is the default.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmXChaCha20 uses XChaCha20-Poly1305.
	AlgorithmXChaCha20 Algorithm = "xchacha20-poly1305"
)

// Driver selects driver-specific storage conversion rules.
type Driver string

const (
	DriverGeneric  Driver = "generic"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Encoding controls how ciphertext is written into a record field.
type Encoding string

const (
	// EncodingBinary writes raw ciphertext bytes, for binary columns.
	EncodingBinary Encoding = "binary"

	// EncodingBase64 writes standard base64 text, for text columns.
	EncodingBase64 Encoding = "base64"
)

// validAlgorithms contains all valid algorithms for config validation.
var validAlgorithms = map[Algorithm]bool{
	AlgorithmAESGCM:    true,
	AlgorithmXChaCha20: true,
}

// validDrivers contains all valid drivers for config validation.
var validDrivers = map[Driver]bool{
	DriverGeneric:  true,
	DriverPostgres: true,
	DriverMySQL:    true,
	DriverSQLite:   true,
}

// validEncodings contains all valid encodings for config validation.
var validEncodings = map[Encoding]bool{
	EncodingBinary: true,
	EncodingBase64: true,
}

// IsValidAlgorithm returns true if the algorithm is a known scheme.
func IsValidAlgorithm(a Algorithm) bool {
	return validAlgorithms[a]
}

// IsValidDriver returns true if the driver is known.
func IsValidDriver(d Driver) bool {
	return validDrivers[d]
}

// IsValidEncoding returns true if the encoding is known.
func IsValidEncoding(e Encoding) bool {
	return validEncodings[e]
}

// IsValidType returns true if the tag is registered.
func IsValidType(tag TypeTag) bool {
	_, ok := LookupType(tag)
	return ok
}
