package cloak

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type converts between a native value and its storage representation.
//
// Implementations must satisfy the round-trip law: for every value v valid
// under the type, FromStorage(ToStorage(v)) equals v.
type Type interface {
	// ToStorage renders a native value as the bytes that get encrypted.
	ToStorage(value any, d Driver) ([]byte, error)

	// FromStorage parses decrypted bytes back into a native value.
	FromStorage(repr []byte, d Driver) (any, error)

	// Marshal coerces loosely typed input (form text, decoded JSON) into the
	// native value. It never encrypts.
	Marshal(raw any) (any, error)
}

var (
	typesMu sync.RWMutex
	types   = builtinTypes()
)

// RegisterType adds or replaces a type under tag.
// Configs resolve their types when built, so registration only affects
// configs built afterwards.
func RegisterType(tag TypeTag, t Type) {
	typesMu.Lock()
	defer typesMu.Unlock()
	types[tag] = t
}

// LookupType returns the type registered under tag.
func LookupType(tag TypeTag) (Type, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	t, ok := types[tag]
	return t, ok
}

// builtinTypes returns the default type registry.
func builtinTypes() map[TypeTag]Type {
	return map[TypeTag]Type{
		TypeString:     stringType{tag: TypeString},
		TypeText:       stringType{tag: TypeText},
		TypeUUID:       uuidType{},
		TypeInteger:    integerType{},
		TypeBigInteger: bigIntegerType{},
		TypeFloat:      floatType{},
		TypeBoolean:    booleanType{},
		TypeBinary:     binaryType{},
		TypeDate:       dateType{},
		TypeTime:       timeType{},
		TypeDateTime:   dateTimeType{tag: TypeDateTime},
		TypeTimestamp:  dateTimeType{tag: TypeTimestamp},
		TypeJSON:       jsonType{},
	}
}

// Storage layouts.
const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05.999999999Z07:00"
	dateTimeLayout = "2006-01-02 15:04:05.999999999-07:00"
)

// Input layouts accepted by Marshal, most specific first.
var (
	dateTimeInputLayouts = []string{
		time.RFC3339Nano,
		dateTimeLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		dateLayout,
	}
	timeInputLayouts = []string{
		timeLayout,
		"15:04:05.999999999",
		"15:04:05",
		"15:04",
	}
)

// stringType handles string and text fields.
type stringType struct {
	tag TypeTag
}

func (t stringType) ToStorage(value any, _ Driver) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, mismatch(t.tag, value)
	}
	return []byte(s), nil
}

func (t stringType) FromStorage(repr []byte, _ Driver) (any, error) {
	return string(repr), nil
}

func (t stringType) Marshal(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return nil, mismatch(t.tag, raw)
}

// uuidType handles uuid fields.
type uuidType struct{}

func (uuidType) ToStorage(value any, _ Driver) ([]byte, error) {
	id, err := toUUID(value)
	if err != nil {
		return nil, err
	}
	return []byte(id.String()), nil
}

func (uuidType) FromStorage(repr []byte, _ Driver) (any, error) {
	id, err := uuid.ParseBytes(repr)
	if err != nil {
		return nil, unparsable(TypeUUID, repr, err)
	}
	return id, nil
}

func (uuidType) Marshal(raw any) (any, error) {
	if raw == nil || raw == "" {
		return nil, nil
	}
	return toUUID(raw)
}

func toUUID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, unparsable(TypeUUID, value, err)
		}
		return id, nil
	case []byte:
		id, err := uuid.FromBytes(v)
		if err != nil {
			return uuid.Nil, unparsable(TypeUUID, value, err)
		}
		return id, nil
	}
	return uuid.Nil, mismatch(TypeUUID, value)
}

// integerType handles integer fields as int64.
type integerType struct{}

func (integerType) ToStorage(value any, _ Driver) ([]byte, error) {
	n, err := toInt64(value)
	if err != nil {
		return nil, err
	}
	return strconv.AppendInt(nil, n, 10), nil
}

func (integerType) FromStorage(repr []byte, _ Driver) (any, error) {
	n, err := strconv.ParseInt(string(repr), 10, 64)
	if err != nil {
		return nil, unparsable(TypeInteger, repr, err)
	}
	return n, nil
}

func (integerType) Marshal(raw any) (any, error) {
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if raw == nil {
		return nil, nil
	}
	return toInt64(raw)
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt64(uint64(v), value)
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt64(v, value)
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, unparsable(TypeInteger, value, fmt.Errorf("%v is not an integer", v))
		}
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, unparsable(TypeInteger, value, err)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, unparsable(TypeInteger, value, err)
		}
		return n, nil
	}
	return 0, mismatch(TypeInteger, value)
}

func uintToInt64(u uint64, value any) (int64, error) {
	if u > math.MaxInt64 {
		return 0, unparsable(TypeInteger, value, fmt.Errorf("%d overflows int64", u))
	}
	return int64(u), nil
}

// bigIntegerType handles arbitrary precision integers as *big.Int.
type bigIntegerType struct{}

func (bigIntegerType) ToStorage(value any, _ Driver) ([]byte, error) {
	n, err := toBigInt(value)
	if err != nil {
		return nil, err
	}
	return n.Append(nil, 10), nil
}

func (bigIntegerType) FromStorage(repr []byte, _ Driver) (any, error) {
	n, ok := new(big.Int).SetString(string(repr), 10)
	if !ok {
		return nil, unparsable(TypeBigInteger, repr, fmt.Errorf("invalid integer %q", repr))
	}
	return n, nil
}

func (bigIntegerType) Marshal(raw any) (any, error) {
	if raw == nil || raw == "" {
		return nil, nil
	}
	return toBigInt(raw)
}

func toBigInt(value any) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, mismatch(TypeBigInteger, value)
		}
		return v, nil
	case big.Int:
		return &v, nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
		if !ok {
			return nil, unparsable(TypeBigInteger, value, fmt.Errorf("invalid integer %q", v))
		}
		return n, nil
	}
	n, err := toInt64(value)
	if err != nil {
		return nil, mismatch(TypeBigInteger, value)
	}
	return big.NewInt(n), nil
}

// floatType handles floating point fields as float64.
type floatType struct{}

func (floatType) ToStorage(value any, _ Driver) ([]byte, error) {
	f, err := toFloat64(value)
	if err != nil {
		return nil, err
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (floatType) FromStorage(repr []byte, _ Driver) (any, error) {
	f, err := strconv.ParseFloat(string(repr), 64)
	if err != nil {
		return nil, unparsable(TypeFloat, repr, err)
	}
	return f, nil
}

func (floatType) Marshal(raw any) (any, error) {
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if raw == nil {
		return nil, nil
	}
	return toFloat64(raw)
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, unparsable(TypeFloat, value, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, unparsable(TypeFloat, value, err)
		}
		return f, nil
	}
	n, err := toInt64(value)
	if err != nil {
		return 0, mismatch(TypeFloat, value)
	}
	return float64(n), nil
}

// booleanType handles boolean fields.
type booleanType struct{}

func (booleanType) ToStorage(value any, d Driver) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, mismatch(TypeBoolean, value)
	}
	if d == DriverPostgres {
		return []byte(strconv.FormatBool(b)), nil
	}
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (booleanType) FromStorage(repr []byte, _ Driver) (any, error) {
	b, err := strconv.ParseBool(string(repr))
	if err != nil {
		return nil, unparsable(TypeBoolean, repr, err)
	}
	return b, nil
}

func (booleanType) Marshal(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return nil, nil
		case "1", "t", "true", "on", "yes":
			return true, nil
		case "0", "f", "false", "off", "no":
			return false, nil
		}
		return nil, unparsable(TypeBoolean, raw, fmt.Errorf("invalid boolean %q", v))
	}
	n, err := toInt64(raw)
	if err != nil {
		return nil, mismatch(TypeBoolean, raw)
	}
	return n != 0, nil
}

// binaryType handles opaque byte fields.
type binaryType struct{}

func (binaryType) ToStorage(value any, _ Driver) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return bytes.Clone(v), nil
	case string:
		return []byte(v), nil
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return nil, unparsable(TypeBinary, value, err)
		}
		return b, nil
	}
	return nil, mismatch(TypeBinary, value)
}

func (binaryType) FromStorage(repr []byte, _ Driver) (any, error) {
	return bytes.Clone(repr), nil
}

func (binaryType) Marshal(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, mismatch(TypeBinary, raw)
}

// dateType handles calendar dates.
type dateType struct{}

// A time.Time date value must be midnight UTC.
func (dateType) ToStorage(value any, _ Driver) ([]byte, error) {
	t, err := toTime(TypeDate, value, append([]string{dateLayout}, dateTimeInputLayouts...))
	if err != nil {
		return nil, err
	}
	if _, isString := value.(string); !isString && !isCalendarDate(t) {
		return nil, &CoercionError{
			Err:   ErrTypeMismatch,
			Type:  TypeDate,
			Value: t.String(),
			Cause: errors.New("date must be midnight UTC"),
		}
	}
	return []byte(t.Format(dateLayout)), nil
}

func isCalendarDate(t time.Time) bool {
	_, offset := t.Zone()
	return offset == 0 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func (dateType) FromStorage(repr []byte, _ Driver) (any, error) {
	t, err := time.ParseInLocation(dateLayout, string(repr), time.UTC)
	if err != nil {
		return nil, unparsable(TypeDate, repr, err)
	}
	return t, nil
}

func (dateType) Marshal(raw any) (any, error) {
	if raw == nil || raw == "" {
		return nil, nil
	}
	t, err := toTime(TypeDate, raw, append([]string{dateLayout}, dateTimeInputLayouts...))
	if err != nil {
		return nil, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// timeType handles times of day.
type timeType struct{}

func (timeType) ToStorage(value any, _ Driver) ([]byte, error) {
	t, err := toTime(TypeTime, value, timeInputLayouts)
	if err != nil {
		return nil, err
	}
	return []byte(minuteOffset(t).Format(timeLayout)), nil
}

func (timeType) FromStorage(repr []byte, _ Driver) (any, error) {
	return toTime(TypeTime, string(repr), timeInputLayouts)
}

func (timeType) Marshal(raw any) (any, error) {
	if raw == nil || raw == "" {
		return nil, nil
	}
	return toTime(TypeTime, raw, timeInputLayouts)
}

// dateTimeType handles datetime and timestamp fields.
type dateTimeType struct {
	tag TypeTag
}

func (t dateTimeType) ToStorage(value any, d Driver) ([]byte, error) {
	v, err := toTime(t.tag, value, dateTimeInputLayouts)
	if err != nil {
		return nil, err
	}
	v = minuteOffset(v)
	if d == DriverPostgres {
		return []byte(v.Format(time.RFC3339Nano)), nil
	}
	return []byte(v.Format(dateTimeLayout)), nil
}

func (t dateTimeType) FromStorage(repr []byte, _ Driver) (any, error) {
	return toTime(t.tag, string(repr), dateTimeInputLayouts)
}

func (t dateTimeType) Marshal(raw any) (any, error) {
	if raw == nil || raw == "" {
		return nil, nil
	}
	return toTime(t.tag, raw, dateTimeInputLayouts)
}

// minuteOffset converts t to UTC when its zone offset has a seconds part,
// which the storage layouts cannot represent.
func minuteOffset(t time.Time) time.Time {
	if _, offset := t.Zone(); offset%60 != 0 {
		return t.UTC()
	}
	return t
}

// toTime accepts a time.Time or parses a string against layouts in order.
// Strings without a zone are read as UTC.
func toTime(tag TypeTag, value any, layouts []string) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		s := strings.TrimSpace(v)
		var lastErr error
		for _, layout := range layouts {
			t, err := time.ParseInLocation(layout, s, time.UTC)
			if err == nil {
				return t, nil
			}
			lastErr = err
		}
		return time.Time{}, unparsable(tag, value, lastErr)
	}
	return time.Time{}, mismatch(tag, value)
}

// jsonType handles JSON documents.
type jsonType struct{}

func (jsonType) ToStorage(value any, _ Driver) ([]byte, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, unparsable(TypeJSON, value, err)
	}
	return b, nil
}

func (jsonType) FromStorage(repr []byte, _ Driver) (any, error) {
	var v any
	if err := json.Unmarshal(repr, &v); err != nil {
		return nil, unparsable(TypeJSON, repr, err)
	}
	return v, nil
}

func (jsonType) Marshal(raw any) (any, error) {
	return raw, nil
}
