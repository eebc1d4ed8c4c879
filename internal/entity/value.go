package entity

import (
	"bytes"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type valueKind uint8

const (
	valueNull valueKind = iota
	valueString
	valueNumber
	valueBool
	valueOther
)

// Value is a JSON scalar the backend may send either as a string or as a number
// (amounts, worths, timestamps). It keeps the raw text so the mapper decides how
// to coerce it.
type Value struct {
	raw  string
	kind valueKind
}

// StringValue wraps s as a JSON string.
func StringValue(s string) Value {
	return Value{raw: s, kind: valueString}
}

// NumberValue wraps f as a JSON number.
func NumberValue(f float64) Value {
	return Value{raw: strconv.FormatFloat(f, 'f', -1, 64), kind: valueNumber}
}

// IntValue wraps i as a JSON number.
func IntValue(i int64) Value {
	return Value{raw: strconv.FormatInt(i, 10), kind: valueNumber}
}

// IsNull reports whether the value was absent or JSON null.
func (v Value) IsNull() bool { return v.kind == valueNull }

// IsNumber reports whether the value was sent as a JSON number.
func (v Value) IsNumber() bool { return v.kind == valueNumber }

// IsString reports whether the value was sent as a JSON string.
func (v Value) IsString() bool { return v.kind == valueString }

// Raw returns the unquoted text of the value; empty for null.
func (v Value) Raw() string {
	if v.kind == valueNull {
		return ""
	}
	return v.raw
}

// String implements fmt.Stringer.
func (v Value) String() string { return v.Raw() }

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*v = Value{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = Value{raw: s, kind: valueString}
	case bytes.Equal(trimmed, []byte("true")) || bytes.Equal(trimmed, []byte("false")):
		*v = Value{raw: string(trimmed), kind: valueBool}
	case trimmed[0] == '{' || trimmed[0] == '[':
		*v = Value{raw: string(trimmed), kind: valueOther}
	default:
		*v = Value{raw: string(trimmed), kind: valueNumber}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNull:
		return []byte("null"), nil
	case valueString:
		return json.Marshal(v.raw)
	default:
		return []byte(v.raw), nil
	}
}
