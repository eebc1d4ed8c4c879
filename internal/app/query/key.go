package query

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Map keys are sorted so equal params always encode the same way.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key identifies a cached read: a resource name followed by identifying parts
// (an id, a params struct, a sub-resource name).
type Key []any

func encodePart(part any) string {
	b, err := json.Marshal(part)
	if err != nil {
		return "?"
	}
	return string(b)
}

// String is the canonical cache identity of the key.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, part := range k {
		parts[i] = encodePart(part)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Resource is the first key element, used as a metrics label.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	if s, ok := k[0].(string); ok {
		return s
	}
	return encodePart(k[0])
}

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if encodePart(k[i]) != encodePart(prefix[i]) {
			return false
		}
	}
	return true
}
