package mapper

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

type dataEnvelope struct {
	Data jsoniter.RawMessage `json:"data"`
}

type itemsEnvelope struct {
	Items jsoniter.RawMessage `json:"items"`
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// rawList splits a JSON array into its elements; anything else yields nil.
func rawList(raw []byte) []jsoniter.RawMessage {
	if !isArray(raw) {
		return nil
	}
	var items []jsoniter.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// ListItems applies the list-envelope rule to a response body: a bare array is used as
// is, else the "data" field when it is an array, else the list is empty.
func ListItems(body []byte) []jsoniter.RawMessage {
	if isArray(body) {
		return rawList(body)
	}
	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	return rawList(env.Data)
}

// itemsOrArray accepts a bare array or an {items: [...]} envelope.
func itemsOrArray(body []byte) []jsoniter.RawMessage {
	if isArray(body) {
		return rawList(body)
	}
	var env itemsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if items := rawList(env.Items); items != nil {
		return items
	}
	return ListItems(body)
}

// decodeEach decodes every object element into T. Mistyped fields fall back to their zero
// value; elements that are not objects are skipped and counted.
func decodeEach[T any](items []jsoniter.RawMessage) ([]T, int) {
	out := make([]T, 0, len(items))
	skipped := 0
	for _, item := range items {
		if !isObject(item) {
			skipped++
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}

// ExtractList decodes a list response body using the list-envelope rule. Malformed bodies
// and elements degrade to an empty (never nil) slice.
func ExtractList[T any](body []byte) []T {
	out, _ := decodeEach[T](ListItems(body))
	return out
}

// DecodeObject decodes a single-object body into T. Mistyped fields keep their zero value;
// a body that is not valid JSON leaves T zero.
func DecodeObject[T any](body []byte) T {
	var v T
	_ = json.Unmarshal(body, &v)
	return v
}
