package mapper

import (
	"io"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"
)

// json decodes backend payloads field by field: a value of the wrong JSON type leaves its
// field at the zero value instead of failing the enclosing row.
var json = newTolerantAPI()

func newTolerantAPI() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&tolerantExtension{})
	return api
}

type tolerantExtension struct {
	jsoniter.DummyExtension
}

func (e *tolerantExtension) DecorateDecoder(typ reflect2.Type, decoder jsoniter.ValDecoder) jsoniter.ValDecoder {
	return &tolerantDecoder{typ: typ, inner: decoder}
}

type tolerantDecoder struct {
	typ   reflect2.Type
	inner jsoniter.ValDecoder
}

// Decode isolates the value in its own iterator so a type error stays local to it.
// Malformed JSON still fails the outer iterator.
func (d *tolerantDecoder) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	raw := iter.SkipAndReturnBytes()
	if iter.Error != nil && iter.Error != io.EOF {
		return
	}
	sub := iter.Pool().BorrowIterator(raw)
	defer iter.Pool().ReturnIterator(sub)

	d.inner.Decode(ptr, sub)
	if sub.Error != nil && sub.Error != io.EOF {
		d.typ.UnsafeSet(ptr, d.typ.UnsafeNew())
	}
}
