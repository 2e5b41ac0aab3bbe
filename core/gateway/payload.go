package gateway

import (
	"bytes"
	"encoding/json"
)

// payload assembles a JSON object whose byte sequence follows the exact
// field insertion order. The provider's signature covers the literal
// bytes, so fields must be appended in the order the provider expects;
// re-marshalling through a map would destroy that order.
type payload struct {
	buf bytes.Buffer
	n   int
}

func newPayload() *payload {
	p := &payload{}
	p.buf.WriteByte('{')
	return p
}

func (p *payload) field(key string, raw []byte) *payload {
	if p.n > 0 {
		p.buf.WriteByte(',')
	}
	k, _ := json.Marshal(key)
	p.buf.Write(k)
	p.buf.WriteByte(':')
	p.buf.Write(raw)
	p.n++
	return p
}

// Str appends a string field.
func (p *payload) Str(key, value string) *payload {
	v, _ := json.Marshal(value)
	return p.field(key, v)
}

// StrOpt appends a string field only when the value is non-empty.
func (p *payload) StrOpt(key, value string) *payload {
	if value == "" {
		return p
	}
	return p.Str(key, value)
}

// Bytes closes the object and returns the signed byte sequence.
func (p *payload) Bytes() []byte {
	out := make([]byte, p.buf.Len()+1)
	copy(out, p.buf.Bytes())
	out[len(out)-1] = '}'
	return out
}
