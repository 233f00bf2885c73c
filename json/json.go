// Package json provides a JSON codec for cloak configuration documents.
package json

import (
	"bytes"
	"encoding/json"

	"github.com/zoobzio/cloak"
)

// jsonCodec implements cloak.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() cloak.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON indented by two spaces.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes JSON data into v. Object keys that match no field of a
// struct target are an error.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
