// Package yaml provides a YAML codec for cloak configuration documents.
package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/zoobzio/cloak"
	"gopkg.in/yaml.v3"
)

// yamlCodec implements cloak.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() cloak.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML indented by two spaces.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes the first YAML document in data into v. Mapping keys
// that match no field of a struct target are an error; empty input leaves v
// untouched.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
