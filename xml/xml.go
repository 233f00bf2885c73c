// Package xml provides an XML codec for cloak configuration documents.
//
// A RawConfig is written as a config element with one field child per
// encrypted field:
//
//	<config key="..." salt="...">
//	    <field name="number" type="integer"/>
//	</config>
package xml

import (
	"encoding/xml"

	"github.com/zoobzio/cloak"
)

// xmlCodec implements cloak.Codec for XML.
type xmlCodec struct{}

// New returns an XML codec.
func New() cloak.Codec {
	return &xmlCodec{}
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// Marshal encodes v as XML.
func (c *xmlCodec) Marshal(v any) ([]byte, error) {
	return xml.Marshal(v)
}

// Unmarshal decodes XML data into v.
func (c *xmlCodec) Unmarshal(data []byte, v any) error {
	return xml.Unmarshal(data, v)
}
