// Package bson provides a BSON codec for cloak configuration documents, as
// stored in a MongoDB settings collection.
package bson

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/zoobzio/cloak"
)

// bsonCodec implements cloak.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() cloak.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(v)
}

// Unmarshal decodes a BSON document into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	return bson.Unmarshal(data, v)
}
