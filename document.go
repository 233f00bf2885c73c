package cloak

import (
	"encoding/xml"
	"fmt"
	"sort"
)

// ParseConfig decodes a RawConfig document with codec.
func ParseConfig(codec Codec, data []byte) (RawConfig, error) {
	var raw RawConfig
	if err := codec.Unmarshal(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("unmarshal %s config: %w", codec.ContentType(), err)
	}
	return raw, nil
}

// MarshalConfig encodes raw as a document ParseConfig reads back.
func MarshalConfig(codec Codec, raw RawConfig) ([]byte, error) {
	data, err := codec.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal %s config: %w", codec.ContentType(), err)
	}
	return data, nil
}

// xmlConfig is the XML form of a RawConfig:
//
//	<config key="..." salt="..." algorithm="aes-256-gcm">
//	    <field name="number" type="integer"/>
//	</config>
type xmlConfig struct {
	Key       string     `xml:"key,attr,omitempty"`
	Salt      string     `xml:"salt,attr,omitempty"`
	Algorithm Algorithm  `xml:"algorithm,attr,omitempty"`
	Driver    Driver     `xml:"driver,attr,omitempty"`
	Encoding  Encoding   `xml:"encoding,attr,omitempty"`
	Fields    []xmlField `xml:"field"`
}

type xmlField struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

// MarshalXML implements xml.Marshaler. Fields are written sorted by name.
func (r RawConfig) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	doc := xmlConfig{
		Key:       r.Key,
		Salt:      r.Salt,
		Algorithm: r.Algorithm,
		Driver:    r.Driver,
		Encoding:  r.Encoding,
		Fields:    make([]xmlField, 0, len(r.Fields)),
	}

	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var typ string
		switch v := r.Fields[name].(type) {
		case string:
			typ = v
		case TypeTag:
			typ = string(v)
		default:
			return newConfigError(ErrInvalidFieldEntry, name, fmt.Sprintf("%T", v))
		}
		doc.Fields = append(doc.Fields, xmlField{Name: name, Type: typ})
	}

	start.Name = xml.Name{Local: "config"}
	start.Attr = nil
	return e.EncodeElement(doc, start)
}

// UnmarshalXML implements xml.Unmarshaler. A field named twice is an
// ErrInvalidFieldEntry.
func (r *RawConfig) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var doc xmlConfig
	if err := d.DecodeElement(&doc, &start); err != nil {
		return err
	}

	fields := make(map[string]any, len(doc.Fields))
	for _, f := range doc.Fields {
		if _, dup := fields[f.Name]; dup {
			return newConfigError(ErrInvalidFieldEntry, f.Name, "duplicate")
		}
		fields[f.Name] = f.Type
	}

	*r = RawConfig{
		Fields:    fields,
		Key:       doc.Key,
		Salt:      doc.Salt,
		Algorithm: doc.Algorithm,
		Driver:    doc.Driver,
		Encoding:  doc.Encoding,
	}
	return nil
}
