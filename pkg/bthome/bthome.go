// Package bthome decodes BTHome v2 advertisement payloads: the service data
// a sensor broadcasts under UUID 0xFCD2.
package bthome

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ServiceUUID16 is the 16-bit service UUID that keys BTHome service data.
const ServiceUUID16 uint16 = 0xFCD2

// ServiceUUID is ServiceUUID16 expanded onto the Bluetooth base UUID.
var ServiceUUID = uuid.MustParse("0000fcd2-0000-1000-8000-00805f9b34fb")

// ServiceData is one decoded payload.
type ServiceData struct {
	Header
	Objects []Object
}

// Object is a single identifier/value record in wire order.
type Object struct {
	ID    ObjectID
	Value Value
}

func (o Object) String() string {
	if unit := o.ID.Info().Unit; unit != "" {
		return fmt.Sprintf("%s=%s %s", o.ID, o.Value, unit)
	}
	return fmt.Sprintf("%s=%s", o.ID, o.Value)
}

// Parse decodes a complete payload. It either returns every object in data or
// the first error encountered; there is no partial result.
func Parse(data []byte) (ServiceData, error) {
	if len(data) == 0 {
		return ServiceData{}, fmt.Errorf("%w: missing header byte", ErrTruncated)
	}
	sd := ServiceData{
		Header:  ParseHeader(data[0]),
		Objects: make([]Object, 0, len(data)/3),
	}
	c := cursor{buf: data, off: 1}
	for c.remaining() > 0 {
		offset := c.off
		id := c.buf[c.off]
		c.off++
		info := catalog[id]
		if info == nil {
			return ServiceData{}, fmt.Errorf("offset %d: %w", offset, &UnknownObjectError{ID: id})
		}
		value, err := info.decode(&c)
		if err != nil {
			return ServiceData{}, fmt.Errorf("object 0x%02X (%s) at offset %d: %w", id, info.Name, offset, err)
		}
		sd.Objects = append(sd.Objects, Object{ID: info.ID, Value: value})
	}
	return sd, nil
}

// ParseHex decodes a hex-encoded payload. Whitespace and the separators
// '|', '_', ':' and '-' are ignored, as is a leading 0x.
func ParseHex(s string) (ServiceData, error) {
	data, err := decodeHex(s)
	if err != nil {
		return ServiceData{}, err
	}
	return Parse(data)
}

// Find returns the first object with the given id.
func (sd ServiceData) Find(id ObjectID) (Object, bool) {
	for _, o := range sd.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return Object{}, false
}

// PacketID returns the value of the packet id object when present.
func (sd ServiceData) PacketID() (uint8, bool) {
	o, ok := sd.Find(PacketID)
	if !ok {
		return 0, false
	}
	v, ok := o.Value.(Int)
	return uint8(v), ok
}

// String renders the payload as indented JSON.
func (sd ServiceData) String() string {
	summary := map[string]any{
		"version":      sd.Version,
		"object_count": len(sd.Objects),
	}
	for k, v := range sd.Flags() {
		summary[k] = v
	}
	if fields := sd.Fields(); len(fields) > 0 {
		summary["fields"] = fields
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("version:%d encrypted:%t objects:%d (marshal error: %v)", sd.Version, sd.Encrypted, len(sd.Objects), err)
	}
	return string(data)
}

func decodeHex(input string) ([]byte, error) {
	clean := stripSeparators(input)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex payload must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripSeparators(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' || r == ':' || r == '-' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
