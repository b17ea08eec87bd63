package bthome

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// Fields flattens the objects into a map keyed by measurement name. Repeated
// keys get a numeric suffix in wire order: temperature, temperature_2, ...
func (sd ServiceData) Fields() map[string]any {
	fields := make(map[string]any, len(sd.Objects))
	seen := make(map[string]int, len(sd.Objects))
	for _, o := range sd.Objects {
		key := o.ID.Info().Key
		seen[key]++
		if n := seen[key]; n > 1 {
			key = key + "_" + strconv.Itoa(n)
		}
		fields[key] = o.Value.Any()
	}
	return fields
}

// FieldSet offers typed helpers on top of the flattened field map.
type FieldSet struct {
	data map[string]any
}

// FieldSet returns a FieldSet wrapper for the payload's fields.
func (sd ServiceData) FieldSet() FieldSet {
	return FieldSet{data: sd.Fields()}
}

// Map exposes the underlying map for callers that still need raw access.
func (fs FieldSet) Map() map[string]any {
	return fs.data
}

// Raw returns the stored value without conversions.
func (fs FieldSet) Raw(key string) (any, bool) {
	if fs.data == nil {
		return nil, false
	}
	v, ok := fs.data[key]
	return v, ok
}

// Float returns the field coerced to float64.
func (fs FieldSet) Float(key string) (float64, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return 0, fmt.Errorf("field %q missing", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
}

// Int returns the field as int64. Scaled measurements are rejected rather than
// truncated.
func (fs FieldSet) Int(key string) (int64, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return 0, fmt.Errorf("field %q missing", key)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return n, nil
}

// String returns the field formatted as a string.
func (fs FieldSet) String(key string) (string, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return "", fmt.Errorf("field %q missing", key)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// Bool returns a binary sensor field.
func (fs FieldSet) Bool(key string) (bool, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return false, fmt.Errorf("field %q missing", key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return b, nil
}

// Bytes returns a raw field decoded back from its hex form.
func (fs FieldSet) Bytes(key string) ([]byte, error) {
	s, err := fs.String(key)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("field %q is not hex: %w", key, err)
	}
	return b, nil
}
