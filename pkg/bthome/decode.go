package bthome

import (
	"fmt"
	"unicode/utf8"
)

// cursor walks a payload front to back. All reads are bounds checked and fail
// with ErrTruncated instead of panicking.
type cursor struct {
	buf []byte
	off int
}

func (c *cursor) remaining() int { return len(c.buf) - c.off }

func (c *cursor) next(n int) ([]byte, error) {
	if n > c.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.off, c.remaining())
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) byte() (byte, error) {
	b, err := c.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// decoder consumes one object value from the cursor.
type decoder func(c *cursor) (Value, error)

// Format describes the wire representation of an object value.
type Format uint8

const (
	FormatUint Format = iota + 1
	FormatSint
	FormatBool
	FormatRaw
	FormatText
	FormatButton
	FormatDimmer
)

func (f Format) String() string {
	switch f {
	case FormatUint:
		return "uint"
	case FormatSint:
		return "sint"
	case FormatBool:
		return "bool"
	case FormatRaw:
		return "raw"
	case FormatText:
		return "text"
	case FormatButton:
		return "button"
	case FormatDimmer:
		return "dimmer"
	default:
		return "unknown"
	}
}

// readInt interprets b (1..8 bytes) as a little-endian integer. Signed values
// are sign-extended from the top bit of the declared width, not of the int64
// storage. An 8-byte unsigned value above MaxInt64 wraps.
func readInt(b []byte, signed bool) int64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	if signed && len(b) < 8 {
		shift := uint(64 - 8*len(b))
		return int64(v<<shift) >> shift
	}
	return int64(v)
}

func intDecoder(width int, signed bool) decoder {
	return func(c *cursor) (Value, error) {
		b, err := c.next(width)
		if err != nil {
			return nil, err
		}
		return Int(readInt(b, signed)), nil
	}
}

func floatDecoder(width int, signed bool, factor float64) decoder {
	return func(c *cursor) (Value, error) {
		b, err := c.next(width)
		if err != nil {
			return nil, err
		}
		return Float(float64(readInt(b, signed)) * factor), nil
	}
}

// decodeBool follows the wire convention where 0x00 means true.
func decodeBool(c *cursor) (Value, error) {
	b, err := c.byte()
	if err != nil {
		return nil, err
	}
	return Bool(b == 0), nil
}

func lengthPrefixed(c *cursor) ([]byte, error) {
	n, err := c.byte()
	if err != nil {
		return nil, err
	}
	return c.next(int(n))
}

func decodeRaw(c *cursor) (Value, error) {
	b, err := lengthPrefixed(c)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return Raw(out), nil
}

func decodeText(c *cursor) (Value, error) {
	b, err := lengthPrefixed(c)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(b) {
		return nil, ErrInvalidText
	}
	return Text(b), nil
}

func decodeButton(c *cursor) (Value, error) {
	b, err := c.byte()
	if err != nil {
		return nil, err
	}
	ev := ButtonEvent(b)
	if _, ok := buttonEventNames[ev]; !ok {
		return nil, &InvalidEventError{Event: "button", Code: b}
	}
	return ButtonValue{Event: ev}, nil
}

func decodeDimmer(c *cursor) (Value, error) {
	b, err := c.next(2)
	if err != nil {
		return nil, err
	}
	ev := DimmerEvent(b[0])
	if _, ok := dimmerEventNames[ev]; !ok {
		return nil, &InvalidEventError{Event: "dimmer", Code: b[0]}
	}
	return DimmerValue{Event: ev, Steps: b[1]}, nil
}
