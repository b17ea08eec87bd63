package bthome

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadInt(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		signed bool
		want   int64
	}{
		{"uint8", []byte{0xFF}, false, 255},
		{"sint8", []byte{0xFF}, true, -1},
		{"uint16", []byte{0x34, 0x12}, false, 0x1234},
		{"sint16", []byte{0x00, 0x80}, true, -32768},
		{"uint24 max", []byte{0xFF, 0xFF, 0xFF}, false, 16777215},
		{"sint24 minus one", []byte{0xFF, 0xFF, 0xFF}, true, -1},
		{"sint24 positive", []byte{0xFF, 0xFF, 0x7F}, true, 8388607},
		{"uint32", []byte{0x78, 0x56, 0x34, 0x12}, false, 0x12345678},
		{"sint32", []byte{0xFE, 0xFF, 0xFF, 0xFF}, true, -2},
		{"uint48", []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x80}, false, 0x800000000001},
		{"sint48", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, true, -1},
		{"uint64", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, false, 0x0807060504030201},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, readInt(tc.in, tc.signed))
		})
	}
}

func TestIntDecoderConsumesDeclaredWidth(t *testing.T) {
	c := &cursor{buf: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}}
	v, err := intDecoder(6, false)(c)
	require.NoError(t, err)
	require.Equal(t, Int(0x060504030201), v)
	require.Equal(t, 1, c.remaining())

	_, err = intDecoder(8, false)(c)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFloatDecoderFactors(t *testing.T) {
	c := &cursor{buf: []byte{0xF6}}
	v, err := floatDecoder(1, true, 0.35)(c)
	require.NoError(t, err)
	require.InDelta(t, -3.5, float64(v.(Float)), 1e-9)

	c = &cursor{buf: []byte{0x87, 0xD6, 0x12}}
	v, err = floatDecoder(3, false, 0.01)(c)
	require.NoError(t, err)
	require.InDelta(t, 12345.67, float64(v.(Float)), 1e-6)
}

func TestLengthPrefixedZero(t *testing.T) {
	c := &cursor{buf: []byte{0x00}}
	v, err := decodeText(c)
	require.NoError(t, err)
	require.Equal(t, Text(""), v)

	c = &cursor{buf: []byte{0x00}}
	v, err = decodeRaw(c)
	require.NoError(t, err)
	require.Equal(t, Raw{}, v)
}

func TestCursorByteOnEmpty(t *testing.T) {
	c := &cursor{}
	_, err := c.byte()
	require.ErrorIs(t, err, ErrTruncated)
}

func TestValueRendering(t *testing.T) {
	require.Equal(t, "25.06", Float(25.06).String())
	require.Equal(t, "-4", Int(-4).String())
	require.Equal(t, "01 AB", Raw{0x01, 0xAB}.String())
	require.Equal(t, "01ab", Raw{0x01, 0xAB}.Any())
	require.Equal(t, "long_press", ButtonValue{Event: ButtonLongPress}.Any())
	require.Equal(t, "rotate_left (3 steps)", DimmerValue{Event: DimmerRotateLeft, Steps: 3}.String())
	require.Equal(t, "button(0x09)", ButtonEvent(0x09).String())
}
