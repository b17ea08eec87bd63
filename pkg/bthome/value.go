package bthome

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// Value is the decoded payload of a single object. The set of implementations
// is closed: Float, Int, Bool, Raw, Text, ButtonValue and DimmerValue.
type Value interface {
	// Any returns the value as a plain Go value suitable for JSON encoding.
	Any() any
	fmt.Stringer
	isValue()
}

// Float is a scaled measurement in physical units.
type Float float64

// Int is an integer measurement sign-extended from its wire width.
type Int int64

// Bool is a binary sensor state.
type Bool bool

// Raw is an opaque length-prefixed byte sequence.
type Raw []byte

// Text is a length-prefixed UTF-8 string.
type Text string

// ButtonValue carries a button event.
type ButtonValue struct {
	Event ButtonEvent
}

// DimmerValue carries a dimmer rotation and its raw step count.
type DimmerValue struct {
	Event DimmerEvent
	Steps uint8
}

func (Float) isValue()       {}
func (Int) isValue()         {}
func (Bool) isValue()        {}
func (Raw) isValue()         {}
func (Text) isValue()        {}
func (ButtonValue) isValue() {}
func (DimmerValue) isValue() {}

func (v Float) Any() any { return float64(v) }
func (v Int) Any() any   { return int64(v) }
func (v Bool) Any() any  { return bool(v) }
func (v Raw) Any() any   { return hex.EncodeToString(v) }
func (v Text) Any() any  { return string(v) }

func (v ButtonValue) Any() any { return v.Event.String() }

func (v DimmerValue) Any() any {
	return map[string]any{"event": v.Event.String(), "steps": int64(v.Steps)}
}

func (v Float) String() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Bool) String() string  { return strconv.FormatBool(bool(v)) }
func (v Raw) String() string   { return fmt.Sprintf("% X", []byte(v)) }
func (v Text) String() string  { return string(v) }

func (v ButtonValue) String() string { return v.Event.String() }

func (v DimmerValue) String() string {
	return fmt.Sprintf("%s (%d steps)", v.Event, v.Steps)
}

// ButtonEvent enumerates the gestures reported by object 0x3A.
type ButtonEvent uint8

const (
	ButtonNone            ButtonEvent = 0x00
	ButtonPress           ButtonEvent = 0x01
	ButtonDoublePress     ButtonEvent = 0x02
	ButtonTriplePress     ButtonEvent = 0x03
	ButtonLongPress       ButtonEvent = 0x04
	ButtonLongDoublePress ButtonEvent = 0x05
	ButtonLongTriplePress ButtonEvent = 0x06
	ButtonHoldPress       ButtonEvent = 0x80
)

var buttonEventNames = map[ButtonEvent]string{
	ButtonNone:            "none",
	ButtonPress:           "press",
	ButtonDoublePress:     "double_press",
	ButtonTriplePress:     "triple_press",
	ButtonLongPress:       "long_press",
	ButtonLongDoublePress: "long_double_press",
	ButtonLongTriplePress: "long_triple_press",
	ButtonHoldPress:       "hold_press",
}

func (e ButtonEvent) String() string {
	if name, ok := buttonEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("button(0x%02X)", uint8(e))
}

// DimmerEvent enumerates the rotation directions reported by object 0x3C.
type DimmerEvent uint8

const (
	DimmerNone        DimmerEvent = 0x00
	DimmerRotateLeft  DimmerEvent = 0x01
	DimmerRotateRight DimmerEvent = 0x02
)

var dimmerEventNames = map[DimmerEvent]string{
	DimmerNone:        "none",
	DimmerRotateLeft:  "rotate_left",
	DimmerRotateRight: "rotate_right",
}

func (e DimmerEvent) String() string {
	if name, ok := dimmerEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("dimmer(0x%02X)", uint8(e))
}
