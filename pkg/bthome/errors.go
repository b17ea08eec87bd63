package bthome

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated reports that the payload ended before a header, identifier or
	// value was complete.
	ErrTruncated = errors.New("bthome: payload truncated")
	// ErrUnknownObject reports an object identifier outside the catalog.
	ErrUnknownObject = errors.New("bthome: unknown object id")
	// ErrInvalidText reports a text object whose bytes are not valid UTF-8.
	ErrInvalidText = errors.New("bthome: text object is not valid UTF-8")
	// ErrInvalidEvent reports a button or dimmer code outside its enumeration.
	ErrInvalidEvent = errors.New("bthome: invalid event code")
)

// UnknownObjectError carries the identifier byte that failed catalog lookup.
type UnknownObjectError struct {
	ID byte
}

func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("bthome: unknown object id 0x%02X", e.ID)
}

func (e *UnknownObjectError) Is(target error) bool { return target == ErrUnknownObject }

// InvalidEventError carries an event byte that is not part of its enumeration.
type InvalidEventError struct {
	Event string // "button" or "dimmer"
	Code  byte
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("bthome: invalid %s event 0x%02X", e.Event, e.Code)
}

func (e *InvalidEventError) Is(target error) bool { return target == ErrInvalidEvent }
