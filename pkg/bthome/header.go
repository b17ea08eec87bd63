package bthome

// Header is the device information byte that opens every payload.
type Header struct {
	Encrypted    bool
	TriggerBased bool
	Version      uint8
}

const (
	headerEncrypted    = 0x01
	headerTriggerBased = 0x04
	headerVersionShift = 5
)

// ParseHeader decodes the device information byte. Reserved bits 1, 3 and 4
// are ignored.
func ParseHeader(b byte) Header {
	return Header{
		Encrypted:    b&headerEncrypted != 0,
		TriggerBased: b&headerTriggerBased != 0,
		Version:      b >> headerVersionShift,
	}
}

// Flags returns the header bits by name, suitable for summaries.
func (h Header) Flags() map[string]bool {
	return map[string]bool{
		"encrypted":     h.Encrypted,
		"trigger_based": h.TriggerBased,
	}
}
