package monitor

import (
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/d21d3q/gobthome/internal/mqtt"
	"github.com/d21d3q/gobthome/internal/scanner"
	"github.com/d21d3q/gobthome/pkg/bthome"
)

// Publisher forwards decoded readings.
type Publisher interface {
	PublishReading(mqtt.Reading) error
}

// Stats counts handler outcomes.
type Stats struct {
	Decoded    uint64
	Duplicates uint64
	Encrypted  uint64
	Invalid    uint64
	Failed     uint64 // publish errors
}

// Handler decodes matches, drops retransmitted packets and publishes the rest.
type Handler struct {
	pub    Publisher
	log    logrus.FieldLogger
	window time.Duration

	mu     sync.Mutex
	last   map[string]lastPacket
	warned map[string]struct{}

	decoded, duplicates, encrypted, invalid, failed atomic.Uint64
}

// lastPacket is the most recent packet id seen from one device.
type lastPacket struct {
	id uint8
	at time.Time
}

// NewHandler creates a handler. pub may be nil, in which case readings are
// only logged. A payload repeating a device's last packet id within window is
// dropped as a retransmission.
func NewHandler(pub Publisher, window time.Duration, log logrus.FieldLogger) *Handler {
	return &Handler{
		pub:    pub,
		log:    log,
		window: window,
		last:   make(map[string]lastPacket),
		warned: make(map[string]struct{}),
	}
}

// HandleMatch processes one advertisement. Safe for concurrent use.
func (h *Handler) HandleMatch(m scanner.Match) {
	log := h.log.WithFields(logrus.Fields{"addr": m.Address, "rssi": m.RSSI})

	// Encrypted objects are ciphertext; only the header byte is readable.
	if len(m.Data) > 0 && bthome.ParseHeader(m.Data[0]).Encrypted {
		h.encrypted.Add(1)
		if h.firstEncrypted(m.Address) {
			log.Warn("ble: encrypted payload, decryption not supported")
		} else {
			log.Debug("ble: skip encrypted payload")
		}
		return
	}
	sd, err := bthome.Parse(m.Data)
	if err != nil {
		h.invalid.Add(1)
		log.WithError(err).WithField("data", strings.ToUpper(hex.EncodeToString(m.Data))).Debug("ble: ignore undecodable payload")
		return
	}
	if id, ok := sd.PacketID(); ok && h.isDuplicate(m.Address, id, m.SeenAt) {
		h.duplicates.Add(1)
		return
	}
	h.decoded.Add(1)

	fields := sd.Fields()
	log.WithFields(logrus.Fields(fields)).Info("ble: bthome reading")
	if h.pub == nil {
		return
	}
	reading := mqtt.Reading{
		Address:      m.Address,
		Name:         m.LocalName,
		RSSI:         m.RSSI,
		Timestamp:    m.SeenAt,
		Version:      sd.Version,
		TriggerBased: sd.TriggerBased,
		Fields:       fields,
	}
	if err := h.pub.PublishReading(reading); err != nil {
		h.failed.Add(1)
		log.WithError(err).Warn("ble: failed to publish reading")
	}
}

// Stats returns a snapshot of the counters.
func (h *Handler) Stats() Stats {
	return Stats{
		Decoded:    h.decoded.Load(),
		Duplicates: h.duplicates.Load(),
		Encrypted:  h.encrypted.Load(),
		Invalid:    h.invalid.Load(),
		Failed:     h.failed.Load(),
	}
}

// isDuplicate reports whether id repeats the device's previous packet within
// the window. Any other id starts a new reading, including ids that went
// backwards after a reboot or counter wrap.
func (h *Handler) isDuplicate(addr string, id uint8, at time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev, ok := h.last[addr]
	if ok && prev.id == id && at.Sub(prev.at) < h.window {
		return true
	}
	h.last[addr] = lastPacket{id: id, at: at}
	return false
}

func (h *Handler) firstEncrypted(addr string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.warned[addr]; ok {
		return false
	}
	h.warned[addr] = struct{}{}
	return true
}
