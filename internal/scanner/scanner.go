package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/d21d3q/gobthome/pkg/bthome"
)

// Match is one advertisement carrying BTHome service data.
type Match struct {
	Address   string
	RSSI      int16
	LocalName string
	Data      []byte
	SeenAt    time.Time
}

// Options configures a Listener.
type Options struct {
	// Allow restricts matches to these addresses (normalized AA:BB:.. form).
	Allow []string
	Log   logrus.FieldLogger
}

// adapter is the part of *bluetooth.Adapter the listener drives.
type adapter interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// Listener wraps adapter scanning with context cancellation.
type Listener struct {
	adapter adapter
	allow   map[string]struct{}
	log     logrus.FieldLogger
}

func NewListener(opts Options) *Listener {
	l := &Listener{
		adapter: bluetooth.DefaultAdapter,
		log:     opts.Log,
	}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}
	if len(opts.Allow) > 0 {
		l.allow = make(map[string]struct{}, len(opts.Allow))
		for _, addr := range opts.Allow {
			l.allow[addr] = struct{}{}
		}
	}
	return l
}

// Run scans until ctx is done or the adapter fails. onMatch is called from
// the adapter's goroutine.
func (l *Listener) Run(ctx context.Context, onMatch func(Match)) error {
	l.log.Info("ble: enabling adapter")
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.adapter.StopScan()
		case <-done:
		}
	}()

	l.log.WithField("service_uuid", bthome.ServiceUUID.String()).Info("ble: scanning started")

	// Scan blocks until StopScan or error.
	err := l.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		data, ok := ExtractServiceData(r.ServiceData())
		if !ok {
			return
		}
		addr := r.Address.String()
		if !l.allowed(addr) {
			return
		}
		if onMatch != nil {
			onMatch(Match{
				Address:   addr,
				RSSI:      r.RSSI,
				LocalName: r.LocalName(),
				Data:      data,
				SeenAt:    time.Now(),
			})
		}
	})

	if ctx.Err() != nil {
		l.log.Info("ble: scanning stopped (context canceled)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	l.log.Info("ble: scanning stopped")
	return nil
}

func (l *Listener) allowed(addr string) bool {
	if l.allow == nil {
		return true
	}
	_, ok := l.allow[addr]
	return ok
}

// ExtractServiceData returns a copy of the BTHome service data element, if
// any. 16-bit UUIDs arrive expanded onto the base UUID, so a single 128-bit
// comparison covers both forms.
func ExtractServiceData(elements []bluetooth.ServiceDataElement) ([]byte, bool) {
	for _, el := range elements {
		id, err := uuid.Parse(el.UUID.String())
		if err != nil || id != bthome.ServiceUUID {
			continue
		}
		return append([]byte(nil), el.Data...), true
	}
	return nil, false
}
