package scanner

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

func TestExtractServiceData(t *testing.T) {
	payload := []byte{0x40, 0x02, 0x64, 0x00}
	elements := []bluetooth.ServiceDataElement{
		{UUID: bluetooth.New16BitUUID(0x181A), Data: []byte{0x01}},
		{UUID: bluetooth.New16BitUUID(0xFCD2), Data: payload},
	}
	data, ok := ExtractServiceData(elements)
	require.True(t, ok)
	require.Equal(t, payload, data)

	payload[0] = 0x00
	require.Equal(t, byte(0x40), data[0])
}

func TestExtractServiceDataMissing(t *testing.T) {
	_, ok := ExtractServiceData([]bluetooth.ServiceDataElement{
		{UUID: bluetooth.New16BitUUID(0xFE95), Data: []byte{0x30, 0x58}},
	})
	require.False(t, ok)

	_, ok = ExtractServiceData(nil)
	require.False(t, ok)
}

func TestListenerAllow(t *testing.T) {
	l := &Listener{}
	require.True(t, l.allowed("A4:C1:38:00:00:01"))

	l = NewListener(Options{Allow: []string{"A4:C1:38:00:00:01"}})
	require.True(t, l.allowed("A4:C1:38:00:00:01"))
	require.False(t, l.allowed("A4:C1:38:00:00:02"))
}

type failingAdapter struct{}

func (failingAdapter) Enable() error { return nil }

func (failingAdapter) Scan(func(*bluetooth.Adapter, bluetooth.ScanResult)) error {
	return errors.New("adapter gone")
}

func (failingAdapter) StopScan() error { return nil }

func TestRunReleasesWatcherOnScanError(t *testing.T) {
	l := NewListener(Options{})
	l.adapter = failingAdapter{}

	before := runtime.NumGoroutine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for i := 0; i < 10; i++ {
		require.ErrorContains(t, l.Run(ctx, nil), "adapter gone")
	}
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond)
}
