package monitor

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/d21d3q/gobthome/internal/mqtt"
	"github.com/d21d3q/gobthome/internal/scanner"
)

type fakePublisher struct {
	mu       sync.Mutex
	readings []mqtt.Reading
	err      error
}

func (f *fakePublisher) PublishReading(r mqtt.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
	return f.err
}

func match(addr string, data ...byte) scanner.Match {
	return scanner.Match{Address: addr, RSSI: -60, Data: data, SeenAt: time.Unix(1700000000, 0)}
}

func TestHandlerPublishesReading(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)

	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x07, 0x02, 0xCA, 0x09))

	require.Len(t, pub.readings, 1)
	r := pub.readings[0]
	require.Equal(t, "A4:C1:38:00:00:01", r.Address)
	require.Equal(t, uint8(2), r.Version)
	require.Equal(t, int64(7), r.Fields["packet_id"])
	require.InDelta(t, 25.06, r.Fields["temperature"], 1e-9)
	require.Equal(t, Stats{Decoded: 1}, h.Stats())
	require.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestHandlerDropsDuplicatePacketIDs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)

	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x01, 0x01, 0x50))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x01, 0x01, 0x50))
	// Same packet id from another device is not a duplicate.
	h.HandleMatch(match("A4:C1:38:00:00:02", 0x40, 0x00, 0x01, 0x01, 0x50))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x02, 0x01, 0x50))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x02, 0x01, 0x50))
	// Only the previous id counts, so an older id is a new reading.
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, 0x01, 0x01, 0x50))

	require.Len(t, pub.readings, 4)
	require.Equal(t, uint64(2), h.Stats().Duplicates)
}

func TestHandlerPublishesAfterDeviceRestart(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)

	for id := byte(0); id < 10; id++ {
		h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, id, 0x01, 0x50))
	}
	// Counter starts again at zero with fresh battery values.
	for id := byte(0); id < 10; id++ {
		h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x00, id, 0x01, 0x40))
	}

	require.Len(t, pub.readings, 20)
	require.Equal(t, uint64(0), h.Stats().Duplicates)
	require.Equal(t, int64(0x40), pub.readings[10].Fields["battery"])
}

func TestHandlerRepeatedIDExpires(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, 10*time.Second, logger)

	start := time.Unix(1700000000, 0)
	at := func(d time.Duration, data ...byte) scanner.Match {
		m := match("A4:C1:38:00:00:01", data...)
		m.SeenAt = start.Add(d)
		return m
	}
	h.HandleMatch(at(0, 0x40, 0x00, 0x05, 0x01, 0x50))
	h.HandleMatch(at(9*time.Second, 0x40, 0x00, 0x05, 0x01, 0x50))
	h.HandleMatch(at(11*time.Second, 0x40, 0x00, 0x05, 0x01, 0x50))

	require.Len(t, pub.readings, 2)
	require.Equal(t, uint64(1), h.Stats().Duplicates)
}

func TestHandlerWithoutPacketIDNeverDeduplicates(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)
	for i := 0; i < 3; i++ {
		h.HandleMatch(match("A4:C1:38:00:00:01", 0x44, 0x3A, 0x01))
	}
	require.Len(t, pub.readings, 3)
	require.True(t, pub.readings[0].TriggerBased)
}

func TestHandlerSkipsInvalidAndEncrypted(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)

	h.HandleMatch(match("A4:C1:38:00:00:01"))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x30, 0x00))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x41, 0xDE, 0xAD, 0xBE, 0xEF))

	require.Empty(t, pub.readings)
	require.Equal(t, Stats{Invalid: 2, Encrypted: 1}, h.Stats())
	require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestHandlerCountsPublishFailures(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{err: errors.New("broker down")}
	h := NewHandler(pub, time.Minute, logger)
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x01, 0x50))
	require.Equal(t, Stats{Decoded: 1, Failed: 1}, h.Stats())
}

func TestHandlerNilPublisher(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := NewHandler(nil, time.Minute, logger)
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x40, 0x01, 0x50))
	require.Equal(t, uint64(1), h.Stats().Decoded)
}

func TestHandlerEncryptedWarnsOncePerAddress(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := NewHandler(nil, time.Minute, logger)

	h.HandleMatch(match("A4:C1:38:00:00:01", 0x41, 0xDE, 0xAD))
	h.HandleMatch(match("A4:C1:38:00:00:01", 0x41, 0xDE, 0xAD))
	h.HandleMatch(match("A4:C1:38:00:00:02", 0x41, 0xDE, 0xAD))

	entries := hook.AllEntries()
	require.Len(t, entries, 3)
	require.Equal(t, logrus.WarnLevel, entries[0].Level)
	require.Equal(t, logrus.DebugLevel, entries[1].Level)
	require.Equal(t, logrus.WarnLevel, entries[2].Level)
	require.Equal(t, uint64(3), h.Stats().Encrypted)
}

func TestHandlerConcurrent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	pub := &fakePublisher{}
	h := NewHandler(pub, time.Minute, logger)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			addr := fmt.Sprintf("A4:C1:38:00:00:%02X", g)
			for id := 0; id < 50; id++ {
				h.HandleMatch(match(addr, 0x40, 0x00, byte(id), 0x01, 0x50))
				h.HandleMatch(match(addr, 0x40, 0x00, byte(id), 0x01, 0x50))
			}
		}(g)
	}
	wg.Wait()

	require.Len(t, pub.readings, 400)
	require.Equal(t, uint64(400), h.Stats().Duplicates)
}
