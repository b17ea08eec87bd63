package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/d21d3q/gobthome/internal/config"
)

// Reading is the JSON document published for each decoded advertisement.
type Reading struct {
	Address      string         `json:"address"`
	Name         string         `json:"name,omitempty"`
	RSSI         int16          `json:"rssi"`
	Timestamp    time.Time      `json:"timestamp"`
	Version      uint8          `json:"bthome_version"`
	TriggerBased bool           `json:"trigger_based"`
	Fields       map[string]any `json:"fields"`
}

type Client struct {
	client    paho.Client
	cfg       config.MQTTConfig
	log       logrus.FieldLogger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClient(cfg config.MQTTConfig, log logrus.FieldLogger) *Client {
	c := &Client{
		cfg:    cfg,
		log:    log.WithField("component", "mqtt"),
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.setConnected(true)
		c.log.WithFields(logrus.Fields{"broker": cfg.Broker, "port": cfg.Port}).Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.setConnected(false)
		c.log.WithError(err).Warn("mqtt connection lost")
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect waits for the initial connection while honoring ctx and Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("client stopped")
	default:
	}
	if c.IsConnected() {
		return nil
	}

	// With ConnectRetry the token may stay pending while paho retries.
	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return fmt.Errorf("client stopped")
		default:
		}
	}
}

// PublishReading publishes r to <prefix>/<address>/state.
func (c *Client) PublishReading(r Reading) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	topic := Topic(c.cfg.TopicPrefix, r.Address)
	data, err := encodeReading(r)
	if err != nil {
		return err
	}

	token := c.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading: %w", err)
	}
	c.log.WithField("topic", topic).Debug("published reading")
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect is idempotent; afterwards Connect returns "client stopped".
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
	c.log.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Topic builds the state topic for a device address.
func Topic(prefix, address string) string {
	id := strings.ToLower(strings.ReplaceAll(address, ":", ""))
	return strings.TrimSuffix(prefix, "/") + "/" + id + "/state"
}

func encodeReading(r Reading) ([]byte, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if r.Fields == nil {
		r.Fields = map[string]any{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reading: %w", err)
	}
	return data, nil
}
