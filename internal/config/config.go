package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config drives the scan command.
type Config struct {
	LogLevel string     `yaml:"log_level"`
	Scan     ScanConfig `yaml:"scan"`
	MQTT     MQTTConfig `yaml:"mqtt"`
}

type ScanConfig struct {
	// Timeout stops scanning after the given duration; zero scans until interrupted.
	Timeout time.Duration `yaml:"timeout"`
	// DedupWindow is how long a repeat of a device's last packet id is
	// treated as a retransmission of the same reading.
	DedupWindow time.Duration `yaml:"dedup_window"`
	// AddressAllow restricts decoding to the listed device addresses.
	AddressAllow []string `yaml:"address_allow"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Scan: ScanConfig{
			DedupWindow: 30 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker:      "localhost",
			Port:        1883,
			ClientID:    "gobthome",
			TopicPrefix: "bthome",
		},
	}
}

// Load reads an optional YAML file on top of the defaults, then applies
// BTHOME_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("BTHOME_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("BTHOME_MQTT_BROKER"); ok {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
	if v, ok := get("BTHOME_MQTT_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BTHOME_MQTT_PORT %q: %w", v, err)
		}
		c.MQTT.Port = port
	}
	if v, ok := get("BTHOME_MQTT_CLIENT_ID"); ok {
		c.MQTT.ClientID = v
	}
	if v, ok := get("BTHOME_MQTT_TOPIC_PREFIX"); ok {
		c.MQTT.TopicPrefix = v
	}
	return nil
}

// Validate checks ranges and normalizes addresses in place.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.Scan.Timeout < 0 {
		return fmt.Errorf("scan.timeout must not be negative, got %v", c.Scan.Timeout)
	}
	if c.Scan.DedupWindow <= 0 {
		return fmt.Errorf("scan.dedup_window must be positive, got %v", c.Scan.DedupWindow)
	}
	for i, addr := range c.Scan.AddressAllow {
		norm, err := NormalizeAddress(addr)
		if err != nil {
			return err
		}
		c.Scan.AddressAllow[i] = norm
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			return fmt.Errorf("mqtt.port out of range: %d", c.MQTT.Port)
		}
		if strings.TrimSpace(c.MQTT.TopicPrefix) == "" {
			return fmt.Errorf("mqtt.topic_prefix is required when mqtt is enabled")
		}
	}
	return nil
}

// Level returns the parsed log level. Call after Validate.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// NormalizeAddress validates a 48-bit device address and returns it in
// upper-case colon form (AA:BB:CC:DD:EE:FF).
func NormalizeAddress(input string) (string, error) {
	clean := stripSeparators(input)
	if len(clean) != 12 {
		return "", fmt.Errorf("device address must be 12 hex digits (6 bytes), got %d", len(clean))
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return "", fmt.Errorf("invalid device address %q: %w", input, err)
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5]), nil
}

func stripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == ':' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
