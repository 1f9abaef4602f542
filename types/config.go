package types

import (
	"fmt"
	"net"
	"strconv"

	"github.com/CefBoud/minikafka/logging"
)

// DefaultMaxMessageSize bounds the buffer allocated for a single request frame (100 MiB).
const DefaultMaxMessageSize = 100 * 1024 * 1024

// Environment variables consulted by ApplyEnv.
const (
	EnvBrokerPort = "MINIKAFKA_PORT"
	EnvLogLevel   = "MINIKAFKA_LOG_LEVEL"
)

// Configuration holds the broker settings
type Configuration struct {
	BrokerHost     string
	BrokerPort     uint32
	MaxMessageSize int32
	LogLevel       string
	MetricsAddr    string // empty disables the Prometheus endpoint
}

// DefaultConfig returns the settings used when no flag or environment override is given.
func DefaultConfig() Configuration {
	return Configuration{
		BrokerHost:     "0.0.0.0",
		BrokerPort:     9092,
		MaxMessageSize: DefaultMaxMessageSize,
		LogLevel:       logging.INFO,
	}
}

// Address is the host:port the broker listens on.
func (c *Configuration) Address() string {
	return net.JoinHostPort(c.BrokerHost, strconv.FormatUint(uint64(c.BrokerPort), 10))
}

// ApplyEnv overrides fields from the environment. lookup is normally os.LookupEnv.
func (c *Configuration) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBrokerPort); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvBrokerPort, v, err)
		}
		c.BrokerPort = uint32(port)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the configuration before the broker starts.
func (c *Configuration) Validate() error {
	if c.BrokerPort > 65535 {
		return fmt.Errorf("broker port %d out of range", c.BrokerPort)
	}
	// the smallest valid frame carries the 8 fixed header bytes
	if c.MaxMessageSize < 8 {
		return fmt.Errorf("max message size %d is below the 8 byte request header", c.MaxMessageSize)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
