package config

import "time"

// Config holds runtime settings for the vinocave client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the document store gRPC endpoint.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: sqlite file holding the local mirror and bound owner.
//   - RequestTimeout: per-call deadline for remote requests.
//   - LogLevel: debug, info, warn or error.
//   - OwnerName: display name given to a cellar created on this device.
type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	RequestTimeout      time.Duration
	LogLevel            string
	OwnerName           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "vinocave.db"
	c.RequestTimeout = 12 * time.Second
	c.LogLevel = "warn"
	c.OwnerName = "Ma cave"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
