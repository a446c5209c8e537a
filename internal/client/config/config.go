// Package config handles configuration for the keydir CLI,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the keydir CLI.
//
// Fields:
//   - ServerEndpoint: base URL of the keydir server.
//   - KeystorePath: location of the encrypted signing-key file.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	ServerEndpoint string
	KeystorePath   string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpoint = "http://127.0.0.1:8080"
	c.KeystorePath = "keydir.keys"
	c.RequestTimeout = 10 * time.Second
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
