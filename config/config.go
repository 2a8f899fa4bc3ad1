// Package config holds the operator defaults consumed when a new
// session is built: protocol, target address, and the optional initial
// payload. The engine core reads it once per session and never writes
// it back.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/types"
)

type Config struct {
	Protocol               string `json:"protocol"`
	Address                string `json:"address"`
	Port                   int    `json:"port"`
	InitialPayload         string `json:"initial_payload"`
	InitialPayloadEncoding string `json:"initial_payload_encoding"`

	LogLines  int    `json:"log_lines"`
	LogsDir   string `json:"logs_dir"`
	RecentDir string `json:"recent_dir"`
}

var (
	defaultConfig *Config
	defaultErr    error
	once          sync.Once
)

func Default() *Config {
	return &Config{
		Protocol:               "tcp",
		Address:                "127.0.0.1",
		Port:                   8080,
		InitialPayloadEncoding: "hex",
		LogLines:               1000,
		LogsDir:                "logs",
		RecentDir:              "recent",
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		// Try default locations
		defaultPaths := []string{
			"usmu.json",
			".usmu.json",
			filepath.Join(os.Getenv("HOME"), ".config", "usmu", "config.json"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}

		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Apply defaults for any zero values
	if cfg.Protocol == "" {
		cfg.Protocol = "tcp"
	}
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1"
	}
	if cfg.Port <= 0 {
		cfg.Port = 8080
	}
	if cfg.InitialPayloadEncoding == "" {
		cfg.InitialPayloadEncoding = "hex"
	}
	if cfg.LogLines <= 0 {
		cfg.LogLines = 1000
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = "logs"
	}
	if cfg.RecentDir == "" {
		cfg.RecentDir = "recent"
	}

	return cfg, nil
}

// LoadDefault loads the config once and caches it. The returned config
// is never nil: a failed load caches the defaults alongside the error.
func LoadDefault() (*Config, error) {
	once.Do(func() {
		defaultConfig, defaultErr = Load("")
		if defaultConfig == nil {
			defaultConfig = Default()
		}
	})
	return defaultConfig, defaultErr
}

// Endpoint converts the configured target into a validated Endpoint.
func (c *Config) Endpoint() (types.Endpoint, error) {
	proto, err := types.ParseProtocol(c.Protocol)
	if err != nil {
		return types.Endpoint{}, err
	}
	ep := types.Endpoint{Protocol: proto, Host: c.Address, Port: c.Port}
	if err := ep.Validate(); err != nil {
		return types.Endpoint{}, err
	}
	return ep, nil
}

// Initial encodes the configured initial payload, or nil when none is
// set.
func (c *Config) Initial() (*types.Payload, error) {
	if c.InitialPayload == "" {
		return nil, nil
	}
	enc, err := types.ParseEncoding(c.InitialPayloadEncoding)
	if err != nil {
		return nil, err
	}
	p, err := payload.Encode(c.InitialPayload, enc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
