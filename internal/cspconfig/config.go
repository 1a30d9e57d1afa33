// Package cspconfig loads the process-level configuration for a CSP
// server: the protocol-version range it advertises, transport bind
// addresses, and the settings cache it negotiates through. Grounded on
// the teacher's internal/config.Config — a YAML-tagged struct loaded by
// LoadConfig, then overridden field-by-field from the environment.
package cspconfig

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Config is the top-level configuration tree for cmd/cspserver.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Redis    RedisConfig    `yaml:"redis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig binds the HTTP and WebSocket transports.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	WSAddr   string `yaml:"ws_addr"`
	Env      string `yaml:"env"`
}

// ProtocolConfig is the protocol version range this process advertises via
// GetSettings. It holds no flag policy.
type ProtocolConfig struct {
	MinVersion    uint16   `yaml:"min_version"`
	LatestVersion uint16   `yaml:"latest_version"`
	Supported     []uint8  `yaml:"supported_versions"`
}

// RedisConfig configures the optional settings cache.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	KeyPrefix string `yaml:"key_prefix"`
	TTLSec    int    `yaml:"ttl_sec"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LoadConfig reads and parses the YAML config file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over the YAML file,
// following the teacher's Config.applyEnvOverrides convention.
func (c *Config) applyEnvOverrides() {
	c.Server.HTTPAddr = getEnv("CSP_HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.WSAddr = getEnv("CSP_WS_ADDR", c.Server.WSAddr)
	c.Server.Env = getEnv("CSP_ENV", c.Server.Env)

	if v := getEnvInt("CSP_PROTOCOL_MIN_VERSION", -1); v >= 0 {
		c.Protocol.MinVersion = uint16(v)
	}
	if v := getEnvInt("CSP_PROTOCOL_LATEST_VERSION", -1); v >= 0 {
		c.Protocol.LatestVersion = uint16(v)
	}

	c.Redis.Addr = getEnv("CSP_REDIS_ADDR", c.Redis.Addr)
	c.Redis.KeyPrefix = getEnv("CSP_REDIS_KEY_PREFIX", c.Redis.KeyPrefix)
	if v := getEnvInt("CSP_REDIS_TTL_SEC", 0); v > 0 {
		c.Redis.TTLSec = v
	}

	c.Metrics.Addr = getEnv("CSP_METRICS_ADDR", c.Metrics.Addr)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
