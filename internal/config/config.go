// Package config provides configuration loading and defaults for the
// nas-power-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// PathsConfig holds the host filesystem paths used for device enumeration and
// health monitoring. Proc and Sys usually point at bind-mounted host
// directories when running in a container; Dev must be the real device-node
// directory for smartctl to address raw disks.
type PathsConfig struct {
	Proc string `yaml:"proc"`
	Sys  string `yaml:"sys"`
	Dev  string `yaml:"dev"`
}

// DevicesConfig restricts which block devices are classified and counted in
// the power model. Both lists accept glob patterns.
type DevicesConfig struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// PowerConfig shadows individual catalog wattages. Nil fields leave the
// bundled reference value in effect.
type PowerConfig struct {
	CPUTDPWatts      *float64 `yaml:"cpu_tdp_watts"`
	HDDActiveWatts   *float64 `yaml:"hdd_active_watts"`
	HDDIdleWatts     *float64 `yaml:"hdd_idle_watts"`
	SSDWatts         *float64 `yaml:"ssd_watts"`
	NVMeWatts        *float64 `yaml:"nvme_watts"`
	MemoryStickWatts *float64 `yaml:"memory_stick_watts"`
}

// ExternalPowerConfig points at an upstream power sensor (a Home Assistant
// style REST states endpoint). When URL and Entity are both set, the sensor
// reading takes priority over internal estimation.
type ExternalPowerConfig struct {
	URL    string `yaml:"url"`
	Entity string `yaml:"entity"`
	Token  string `yaml:"token"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// Config is the top-level configuration structure for the nas-power-mcp
// server.
type Config struct {
	Server   ServerConfig        `yaml:"server"`
	Paths    PathsConfig         `yaml:"paths"`
	Devices  DevicesConfig       `yaml:"devices"`
	Power    PowerConfig         `yaml:"power"`
	External ExternalPowerConfig `yaml:"external_power"`
	Audit    AuditConfig         `yaml:"audit"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// It returns a pointer to the populated Config and any error encountered.
// On error, nil is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Paths: PathsConfig{
			Proc: "/host/proc",
			Sys:  "/host/sys",
			Dev:  "/dev",
		},
		External: ExternalPowerConfig{
			Timeout: 5,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "/config/audit.log",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment
// variables. Recognized variables:
//   - NAS_POWER_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - HA_API_URL, HA_ENTITY_POWER, HA_API_TOKEN override the external power
//     sensor settings
//   - HARDWARE_TDP_CPU, HARDWARE_TDP_HDD_ACTIVE, HARDWARE_TDP_HDD_IDLE,
//     HARDWARE_TDP_SSD, HARDWARE_TDP_NVME, HARDWARE_TDP_MEMORY override
//     the corresponding catalog wattages
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("NAS_POWER_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if url := os.Getenv("HA_API_URL"); url != "" {
		cfg.External.URL = url
	}
	if entity := os.Getenv("HA_ENTITY_POWER"); entity != "" {
		cfg.External.Entity = entity
	}
	if token := os.Getenv("HA_API_TOKEN"); token != "" {
		cfg.External.Token = token
	}

	applyWattsEnv("HARDWARE_TDP_CPU", &cfg.Power.CPUTDPWatts)
	applyWattsEnv("HARDWARE_TDP_HDD_ACTIVE", &cfg.Power.HDDActiveWatts)
	applyWattsEnv("HARDWARE_TDP_HDD_IDLE", &cfg.Power.HDDIdleWatts)
	applyWattsEnv("HARDWARE_TDP_SSD", &cfg.Power.SSDWatts)
	applyWattsEnv("HARDWARE_TDP_NVME", &cfg.Power.NVMeWatts)
	applyWattsEnv("HARDWARE_TDP_MEMORY", &cfg.Power.MemoryStickWatts)
}

// applyWattsEnv parses the named environment variable as a float and stores
// it in dst when set and valid. Unparseable values are ignored so a typo
// cannot take the power model down.
func applyWattsEnv(name string, dst **float64) {
	raw := os.Getenv(name)
	if raw == "" {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	*dst = &v
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
