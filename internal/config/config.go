package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIVersion selects which wallet service contract the client speaks
type APIVersion string

const (
	APIVersionV1     APIVersion = "v1"
	APIVersionLegacy APIVersion = "legacy"
)

// Config holds all application configuration
type Config struct {
	// API settings
	BaseURL    string        `yaml:"base_url"`
	APIVersion APIVersion    `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	Network    string        `yaml:"network"`

	// Readiness settings
	APIReadyAttempts int           `yaml:"api_ready_attempts"`
	APIReadyDelay    time.Duration `yaml:"api_ready_delay"`

	// Export settings
	DataDir string `yaml:"data_dir"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:          "http://localhost:8000",
		APIVersion:       APIVersionV1,
		Timeout:          30 * time.Second,
		Network:          "mainnet",
		APIReadyAttempts: 30,
		APIReadyDelay:    time.Second,
		DataDir:          "~/.dash33",
	}
}

// LoadFromFile overlays the values found in a YAML file onto the configuration.
// Keys missing from the file keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if baseURL := os.Getenv("DASH33_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if version := os.Getenv("DASH33_API_VERSION"); version != "" {
		c.APIVersion = APIVersion(strings.ToLower(version))
	}

	if timeout := os.Getenv("DASH33_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.Timeout = time.Duration(t) * time.Millisecond
		}
	}

	if attempts := os.Getenv("DASH33_API_READY_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			c.APIReadyAttempts = a
		}
	}

	if dataDir := os.Getenv("DASH33_DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}

	if network := os.Getenv("DASH33_NETWORK"); network != "" {
		c.Network = network
	}
}

// ResolveDataDir expands a leading ~ in DataDir to the user's home directory
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir == "~" || strings.HasPrefix(c.DataDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(homeDir, strings.TrimPrefix(c.DataDir, "~")), nil
	}
	return c.DataDir, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL must include a host, got: %q", c.BaseURL)
	}

	switch c.APIVersion {
	case APIVersionV1, APIVersionLegacy:
	default:
		return fmt.Errorf("API version must be %q or %q, got: %q", APIVersionV1, APIVersionLegacy, c.APIVersion)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %s", c.Timeout)
	}

	if c.APIReadyAttempts <= 0 {
		return fmt.Errorf("API ready attempts must be positive, got: %d", c.APIReadyAttempts)
	}

	return nil
}
