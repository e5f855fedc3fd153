package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the kbnsearch API configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Access  AccessConfig  `yaml:"access"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MongoConfig holds document store connection settings.
type MongoConfig struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`

	// Collection name overrides for non-standard deployments.
	AccountingCollection string `yaml:"accounting_collection"`
	BookingsCollection   string `yaml:"bookings_collection"`
	SalesCollection      string `yaml:"sales_collection"`
}

// CacheConfig holds the optional Redis option-cache settings. An empty
// addrs list disables caching.
type CacheConfig struct {
	Addrs        []string `yaml:"addrs"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db"`
	OptionTTLSec int      `yaml:"option_ttl_sec"`
}

// SearchConfig holds the cascade tuning parameters.
type SearchConfig struct {
	ResultCap           int    `yaml:"result_cap"`
	NamePrefixThreshold int    `yaml:"name_prefix_threshold"`
	RecentScanThreshold int    `yaml:"recent_scan_threshold"`
	RecentFetchLimit    int    `yaml:"recent_fetch_limit"`
	RecentWindowDays    int    `yaml:"recent_window_days"`
	MinTermLength       int    `yaml:"min_term_length"`
	UnscopedPolicy      string `yaml:"unscoped_policy"` // allow (legacy) | deny
}

// AccessConfig maps API keys to geographic access profiles. An empty map
// leaves the API open with unrestricted visibility (local development).
type AccessConfig struct {
	Profiles map[string]AccessProfile `yaml:"profiles"`
}

// AccessProfile is one caller's geographic visibility.
type AccessProfile struct {
	Unrestricted bool     `yaml:"unrestricted"`
	Provinces    []string `yaml:"provinces"`
	Branches     []string `yaml:"branches"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Mongo.ReadinessTimeout <= 0 {
		c.Mongo.ReadinessTimeout = 10
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "kbn"
	}
	if c.Cache.OptionTTLSec <= 0 {
		c.Cache.OptionTTLSec = 30
	}
	if c.Search.ResultCap <= 0 {
		c.Search.ResultCap = 50
	}
	if c.Search.NamePrefixThreshold <= 0 {
		c.Search.NamePrefixThreshold = 15
	}
	if c.Search.RecentScanThreshold <= 0 {
		c.Search.RecentScanThreshold = 5
	}
	if c.Search.RecentFetchLimit <= 0 {
		c.Search.RecentFetchLimit = 100
	}
	if c.Search.RecentWindowDays <= 0 {
		c.Search.RecentWindowDays = 90
	}
	if c.Search.MinTermLength <= 0 {
		c.Search.MinTermLength = 2
	}
	if c.Search.UnscopedPolicy == "" {
		c.Search.UnscopedPolicy = "allow"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	switch c.Search.UnscopedPolicy {
	case "allow", "deny":
		// ok
	default:
		return fmt.Errorf(
			"search.unscoped_policy must be \"allow\" or \"deny\", got %q",
			c.Search.UnscopedPolicy,
		)
	}
	for key, p := range c.Access.Profiles {
		if !p.Unrestricted && len(p.Provinces) == 0 && len(p.Branches) == 0 && c.Search.UnscopedPolicy == "deny" {
			return fmt.Errorf(
				"access.profiles[%s] has no scope and search.unscoped_policy is deny; the key would never see results",
				key,
			)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
