package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. PHISH_FILTER_DETECTION_THRESHOLD
const EnvPrefix = "PHISH_FILTER"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	return NewFromFile("")
}

// NewFromFile creates a configuration instance. An empty path searches the default
// locations for config.yaml.
func NewFromFile(path string) (*Config, error) {
	// Credentials usually live in .env next to the binary
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/phish-filter/")
		v.AddConfigPath("$HOME/.phish-filter")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Detection defaults. Empty lists keep the built-in tables.
	v.SetDefault("detection.threshold", 50.0)
	v.SetDefault("detection.similarity_metric", "dice")
	v.SetDefault("detection.legitimate_domains", []string{})
	v.SetDefault("detection.phishing_keywords", []string{})
	v.SetDefault("detection.suspicious_tlds", []string{})
	v.SetDefault("detection.shortener_domains", []string{})
	v.SetDefault("detection.urgency_phrases", []string{})
	v.SetDefault("detection.custom_patterns", []string{})

	// Verifier defaults
	v.SetDefault("verifiers.timeout", "5s")
	v.SetDefault("verifiers.max_redirects", 5)
	v.SetDefault("verifiers.dns.enabled", true)
	v.SetDefault("verifiers.redirect.enabled", true)
	v.SetDefault("verifiers.redirect.user_agent", "phish-filter/1.0")

	// Threat intelligence defaults
	v.SetDefault("threat_intel.providers", []string{})
	v.SetDefault("threat_intel.google_safe_browsing.api_key", "")
	v.SetDefault("threat_intel.google_safe_browsing.base_url", "https://safebrowsing.googleapis.com")
	v.SetDefault("threat_intel.google_safe_browsing.client_id", "phish-filter")
	v.SetDefault("threat_intel.virustotal.api_key", "")
	v.SetDefault("threat_intel.virustotal.base_url", "https://www.virustotal.com")
	v.SetDefault("threat_intel.phishtank.app_key", "")
	v.SetDefault("threat_intel.phishtank.base_url", "https://checkurl.phishtank.com")

	// Model defaults
	v.SetDefault("model.provider", "fallback")
	v.SetDefault("model.logistic_path", "")
	v.SetDefault("model.timeout", "10s")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 100)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 100)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 100)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.top_p", 0.9)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_frequency", "10m")
	v.SetDefault("cache.sqlite_path", "/data/phish_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/phish_filter?parseTime=true")

	// Server defaults
	v.SetDefault("server.filter_type", "http")
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.gin_mode", "release")

	// SMTP content filter defaults
	v.SetDefault("smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("smtp.block_phishing", false)
	v.SetDefault("smtp.max_body_size", 65536)
	v.SetDefault("smtp.whitelisted_domains", []string{})
	v.SetDefault("smtp.headers.status", "X-Phishing-Status")
	v.SetDefault("smtp.headers.score", "X-Phishing-Score")
	v.SetDefault("smtp.headers.reasons", "X-Phishing-Reasons")
	v.SetDefault("smtp.modify_subject", false)
	v.SetDefault("smtp.subject_prefix", "[PHISHING] ")
	v.SetDefault("smtp.postfix.enabled", true)
	v.SetDefault("smtp.postfix.address", "127.0.0.1")
	v.SetDefault("smtp.postfix.port", 10026)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
