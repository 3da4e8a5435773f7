package config

import (
	"sort"
	"strings"
	"time"

	"github.com/mikey/phish-filter/internal/core"
)

// DetectionConfig holds the heuristic tables and scoring parameters
type DetectionConfig struct {
	Threshold         float64
	SimilarityMetric  string
	LegitimateDomains []string
	PhishingKeywords  []string
	SuspiciousTLDs    []string
	ShortenerDomains  []string
	UrgencyPhrases    []string
	CustomPatterns    []string
	Weights           map[string]float64
}

// VerifiersConfig holds the settings of the network-backed checks
type VerifiersConfig struct {
	Timeout         time.Duration
	MaxRedirects    int
	DNSEnabled      bool
	RedirectEnabled bool
	UserAgent       string
}

// ThreatIntelConfig holds the credentials and endpoints of the reputation providers
type ThreatIntelConfig struct {
	Providers []string

	SafeBrowsingAPIKey   string
	SafeBrowsingBaseURL  string
	SafeBrowsingClientID string

	VirusTotalAPIKey  string
	VirusTotalBaseURL string

	PhishTankAppKey  string
	PhishTankBaseURL string
}

// ModelConfig selects the probability model
type ModelConfig struct {
	Provider     string
	LogisticPath string
	Timeout      time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// CacheConfig represents the verdict cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// ServerConfig selects and configures the front-end
type ServerConfig struct {
	FilterType    string
	ListenAddress string
	GinMode       string
}

// SMTPConfig represents the Postfix content filter configuration
type SMTPConfig struct {
	ListenAddress      string
	BlockPhishing      bool
	MaxBodySize        int
	WhitelistedDomains []string
	StatusHeader       string
	ScoreHeader        string
	ReasonsHeader      string
	ModifySubject      bool
	SubjectPrefix      string
	PostfixEnabled     bool
	PostfixAddress     string
	PostfixPort        int
}

// GetDetection returns the detection configuration
func (c *Config) GetDetection() DetectionConfig {
	weights := make(map[string]float64)
	for key := range c.v.GetStringMap("detection.weights") {
		weights[strings.ToLower(key)] = c.v.GetFloat64("detection.weights." + key)
	}

	return DetectionConfig{
		Threshold:         c.GetFloat64("detection.threshold"),
		SimilarityMetric:  c.GetString("detection.similarity_metric"),
		LegitimateDomains: c.GetStringSlice("detection.legitimate_domains"),
		PhishingKeywords:  c.GetStringSlice("detection.phishing_keywords"),
		SuspiciousTLDs:    c.GetStringSlice("detection.suspicious_tlds"),
		ShortenerDomains:  c.GetStringSlice("detection.shortener_domains"),
		UrgencyPhrases:    c.GetStringSlice("detection.urgency_phrases"),
		CustomPatterns:    c.GetStringSlice("detection.custom_patterns"),
		Weights:           weights,
	}
}

// GetVerifiers returns the verifier configuration. Invalid durations fall back to the
// built-in timeout.
func (c *Config) GetVerifiers() VerifiersConfig {
	timeout, err := c.GetDuration("verifiers.timeout")
	if err != nil || timeout <= 0 {
		timeout = core.DefaultVerifierTimeout
	}

	return VerifiersConfig{
		Timeout:         timeout,
		MaxRedirects:    c.GetInt("verifiers.max_redirects"),
		DNSEnabled:      c.GetBool("verifiers.dns.enabled"),
		RedirectEnabled: c.GetBool("verifiers.redirect.enabled"),
		UserAgent:       c.GetString("verifiers.redirect.user_agent"),
	}
}

// GetThreatIntel returns the threat intelligence configuration
func (c *Config) GetThreatIntel() ThreatIntelConfig {
	return ThreatIntelConfig{
		Providers:            c.GetStringSlice("threat_intel.providers"),
		SafeBrowsingAPIKey:   c.GetString("threat_intel.google_safe_browsing.api_key"),
		SafeBrowsingBaseURL:  c.GetString("threat_intel.google_safe_browsing.base_url"),
		SafeBrowsingClientID: c.GetString("threat_intel.google_safe_browsing.client_id"),
		VirusTotalAPIKey:     c.GetString("threat_intel.virustotal.api_key"),
		VirusTotalBaseURL:    c.GetString("threat_intel.virustotal.base_url"),
		PhishTankAppKey:      c.GetString("threat_intel.phishtank.app_key"),
		PhishTankBaseURL:     c.GetString("threat_intel.phishtank.base_url"),
	}
}

// GetModel returns the model configuration
func (c *Config) GetModel() ModelConfig {
	timeout, err := c.GetDuration("model.timeout")
	if err != nil {
		timeout = 10 * time.Second
	}
	return ModelConfig{
		Provider:     strings.ToLower(c.GetString("model.provider")),
		LogisticPath: c.GetString("model.logistic_path"),
		Timeout:      timeout,
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetServer returns the front-end configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:    c.GetString("server.filter_type"),
		ListenAddress: c.GetString("server.listen_address"),
		GinMode:       c.GetString("server.gin_mode"),
	}
}

// GetSMTP returns the Postfix content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:      c.GetString("smtp.listen_address"),
		BlockPhishing:      c.GetBool("smtp.block_phishing"),
		MaxBodySize:        c.GetInt("smtp.max_body_size"),
		WhitelistedDomains: c.GetStringSlice("smtp.whitelisted_domains"),
		StatusHeader:       c.GetString("smtp.headers.status"),
		ScoreHeader:        c.GetString("smtp.headers.score"),
		ReasonsHeader:      c.GetString("smtp.headers.reasons"),
		ModifySubject:      c.GetBool("smtp.modify_subject"),
		SubjectPrefix:      c.GetString("smtp.subject_prefix"),
		PostfixEnabled:     c.GetBool("smtp.postfix.enabled"),
		PostfixAddress:     c.GetString("smtp.postfix.address"),
		PostfixPort:        c.GetInt("smtp.postfix.port"),
	}
}

// Overrides converts the detection and verifier sections into core overrides.
// Empty lists keep the built-in defaults.
func (c *Config) Overrides() core.Overrides {
	d := c.GetDetection()
	vc := c.GetVerifiers()

	weights := make(map[core.Signal]float64, len(d.Weights))
	for name, w := range d.Weights {
		weights[core.Signal(name)] = w
	}
	threshold := d.Threshold

	return core.Overrides{
		LegitimateDomains: nonEmpty(d.LegitimateDomains),
		PhishingKeywords:  nonEmpty(d.PhishingKeywords),
		SuspiciousTLDs:    nonEmpty(d.SuspiciousTLDs),
		ShortenerDomains:  nonEmpty(d.ShortenerDomains),
		UrgencyPhrases:    nonEmpty(d.UrgencyPhrases),
		CustomPatterns:    nonEmpty(d.CustomPatterns),
		Weights:           weights,
		PhishingThreshold: &threshold,
		SimilarityMetric:  d.SimilarityMetric,
		VerifierTimeout:   vc.Timeout,
		MaxRedirects:      vc.MaxRedirects,
	}
}

// UnknownWeights lists the detection.weights keys that name no signal, in sorted order.
// Such weights are never applied.
func (c *Config) UnknownWeights() []string {
	var unknown []string
	for name := range c.GetDetection().Weights {
		if !core.IsKnownSignal(core.Signal(name)) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Settings builds the immutable detection snapshot from the configuration
func (c *Config) Settings() *core.Settings {
	return core.NewSettings(c.Overrides())
}

func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
