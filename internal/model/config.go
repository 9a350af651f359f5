package model

import "time"

// Config holds the complete Prevetta configuration.
// Hierarchy: CLI flags > PREVETTA_* env vars > config file > defaults.
type Config struct {
	OpenAI       OpenAIConfig       `yaml:"openai"`
	Limits       LimitsConfig       `yaml:"limits"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache"`
	Server       ServerConfig       `yaml:"server"`
	Output       OutputConfig       `yaml:"output"`
}

// OpenAIConfig configures the OpenAI-compatible classifier endpoint.
type OpenAIConfig struct {
	APIKey             string        `yaml:"api_key"`
	BaseURL            string        `yaml:"base_url"` // custom endpoint (gateways, tests)
	ModerationModel    string        `yaml:"moderation_model"`
	VisionModel        string        `yaml:"vision_model"`
	AnalysisModel      string        `yaml:"analysis_model"`
	TranscriptionModel string        `yaml:"transcription_model"`
	Timeout            time.Duration `yaml:"timeout"` // per-adapter call timeout
	MaxRetries         int           `yaml:"max_retries"`
	MaxTokens          int           `yaml:"max_tokens"`
	HTTPProxy          string        `yaml:"http_proxy"`
	HTTPSProxy         string        `yaml:"https_proxy"`
	NoProxy            string        `yaml:"no_proxy"`
}

// LimitsConfig holds hard input guardrails enforced before any classifier
// call.
type LimitsConfig struct {
	MaxPayloadBytes int64 `yaml:"max_payload_bytes"`
}

// ConcurrencyConfig bounds batch parallelism.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// RateLimitingConfig throttles calls per classifier source.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// CacheConfig controls the verdict cache.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Dir             string        `yaml:"dir"` // disk layer location, empty = memory only
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			ModerationModel:    "omni-moderation-latest",
			VisionModel:        "gpt-4o-mini",
			AnalysisModel:      "gpt-4o",
			TranscriptionModel: "whisper-1",
			Timeout:            30 * time.Second,
			MaxRetries:         3,
			MaxTokens:          1000,
		},
		Limits: LimitsConfig{
			MaxPayloadBytes: 10 << 20, // 10 MiB
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             15 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
