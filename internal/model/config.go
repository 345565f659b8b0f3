package model

import "time"

// Config is the full statescan configuration. The scheduler receives a
// snapshot of it at survey start; nothing reads it ambiently mid-survey, so
// editing settings while a survey runs cannot change that survey's behavior.
type Config struct {
	Backend   string          `yaml:"backend"` // simulated, llm, api
	Survey    SurveyConfig    `yaml:"survey"`
	Simulated SimulatedConfig `yaml:"simulated"`
	LLM       LLMConfig       `yaml:"llm"`
	API       APIConfig       `yaml:"api"`
	Verify    VerifyConfig    `yaml:"verify"`
	Cache     CacheConfig     `yaml:"cache"`
	Archive   ArchiveConfig   `yaml:"archive"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// SurveyConfig tunes the scheduler.
type SurveyConfig struct {
	BatchSize            int  `yaml:"batch_size"`             // states fetched concurrently per batch
	MaxConcurrentSurveys int  `yaml:"max_concurrent_surveys"` // process-wide running-session ceiling
	AutoVerify           bool `yaml:"auto_verify"`            // run the trust verifier on each success
}

// SimulatedConfig tunes the no-I/O demo backend. The rates and the latency
// window are tuning values, not contract: tests set them explicitly.
type SimulatedConfig struct {
	FailureRate   float64       `yaml:"failure_rate"`   // probability of an outright fetch failure
	AmbiguousRate float64       `yaml:"ambiguous_rate"` // probability of a low-confidence result
	MinLatency    time.Duration `yaml:"min_latency"`
	MaxLatency    time.Duration `yaml:"max_latency"`
	Seed          int64         `yaml:"seed"` // 0 means time-seeded
}

// LLMConfig configures the AI-assisted retrieval backend.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// APIConfig configures the structured legal-data API backend.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key,omitempty"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second against the API host
	Burst     int           `yaml:"burst"`
}

// VerifyConfig configures the trust verifier.
type VerifyConfig struct {
	LiveCheck    bool          `yaml:"live_check"` // re-fetch sources instead of the simulated checker
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	ExtraDomains []string      `yaml:"extra_domains,omitempty"` // additional authoritative domains
}

// CacheConfig configures the in-memory response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// ArchiveConfig configures the sqlite archive of finished sessions.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HTTPConfig carries proxy settings for all outbound clients.
type HTTPConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: "simulated",
		Survey: SurveyConfig{
			BatchSize:            5,
			MaxConcurrentSurveys: 5,
			AutoVerify:           true,
		},
		Simulated: SimulatedConfig{
			FailureRate:   0.20,
			AmbiguousRate: 0.15,
			MinLatency:    1 * time.Second,
			MaxLatency:    2500 * time.Millisecond,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 700,
		},
		API: APIConfig{
			Timeout:   15 * time.Second,
			RateLimit: 4,
			Burst:     4,
		},
		Verify: VerifyConfig{
			Timeout:   10 * time.Second,
			UserAgent: "statescan/0.2 (+https://github.com/statescan/statescan)",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     15 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
	}
}
