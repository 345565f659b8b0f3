package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Upstream failure classes. Callers need to tell retryable conditions
// (timeout, quota) from terminal ones (bad credential), so providers map
// their transport-specific failures onto these sentinels.
var (
	ErrTimeout = errors.New("llm: request timed out")
	ErrAuth    = errors.New("llm: invalid or missing credential")
	ErrQuota   = errors.New("llm: rate limit or quota exhausted")
)

// Provider is one AI-assisted statute retrieval backend.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Retrieve asks the model for one state's statute answering the query.
	Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// RetrieveRequest contains the input for one statute retrieval.
type RetrieveRequest struct {
	// StateCode and StateName identify the jurisdiction being asked about.
	StateCode string
	StateName string

	// Query is the jurisdiction-tuned query string.
	Query string

	// Model is the specific model to use (provider-specific).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// RetrieveResponse is the structured answer parsed from the model output.
type RetrieveResponse struct {
	Citation      string `json:"citation"`
	Excerpt       string `json:"excerpt"`
	EffectiveDate string `json:"effective_date"`
	SourceURL     string `json:"source_url"`
	Confidence    int    `json:"confidence"`

	// Model is the model that generated the response.
	Model string `json:"-"`

	// TokensUsed tracks token consumption.
	TokensUsed int `json:"-"`
}

// Config holds LLM provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   30,
		MaxTokens: 700,
	}
}

const retrievalSystemPrompt = "You are a legal research assistant. You answer with a single JSON object and nothing else. You only cite statutes you are confident exist."

// BuildPrompt constructs the retrieval prompt for one state.
func BuildPrompt(req RetrieveRequest) string {
	return fmt.Sprintf(`Find the %s (%s) statute that answers this research query:

  %s

Respond with ONLY a JSON object, no prose, with exactly these fields:
{
  "citation": "official statute citation",
  "excerpt": "short quotation or faithful paraphrase of the operative text",
  "effective_date": "YYYY-MM-DD or empty if unknown",
  "source_url": "canonical URL on the state legislature or official code site",
  "confidence": 0-100
}

Rules:
1. The citation must be from the official %s compilation, not a commercial aggregator.
2. If you cannot identify a specific statute, set confidence below 40 and say so in the excerpt.
3. Never invent a source_url; prefer the state legislature's own domain.`,
		req.StateName, req.StateCode, req.Query, req.StateName)
}

// ParseRetrieval extracts the JSON object from a model response. Models
// occasionally wrap the object in code fences or prose; take the outermost
// braces and parse those.
func ParseRetrieval(text string) (*RetrieveResponse, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var resp RetrieveResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}

	if strings.TrimSpace(resp.Citation) == "" {
		return nil, fmt.Errorf("model response has no citation")
	}
	if resp.Confidence < 0 {
		resp.Confidence = 0
	}
	if resp.Confidence > 100 {
		resp.Confidence = 100
	}
	return &resp, nil
}

// classifyStatus maps an HTTP status code from a provider API onto the
// sentinel errors above; statuses that need no special handling return nil.
func classifyStatus(status int) error {
	switch status {
	case 401, 403:
		return ErrAuth
	case 429:
		return ErrQuota
	case 408, 504:
		return ErrTimeout
	}
	return nil
}
