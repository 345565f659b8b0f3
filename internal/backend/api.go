package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"statescan/internal/cache"
	"statescan/internal/model"
	"statescan/internal/util"
	"statescan/internal/worker"
)

const apiMaxBodyBytes = 1 << 20

// API is the structured legal-data backend. Requests are rate limited per
// host (the upstream limits per caller, not per jurisdiction) and successful
// responses are cached so repeated surveys of the same query do not burn
// quota.
type API struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// apiSearchRequest is the wire shape of one lookup.
type apiSearchRequest struct {
	State string `json:"state"`
	Query string `json:"query"`
}

// apiSearchResponse is the structured API's answer.
type apiSearchResponse struct {
	Citation      string `json:"citation"`
	Excerpt       string `json:"excerpt"`
	EffectiveDate string `json:"effective_date"`
	Confidence    int    `json:"confidence"`
	SourceURL     string `json:"source_url"`
	SearchURL     string `json:"search_url"`
	Error         string `json:"error,omitempty"`
}

// NewAPI creates the structured API backend. cache may be nil to disable
// response caching.
func NewAPI(cfg model.APIConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter, c cache.Cache, cacheTTL time.Duration) (*API, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("api backend: base URL is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &API{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		limiter:  limiter,
		cache:    c,
		cacheTTL: cacheTTL,
	}, nil
}

// Name returns the backend name
func (b *API) Name() string {
	return "api"
}

// Fetch looks up one state's statute, consulting the cache first.
func (b *API) Fetch(ctx context.Context, j model.Jurisdiction, query string) (*model.Statute, error) {
	key := cache.Key(b.Name(), string(j.Code), query)

	if b.cache != nil {
		if raw, found := b.cache.Get(key); found {
			var st model.Statute
			if err := json.Unmarshal(raw, &st); err == nil {
				return &st, nil
			}
			// Corrupt entry: drop it and fetch fresh
			_ = b.cache.Delete(key)
		}
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx, b.baseURL); err != nil {
			return nil, newFetchError(j.Code, b.Name(), "cancelled while rate limited", ErrTimeout)
		}
	}

	st, err := b.search(ctx, j, query)
	if err != nil {
		return nil, err
	}

	if b.cache != nil {
		if raw, err := json.Marshal(st); err == nil {
			_ = b.cache.Set(key, raw, b.cacheTTL)
		}
	}

	return st, nil
}

// search performs the actual HTTP call and maps the API's status codes onto
// the fetch failure classes.
func (b *API) search(ctx context.Context, j model.Jurisdiction, query string) (*model.Statute, error) {
	body, err := json.Marshal(apiSearchRequest{State: string(j.Code), Query: query})
	if err != nil {
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("marshal request: %v", err), nil)
	}

	url := b.baseURL + "/v1/statutes/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("create request: %v", err), nil)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, newFetchError(j.Code, b.Name(), "request timed out", ErrTimeout)
		}
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("request failed: %v", err), ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, apiMaxBodyBytes))
	if err != nil {
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("read response: %v", err), ErrUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("authentication rejected (%d)", resp.StatusCode), ErrBadCredential)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newFetchError(j.Code, b.Name(), "quota exhausted (429)", ErrQuotaExhausted)
	case resp.StatusCode >= 500:
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("upstream error (%d)", resp.StatusCode), ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var parsed apiSearchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, newFetchError(j.Code, b.Name(), fmt.Sprintf("malformed response: %v", err), nil)
	}
	if parsed.Error != "" {
		return nil, newFetchError(j.Code, b.Name(), parsed.Error, nil)
	}
	if parsed.Citation == "" {
		return nil, newFetchError(j.Code, b.Name(), "response contains no citation", nil)
	}

	return &model.Statute{
		State:         j.Code,
		Citation:      parsed.Citation,
		Excerpt:       parsed.Excerpt,
		EffectiveDate: parsed.EffectiveDate,
		Confidence:    parsed.Confidence,
		SourceURL:     parsed.SourceURL,
		SearchURL:     parsed.SearchURL,
		Trust:         model.TrustUnverified,
	}, nil
}

// isTimeout reports whether a transport error is a timeout.
func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
