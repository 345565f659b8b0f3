package backend

import (
	"context"
	"errors"
	"fmt"

	"statescan/internal/cache"
	"statescan/internal/llm"
	"statescan/internal/model"
	"statescan/internal/worker"
)

// Failure classes for one jurisdiction's fetch. Timeout and quota are
// retryable; a bad credential is terminal for the whole survey's backend.
var (
	ErrTimeout        = errors.New("fetch timed out")
	ErrBadCredential  = errors.New("invalid or missing credential")
	ErrQuotaExhausted = errors.New("rate limit or quota exhausted")
	ErrUnavailable    = errors.New("backend unavailable")
)

// Backend answers one jurisdiction's query. Implementations are stateless,
// swappable strategies selected once per survey; they never touch the
// session store — recording outcomes is the scheduler's job.
type Backend interface {
	Name() string
	Fetch(ctx context.Context, j model.Jurisdiction, query string) (*model.Statute, error)
}

// FetchError carries the human-readable failure for one jurisdiction plus
// the failure class for errors.Is checks.
type FetchError struct {
	State   model.StateCode
	Backend string
	Message string
	Kind    error // one of the sentinels above, or nil for unclassified
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch for %s: %s", e.Backend, e.State, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Kind
}

// Retryable reports whether the failure class is worth retrying.
func (e *FetchError) Retryable() bool {
	return errors.Is(e.Kind, ErrTimeout) || errors.Is(e.Kind, ErrQuotaExhausted) || errors.Is(e.Kind, ErrUnavailable)
}

func newFetchError(state model.StateCode, backendName, message string, kind error) *FetchError {
	return &FetchError{State: state, Backend: backendName, Message: message, Kind: kind}
}

// New builds the backend named by cfg.Backend.
func New(cfg *model.Config) (Backend, error) {
	switch cfg.Backend {
	case "simulated", "":
		return NewSimulated(cfg.Simulated), nil

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			return nil, fmt.Errorf("llm backend: %w", err)
		}
		return NewLLM(provider, cfg.LLM), nil

	case "api":
		var c cache.Cache
		if cfg.Cache.Enabled {
			c = cache.NewMemoryCache(cfg.Cache.TTL, 2*cfg.Cache.TTL)
		}
		limiter := worker.NewLimiter(cfg.API.RateLimit, cfg.API.Burst)
		return NewAPI(cfg.API, cfg.HTTP, limiter, c, cfg.Cache.TTL)

	default:
		return nil, fmt.Errorf("unknown backend mode: %s (supported: simulated, llm, api)", cfg.Backend)
	}
}
