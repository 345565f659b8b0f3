package backend

import (
	"context"
	"errors"
	"fmt"

	"statescan/internal/llm"
	"statescan/internal/model"
)

// LLM is the AI-assisted backend: it delegates retrieval and summarization
// of a jurisdiction's statute to a text-generation provider. Results come
// back unverified; the trust verifier refines them afterwards.
type LLM struct {
	provider  llm.Provider
	modelName string
	maxTokens int
}

// NewLLM wraps a retrieval provider as a fetch backend.
func NewLLM(provider llm.Provider, cfg model.LLMConfig) *LLM {
	return &LLM{
		provider:  provider,
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Name returns the backend name
func (b *LLM) Name() string {
	return "llm:" + b.provider.Name()
}

// Fetch retrieves one state's statute through the provider, preserving the
// upstream failure class so callers can tell retryable conditions from
// terminal ones.
func (b *LLM) Fetch(ctx context.Context, j model.Jurisdiction, query string) (*model.Statute, error) {
	resp, err := b.provider.Retrieve(ctx, llm.RetrieveRequest{
		StateCode: string(j.Code),
		StateName: j.Name,
		Query:     query,
		Model:     b.modelName,
		MaxTokens: b.maxTokens,
	})
	if err != nil {
		return nil, b.wrapError(j.Code, err)
	}

	return &model.Statute{
		State:         j.Code,
		Citation:      resp.Citation,
		Excerpt:       resp.Excerpt,
		EffectiveDate: resp.EffectiveDate,
		Confidence:    resp.Confidence,
		SourceURL:     resp.SourceURL,
		Trust:         model.TrustUnverified,
	}, nil
}

func (b *LLM) wrapError(state model.StateCode, err error) *FetchError {
	var kind error
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = ErrTimeout
	case errors.Is(err, llm.ErrAuth):
		kind = ErrBadCredential
	case errors.Is(err, llm.ErrQuota):
		kind = ErrQuotaExhausted
	}
	return newFetchError(state, b.Name(), fmt.Sprintf("retrieval failed: %v", err), kind)
}
