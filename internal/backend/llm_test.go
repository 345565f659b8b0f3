package backend

import (
	"context"
	"errors"
	"testing"

	"statescan/internal/llm"
	"statescan/internal/model"
)

// stubProvider implements llm.Provider
type stubProvider struct {
	resp *llm.RetrieveResponse
	err  error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Retrieve(ctx context.Context, req llm.RetrieveRequest) (*llm.RetrieveResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func TestLLM_Fetch(t *testing.T) {
	b := NewLLM(&stubProvider{
		resp: &llm.RetrieveResponse{
			Citation:   "Minn. Stat. § 541.05",
			Excerpt:    "six years",
			SourceURL:  "https://www.revisor.mn.gov/statutes/cite/541.05",
			Confidence: 77,
		},
	}, model.LLMConfig{Model: "gpt-4o-mini"})

	st, err := b.Fetch(context.Background(), model.Jurisdictions["MN"], "fraud W/15 limitations")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if st.Citation != "Minn. Stat. § 541.05" {
		t.Errorf("unexpected citation: %q", st.Citation)
	}
	if st.State != "MN" {
		t.Errorf("unexpected state: %s", st.State)
	}
	// The verifier decides trust; retrieval alone never claims verified.
	if st.Trust != model.TrustUnverified {
		t.Errorf("expected unverified, got %s", st.Trust)
	}
}

func TestLLM_ErrorClassPropagation(t *testing.T) {
	tests := []struct {
		name     string
		upstream error
		want     error
	}{
		{"timeout", llm.ErrTimeout, ErrTimeout},
		{"auth", llm.ErrAuth, ErrBadCredential},
		{"quota", llm.ErrQuota, ErrQuotaExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewLLM(&stubProvider{err: tt.upstream}, model.LLMConfig{})
			_, err := b.Fetch(context.Background(), model.Jurisdictions["AZ"], "q")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLLM_RetryableClassification(t *testing.T) {
	b := NewLLM(&stubProvider{err: llm.ErrQuota}, model.LLMConfig{})
	_, err := b.Fetch(context.Background(), model.Jurisdictions["AZ"], "q")

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if !fe.Retryable() {
		t.Error("quota exhaustion should be retryable")
	}

	b = NewLLM(&stubProvider{err: llm.ErrAuth}, model.LLMConfig{})
	_, err = b.Fetch(context.Background(), model.Jurisdictions["AZ"], "q")
	if errors.As(err, &fe) && fe.Retryable() {
		t.Error("bad credential must not be retryable")
	}
}

func TestNew_UnknownMode(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Backend = "carrier-pigeon"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown backend mode")
	}
}

func TestNew_DefaultsToSimulated(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Backend = ""
	b, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if b.Name() != "simulated" {
		t.Errorf("expected simulated backend, got %s", b.Name())
	}
}
