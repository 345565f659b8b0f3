package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaProvider_Retrieve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}

		resp := ollamaResponse{
			Model:    req.Model,
			Response: `{"citation":"Ohio Rev. Code § 2305.09","excerpt":"four years after the cause accrued","source_url":"https://codes.ohio.gov/ohio-revised-code/section-2305.09","confidence":81}`,
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1:8b"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	resp, err := provider.Retrieve(context.Background(), RetrieveRequest{
		StateCode: "OH",
		StateName: "Ohio",
		Query:     "fraud W/15 limitations",
	})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if resp.Citation != "Ohio Rev. Code § 2305.09" {
		t.Errorf("unexpected citation: %q", resp.Citation)
	}
	if resp.Confidence != 81 {
		t.Errorf("unexpected confidence: %d", resp.Confidence)
	}
	if resp.TokensUsed == 0 {
		t.Error("expected estimated token count when server reports none")
	}
}

func TestOllamaProvider_RequiresModel(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	_, err = provider.Retrieve(context.Background(), RetrieveRequest{StateCode: "OH", StateName: "Ohio", Query: "q"})
	if err == nil {
		t.Fatal("expected error when no model configured")
	}
}

func TestOllamaProvider_QuotaStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "rate limited"})
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "mistral"})
	if err != nil {
		t.Fatalf("NewOllamaProvider failed: %v", err)
	}

	_, err = provider.Retrieve(context.Background(), RetrieveRequest{StateCode: "OH", StateName: "Ohio", Query: "q"})
	if !errors.Is(err, ErrQuota) {
		t.Errorf("expected ErrQuota, got %v", err)
	}
}
