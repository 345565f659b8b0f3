package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"statescan/internal/cache"
	"statescan/internal/model"
)

func newTestAPI(t *testing.T, serverURL string, c cache.Cache) *API {
	t.Helper()
	api, err := NewAPI(
		model.APIConfig{BaseURL: serverURL, APIKey: "test-key", Timeout: 5 * time.Second},
		model.HTTPConfig{},
		nil, // no limiter in tests
		c,
		time.Minute,
	)
	if err != nil {
		t.Fatalf("NewAPI failed: %v", err)
	}
	return api
}

func TestAPI_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/statutes/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		var req apiSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.State != "FL" {
			t.Errorf("unexpected state: %s", req.State)
		}

		_ = json.NewEncoder(w).Encode(apiSearchResponse{
			Citation:      "Fla. Stat. § 95.11(3)(j)",
			Excerpt:       "within four years",
			EffectiveDate: "2023-07-01",
			Confidence:    92,
			SourceURL:     "https://www.flsenate.gov/Laws/Statutes/2023/95.11",
		})
	}))
	defer server.Close()

	api := newTestAPI(t, server.URL, nil)
	st, err := api.Fetch(context.Background(), model.Jurisdictions["FL"], "fraud W/15 limitations")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if st.Citation != "Fla. Stat. § 95.11(3)(j)" {
		t.Errorf("unexpected citation: %q", st.Citation)
	}
	if st.State != "FL" {
		t.Errorf("unexpected state: %s", st.State)
	}
	if st.Trust != model.TrustUnverified {
		t.Errorf("API result should start unverified, got %s", st.Trust)
	}
}

func TestAPI_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad credential", http.StatusUnauthorized, ErrBadCredential},
		{"forbidden", http.StatusForbidden, ErrBadCredential},
		{"quota", http.StatusTooManyRequests, ErrQuotaExhausted},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			api := newTestAPI(t, server.URL, nil)
			_, err := api.Fetch(context.Background(), model.Jurisdictions["GA"], "q")
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
			}

			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FetchError, got %T", err)
			}
		})
	}
}

func TestAPI_CacheAvoidsSecondRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(apiSearchResponse{Citation: "Iowa Code § 614.1", Confidence: 90})
	}))
	defer server.Close()

	api := newTestAPI(t, server.URL, cache.NewMemoryCache(time.Minute, time.Minute))
	j := model.Jurisdictions["IA"]

	for i := 0; i < 2; i++ {
		if _, err := api.Fetch(context.Background(), j, "fraud"); err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestAPI_EmptyResponseIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(apiSearchResponse{})
	}))
	defer server.Close()

	api := newTestAPI(t, server.URL, nil)
	_, err := api.Fetch(context.Background(), model.Jurisdictions["RI"], "q")
	if err == nil {
		t.Fatal("expected error for citation-less response")
	}
}

func TestAPI_RequiresBaseURL(t *testing.T) {
	_, err := NewAPI(model.APIConfig{}, model.HTTPConfig{}, nil, nil, 0)
	if err == nil {
		t.Fatal("expected error without base URL")
	}
}
