package backend

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"statescan/internal/model"
)

// simulatedFailure pairs a plausible network-style message with its class.
type simulatedFailure struct {
	message string
	kind    error
}

var simulatedFailures = []simulatedFailure{
	{"request timed out after 10s waiting for the statute database", ErrTimeout},
	{"connection reset by upstream gateway", ErrUnavailable},
	{"upstream returned 503 Service Unavailable", ErrUnavailable},
	{"rate limit exceeded for anonymous research tier", ErrQuotaExhausted},
	{"TLS handshake with the state portal failed", ErrUnavailable},
}

// Simulated emulates a statute lookup without any real I/O: a bounded
// random latency followed by a weighted three-way outcome (failure,
// ambiguous low-confidence result, normal verified result).
//
// Each call derives its own rand.Rand from the base seed and a call
// counter, so concurrent fetches draw from independent streams and a fixed
// seed reproduces a whole survey.
type Simulated struct {
	cfg  model.SimulatedConfig
	seq  atomic.Int64
	base int64

	// sleep is injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSimulated creates the demo backend.
func NewSimulated(cfg model.SimulatedConfig) *Simulated {
	base := cfg.Seed
	if base == 0 {
		base = time.Now().UnixNano()
	}
	return &Simulated{
		cfg:   cfg,
		base:  base,
		sleep: sleepCtx,
	}
}

// Name returns the backend name
func (s *Simulated) Name() string {
	return "simulated"
}

// Fetch produces one weighted-random outcome after an artificial delay.
func (s *Simulated) Fetch(ctx context.Context, j model.Jurisdiction, query string) (*model.Statute, error) {
	rng := rand.New(rand.NewSource(s.base + s.seq.Add(1)))

	if d := s.latency(rng); d > 0 {
		if err := s.sleep(ctx, d); err != nil {
			return nil, newFetchError(j.Code, s.Name(), "cancelled while waiting for response", ErrTimeout)
		}
	}

	roll := rng.Float64()
	switch {
	case roll < s.cfg.FailureRate:
		f := simulatedFailures[rng.Intn(len(simulatedFailures))]
		return nil, newFetchError(j.Code, s.Name(), f.message, f.kind)

	case roll < s.cfg.FailureRate+s.cfg.AmbiguousRate:
		return s.ambiguousStatute(rng, j, query), nil

	default:
		return s.verifiedStatute(rng, j, query), nil
	}
}

// latency picks a duration inside the configured window.
func (s *Simulated) latency(rng *rand.Rand) time.Duration {
	min, max := s.cfg.MinLatency, s.cfg.MaxLatency
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Int63n(int64(max-min)))
}

// verifiedStatute is the normal high-confidence outcome with an
// authoritative source URL.
func (s *Simulated) verifiedStatute(rng *rand.Rand, j model.Jurisdiction, query string) *model.Statute {
	title := rng.Intn(40) + 1
	section := rng.Intn(900) + 100
	year := 1975 + rng.Intn(48)

	return &model.Statute{
		State:         j.Code,
		Citation:      fmt.Sprintf("%s § %d-%d", j.CodeQualifier, title, section),
		Excerpt:       simulatedExcerpt(j, query),
		EffectiveDate: fmt.Sprintf("%d-07-01", year),
		Confidence:    82 + rng.Intn(16),
		SourceURL:     fmt.Sprintf("https://legislature.%s.gov/statutes/%d-%d", strings.ToLower(string(j.Code)), title, section),
		SearchURL:     simulatedSearchURL(j),
		Trust:         model.TrustVerified,
	}
}

// ambiguousStatute is the low-confidence outcome: trust is forced down and
// only a search link is offered instead of a direct source.
func (s *Simulated) ambiguousStatute(rng *rand.Rand, j model.Jurisdiction, query string) *model.Statute {
	trust := model.TrustUnverified
	if rng.Float64() < 0.4 {
		trust = model.TrustSuspicious
	}

	return &model.Statute{
		State:          j.Code,
		Citation:       fmt.Sprintf("%s (provision not conclusively identified)", j.CodeQualifier),
		Excerpt:        fmt.Sprintf("Multiple provisions of the %s may apply; manual review recommended.", j.CodeQualifier),
		Confidence:     30 + rng.Intn(26),
		SourceURL:      simulatedSearchURL(j),
		SearchURL:      simulatedSearchURL(j),
		Trust:          trust,
		TrustRationale: "result is ambiguous between several provisions",
	}
}

func simulatedExcerpt(j model.Jurisdiction, query string) string {
	topic := query
	if i := strings.Index(topic, " AND "); i > 0 {
		topic = topic[:i]
	}
	topic = strings.ReplaceAll(topic, " W/15 ", " ")
	return fmt.Sprintf("An action concerning %s shall be commenced as provided by this section of the %s.", topic, j.CodeQualifier)
}

func simulatedSearchURL(j model.Jurisdiction) string {
	slug := strings.ToLower(strings.ReplaceAll(j.Name, " ", "-"))
	return "https://law.justia.com/codes/" + slug + "/"
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
