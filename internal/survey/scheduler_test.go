package survey

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"statescan/internal/backend"
	"statescan/internal/model"
	"statescan/internal/session"
	"statescan/internal/verify"
)

// stubBackend resolves every jurisdiction instantly. failFor marks codes
// that should fail with a retryable timeout.
type stubBackend struct {
	failFor map[model.StateCode]bool
	calls   atomic.Int64
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Fetch(_ context.Context, j model.Jurisdiction, _ string) (*model.Statute, error) {
	b.calls.Add(1)
	if b.failFor[j.Code] {
		return nil, &backend.FetchError{
			State:   j.Code,
			Backend: "stub",
			Message: "connection timed out",
			Kind:    backend.ErrTimeout,
		}
	}
	return &model.Statute{
		State:      j.Code,
		Citation:   string(j.Code) + " Code § 1",
		Confidence: 90,
		SourceURL:  "https://legislature.example.gov/statutes/1",
		Trust:      model.TrustUnverified,
	}, nil
}

// gateBackend blocks every fetch until release is closed, reporting each
// start on the started channel.
type gateBackend struct {
	started chan model.StateCode
	release chan struct{}
}

func (b *gateBackend) Name() string { return "gate" }

func (b *gateBackend) Fetch(_ context.Context, j model.Jurisdiction, _ string) (*model.Statute, error) {
	b.started <- j.Code
	<-b.release
	return &model.Statute{
		State:      j.Code,
		Citation:   string(j.Code) + " Code § 1",
		Confidence: 90,
		SourceURL:  "https://legislature.example.gov/statutes/1",
	}, nil
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("survey did not finish in time")
	}
}

func TestSchedulerAllSuccess(t *testing.T) {
	store := session.NewMemoryStore()
	sched := New(Options{Store: store, Backend: &stubBackend{}})

	h, err := sched.Start(context.Background(), "data breach notification deadline")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, h)
	if err := h.Err(); err != nil {
		t.Fatalf("survey error: %v", err)
	}

	sess, err := store.Get(h.SessionID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sess.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", sess.Status)
	}
	if len(sess.Results) != len(model.Codes) {
		t.Errorf("results = %d, want %d", len(sess.Results), len(model.Codes))
	}
	if sess.SuccessCount != 50 || sess.ErrorCount != 0 {
		t.Errorf("counts = %d/%d, want 50/0", sess.SuccessCount, sess.ErrorCount)
	}
	if sess.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	for code, entry := range sess.Results {
		if !entry.OK() {
			t.Errorf("%s: entry is a failure, want statute", code)
		}
	}
}

func TestSchedulerVerifiesResults(t *testing.T) {
	store := session.NewMemoryStore()
	sched := New(Options{
		Store:    store,
		Backend:  &stubBackend{},
		Verifier: verify.New(nil, nil),
	})

	h, err := sched.Start(context.Background(), "usury limits")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, h)

	sess, _ := store.Get(h.SessionID)
	for code, entry := range sess.Results {
		if entry.Statute.Trust != model.TrustVerified {
			t.Errorf("%s: trust = %s, want verified for .gov source", code, entry.Statute.Trust)
		}
		if entry.Statute.TrustRationale == "" {
			t.Errorf("%s: missing trust rationale", code)
		}
	}
}

func TestSchedulerRecordsFailuresWithSuggestions(t *testing.T) {
	store := session.NewMemoryStore()
	b := &stubBackend{failFor: map[model.StateCode]bool{"TX": true}}
	sched := New(Options{Store: store, Backend: b})

	h, err := sched.Start(context.Background(), "consumer fraud statute of limitations")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, h)

	sess, _ := store.Get(h.SessionID)
	if sess.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed despite one failure", sess.Status)
	}
	if sess.SuccessCount != 49 || sess.ErrorCount != 1 {
		t.Errorf("counts = %d/%d, want 49/1", sess.SuccessCount, sess.ErrorCount)
	}

	tx, ok := sess.Results["TX"]
	if !ok || tx.OK() {
		t.Fatalf("TX entry = %+v, want failure", tx)
	}
	if tx.Failure.Message != "connection timed out" {
		t.Errorf("TX message = %q, want bare message without backend prefix", tx.Failure.Message)
	}
	if n := len(tx.Failure.Suggestions); n < 1 || n > 3 {
		t.Errorf("TX suggestions = %d, want 1..3", n)
	}

	// One failure never aborts batch siblings: everyone was fetched.
	if got := b.calls.Load(); got != int64(len(model.Codes)) {
		t.Errorf("fetch calls = %d, want %d", got, len(model.Codes))
	}
}

func TestSchedulerConcurrencyCeiling(t *testing.T) {
	store := session.NewMemoryStore()
	gate := &gateBackend{
		// Two surveys run to completion here; the buffer must hold both
		// runs' fetches or the unread sends block the third survey.
		started: make(chan model.StateCode, 2*len(model.Codes)),
		release: make(chan struct{}),
	}
	sched := New(Options{Store: store, Backend: gate, MaxConcurrent: 1})

	first, err := sched.Start(context.Background(), "first")
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	if _, err := sched.Start(context.Background(), "second"); !errors.Is(err, ErrMaxConcurrentSurveys) {
		t.Errorf("second Start error = %v, want ErrMaxConcurrentSurveys", err)
	}
	// Rejection leaves no session behind.
	if store.Len() != 1 {
		t.Errorf("store has %d sessions after rejection, want 1", store.Len())
	}

	close(gate.release)
	waitDone(t, first)

	// Slot released: a new survey is admitted.
	third, err := sched.Start(context.Background(), "third")
	if err != nil {
		t.Fatalf("Start after completion failed: %v", err)
	}
	waitDone(t, third)
}

func TestSchedulerCancelAtBatchBoundary(t *testing.T) {
	store := session.NewMemoryStore()
	gate := &gateBackend{
		started: make(chan model.StateCode, len(model.Codes)),
		release: make(chan struct{}),
	}
	sched := New(Options{Store: store, Backend: gate, BatchSize: 5})

	h, err := sched.Start(context.Background(), "q")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait for the whole first batch to be in flight.
	for i := 0; i < 5; i++ {
		select {
		case <-gate.started:
		case <-time.After(5 * time.Second):
			t.Fatal("first batch did not start")
		}
	}

	h.Cancel()
	close(gate.release)
	waitDone(t, h)
	if err := h.Err(); err != nil {
		t.Fatalf("survey error: %v", err)
	}

	sess, _ := store.Get(h.SessionID)
	if sess.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", sess.Status)
	}
	// The in-flight batch settled; no further batch was dispatched.
	if len(sess.Results) != 5 {
		t.Errorf("results = %d, want exactly the first batch of 5", len(sess.Results))
	}
	// Cancelled sessions carry no tallies.
	if sess.SuccessCount != 0 || sess.ErrorCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", sess.SuccessCount, sess.ErrorCount)
	}
}

func TestSchedulerRetryOverwritesEntry(t *testing.T) {
	store := session.NewMemoryStore()
	b := &stubBackend{failFor: map[model.StateCode]bool{"OH": true}}
	sched := New(Options{Store: store, Backend: b})

	h, err := sched.Start(context.Background(), "q")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, h)

	// The upstream recovered; retry just Ohio.
	b.failFor = nil
	entry, err := sched.Retry(context.Background(), h.SessionID, "OH")
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if !entry.OK() {
		t.Fatalf("retried entry = %+v, want statute", entry)
	}

	sess, _ := store.Get(h.SessionID)
	if !sess.Results["OH"].OK() {
		t.Error("OH entry not overwritten in store")
	}
	// Status and tallies reflect the original run.
	if sess.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", sess.Status)
	}
	if sess.SuccessCount != 49 || sess.ErrorCount != 1 {
		t.Errorf("counts = %d/%d, want untouched 49/1", sess.SuccessCount, sess.ErrorCount)
	}
}

func TestSchedulerRetryUnknownState(t *testing.T) {
	store := session.NewMemoryStore()
	sched := New(Options{Store: store, Backend: &stubBackend{}})

	h, err := sched.Start(context.Background(), "q")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitDone(t, h)

	if _, err := sched.Retry(context.Background(), h.SessionID, "ZZ"); err == nil {
		t.Error("Retry accepted an unknown state code")
	}
	if _, err := sched.Retry(context.Background(), 999, "OH"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Retry missing session error = %v, want ErrNotFound", err)
	}
}
