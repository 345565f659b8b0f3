package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"statescan/internal/model"
)

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()

	sess := store.Create("data breach notification deadlines")
	if sess.ID != 1 {
		t.Errorf("first session id = %d, want 1", sess.ID)
	}
	if sess.Status != model.StatusRunning {
		t.Errorf("status = %s, want running", sess.Status)
	}

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Query != sess.Query {
		t.Errorf("query = %q, want %q", got.Query, sess.Query)
	}

	second := store.Create("another query")
	if second.ID != 2 {
		t.Errorf("second session id = %d, want 2", second.ID)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}

func TestMemoryStoreGetNotFound(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Get(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing session error = %v, want ErrNotFound", err)
	}
	if _, err := store.StatusOf(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("StatusOf missing session error = %v, want ErrNotFound", err)
	}
	if err := store.SetResult(42, "TX", model.ErrEntry("boom", nil)); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetResult missing session error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	entry := model.OkEntry(&model.Statute{State: "CA", Citation: "Cal. Civ. Code § 1798.82"})
	if err := store.SetResult(sess.ID, "CA", entry); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}

	snap, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	snap.Results["CA"].Statute.Citation = "mutated"
	snap.Results["TX"] = model.ErrEntry("injected", nil)

	fresh, _ := store.Get(sess.ID)
	if fresh.Results["CA"].Statute.Citation != "Cal. Civ. Code § 1798.82" {
		t.Error("mutating a snapshot leaked into the store")
	}
	if _, ok := fresh.Results["TX"]; ok {
		t.Error("adding to a snapshot leaked into the store")
	}
}

func TestMemoryStoreFinalizeOnce(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	if err := store.Finalize(sess.ID, model.StatusRunning, 0, 0); err == nil {
		t.Error("Finalize with non-terminal status should fail")
	}

	if err := store.Finalize(sess.ID, model.StatusCompleted, 48, 2); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	got, _ := store.Get(sess.ID)
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.SuccessCount != 48 || got.ErrorCount != 2 {
		t.Errorf("counts = %d/%d, want 48/2", got.SuccessCount, got.ErrorCount)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	if err := store.Finalize(sess.ID, model.StatusFailed, 0, 0); !errors.Is(err, ErrTerminal) {
		t.Errorf("second Finalize error = %v, want ErrTerminal", err)
	}
	if err := store.MarkCancelled(sess.ID); !errors.Is(err, ErrTerminal) {
		t.Errorf("MarkCancelled after Finalize error = %v, want ErrTerminal", err)
	}
}

func TestMemoryStoreMarkCancelled(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	if err := store.MarkCancelled(sess.ID); err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	got, _ := store.Get(sess.ID)
	if got.Status != model.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if got.SuccessCount != 0 || got.ErrorCount != 0 {
		t.Errorf("cancelled session has counts %d/%d, want 0/0", got.SuccessCount, got.ErrorCount)
	}

	if err := store.Finalize(sess.ID, model.StatusCompleted, 50, 0); !errors.Is(err, ErrTerminal) {
		t.Errorf("Finalize after cancel error = %v, want ErrTerminal", err)
	}
}

func TestMemoryStoreSubscribe(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	events, cancel := store.Subscribe(sess.ID)
	defer cancel()

	if err := store.SetResult(sess.ID, "NY", model.ErrEntry("timeout", nil)); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}
	if err := store.Finalize(sess.ID, model.StatusCompleted, 0, 1); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	first := waitEvent(t, events)
	if first.State != "NY" || first.Entry == nil {
		t.Errorf("first event = %+v, want NY result", first)
	}
	second := waitEvent(t, events)
	if second.Entry != nil || second.Status != model.StatusCompleted {
		t.Errorf("second event = %+v, want completed status event", second)
	}
}

func TestMemoryStoreSubscribeCancel(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	events, cancel := store.Subscribe(sess.ID)
	cancel()

	if err := store.SetResult(sess.ID, "OH", model.ErrEntry("timeout", nil)); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}
	select {
	case e := <-events:
		t.Errorf("received event %+v after unsubscribing", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryStoreConcurrentSetResult(t *testing.T) {
	store := NewMemoryStore()
	sess := store.Create("q")

	var wg sync.WaitGroup
	for i, code := range model.Codes {
		wg.Add(1)
		go func(i int, code model.StateCode) {
			defer wg.Done()
			entry := model.OkEntry(&model.Statute{
				State:    code,
				Citation: fmt.Sprintf("Citation %d", i),
			})
			if err := store.SetResult(sess.ID, code, entry); err != nil {
				t.Errorf("SetResult(%s) failed: %v", code, err)
			}
		}(i, code)
	}
	wg.Wait()

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Results) != len(model.Codes) {
		t.Errorf("results = %d, want %d", len(got.Results), len(model.Codes))
	}
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
