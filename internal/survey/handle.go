package survey

import (
	"statescan/internal/model"
	"statescan/internal/session"
)

// Handle is the caller's grip on a running survey: identity, cancellation,
// and completion signalling.
type Handle struct {
	SessionID int64

	store session.Store
	done  chan struct{}
	err   error
}

func newHandle(sessionID int64, store session.Store) *Handle {
	return &Handle{
		SessionID: sessionID,
		store:     store,
		done:      make(chan struct{}),
	}
}

// Cancel requests early termination. The scheduler honors it at the next
// batch boundary; the in-flight batch settles and its results are kept.
// Cancelling an already-terminal session is a no-op.
func (h *Handle) Cancel() {
	// Terminal or missing sessions make this a no-op.
	_ = h.store.MarkCancelled(h.SessionID)
}

// Done is closed when the survey reaches a terminal status.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err reports the run's internal error, if any. Valid after Done closes.
// Individual jurisdiction failures are recorded in the session, not here.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Status returns the session's current status.
func (h *Handle) Status() (model.Status, error) {
	return h.store.StatusOf(h.SessionID)
}

// finish records the run outcome and releases Done waiters. A run that
// errored out before finalizing is marked failed so the session still ends
// terminal.
func (h *Handle) finish(err error) {
	h.err = err
	if err != nil {
		if status, serr := h.store.StatusOf(h.SessionID); serr == nil && !status.Terminal() {
			_ = h.store.Finalize(h.SessionID, model.StatusFailed, 0, 0)
		}
	}
	close(h.done)
}
