package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"statescan/internal/backend"
	"statescan/internal/model"
	"statescan/internal/query"
	"statescan/internal/session"
	"statescan/internal/suggest"
	"statescan/internal/verify"
	"statescan/internal/worker"
)

// ErrMaxConcurrentSurveys is returned by Start when the process-wide ceiling
// on running surveys is already reached. No session is created in that case.
var ErrMaxConcurrentSurveys = errors.New("maximum concurrent surveys reached")

// Scheduler fans one query out across every jurisdiction in fixed-size
// concurrent batches. All settings are snapshotted at construction; a running
// survey never observes config changes.
type Scheduler struct {
	store     session.Store
	backend   backend.Backend
	verifier  *verify.Verifier // nil disables trust verification
	suggester *suggest.Generator
	builder   *query.Builder

	batchSize     int
	maxConcurrent int

	mu      sync.Mutex
	running int
}

// Options configures a Scheduler. Verifier may be nil to skip verification.
type Options struct {
	Store         session.Store
	Backend       backend.Backend
	Verifier      *verify.Verifier
	BatchSize     int
	MaxConcurrent int
}

// New creates a scheduler with the snapshot of options.
func New(opts Options) *Scheduler {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Scheduler{
		store:         opts.Store,
		backend:       opts.Backend,
		verifier:      opts.Verifier,
		suggester:     suggest.NewGenerator(),
		builder:       query.NewBuilder(),
		batchSize:     batchSize,
		maxConcurrent: maxConcurrent,
	}
}

// Start begins a survey for the query. The ledger is checked before any
// session exists, so a rejected Start leaves no trace in the store. The
// returned Handle resolves when the survey reaches a terminal status.
func (s *Scheduler) Start(ctx context.Context, userQuery string) (*Handle, error) {
	s.mu.Lock()
	if s.running >= s.maxConcurrent {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w (limit %d)", ErrMaxConcurrentSurveys, s.maxConcurrent)
	}
	s.running++
	s.mu.Unlock()

	sess := s.store.Create(userQuery)
	h := newHandle(sess.ID, s.store)

	go func() {
		err := s.run(ctx, sess.ID, userQuery)
		// Release the ledger slot before signalling Done so a waiter can
		// start a new survey immediately.
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
		h.finish(err)
	}()

	return h, nil
}

// run drives one survey to a terminal status. Cancellation is observed only
// at batch boundaries: the in-flight batch always settles and its results
// are kept.
func (s *Scheduler) run(ctx context.Context, sessionID int64, userQuery string) error {
	queries := s.builder.Build(userQuery)

	successCount := 0
	errorCount := 0

	for start := 0; start < len(model.Codes); start += s.batchSize {
		cancelled, err := s.cancelled(sessionID)
		if err != nil {
			return err
		}
		if cancelled {
			return nil
		}

		end := start + s.batchSize
		if end > len(model.Codes) {
			end = len(model.Codes)
		}
		batch := model.Codes[start:end]

		pool := worker.NewPool(len(batch))
		pool.Start()
		for _, code := range batch {
			j, ok := model.Lookup(code)
			if !ok {
				continue
			}
			pool.Submit(&fetchJob{
				ctx:       ctx,
				sessionID: sessionID,
				userQuery: userQuery,
				query:     queries[code],
				j:         j,
				scheduler: s,
			})
		}
		for _, res := range pool.Wait() {
			fr, ok := res.(*fetchResult)
			if !ok {
				continue
			}
			if fr.storeErr != nil {
				return fr.storeErr
			}
			if fr.ok {
				successCount++
			} else {
				errorCount++
			}
		}
	}

	cancelled, err := s.cancelled(sessionID)
	if err != nil {
		return err
	}
	if cancelled {
		return nil
	}
	return s.store.Finalize(sessionID, model.StatusCompleted, successCount, errorCount)
}

// Retry re-dispatches a single jurisdiction of an existing session and
// overwrites its entry. The session's status and tallies are left as the
// original run recorded them.
func (s *Scheduler) Retry(ctx context.Context, sessionID int64, code model.StateCode) (model.ResultEntry, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return model.ResultEntry{}, err
	}
	j, ok := model.Lookup(code)
	if !ok {
		return model.ResultEntry{}, fmt.Errorf("unknown state code %q", code)
	}

	queries := s.builder.Build(sess.Query)
	entry := s.dispatch(ctx, sess.Query, queries[code], j)
	if err := s.store.SetResult(sessionID, code, entry); err != nil {
		return model.ResultEntry{}, err
	}
	return entry, nil
}

// dispatch resolves one jurisdiction: fetch, then either verify-and-fold the
// trust classification or turn the failure into an entry with suggestions.
// Failures become data here; they never propagate as errors.
func (s *Scheduler) dispatch(ctx context.Context, userQuery, builtQuery string, j model.Jurisdiction) model.ResultEntry {
	statute, err := s.backend.Fetch(ctx, j, builtQuery)
	if err != nil {
		return model.ErrEntry(failureMessage(err), s.suggester.Suggest(userQuery, j, err))
	}

	if s.verifier != nil {
		verification := s.verifier.Verify(ctx, statute)
		statute.Trust = verification.Level
		statute.TrustRationale = verification.Rationale
	}
	return model.OkEntry(statute)
}

func (s *Scheduler) cancelled(sessionID int64) (bool, error) {
	status, err := s.store.StatusOf(sessionID)
	if err != nil {
		return false, err
	}
	return status == model.StatusCancelled, nil
}

// failureMessage strips the backend/state prefix when the error is a typed
// fetch error; the entry is already keyed by jurisdiction.
func failureMessage(err error) string {
	var fe *backend.FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

// fetchJob resolves one jurisdiction inside a batch pool. The survey's own
// context rides in the job: pool shutdown must not cut off an in-flight
// batch, so the pool context is ignored.
type fetchJob struct {
	ctx       context.Context
	sessionID int64
	userQuery string
	query     string
	j         model.Jurisdiction
	scheduler *Scheduler
}

type fetchResult struct {
	code     model.StateCode
	ok       bool
	storeErr error
}

func (r *fetchResult) GetError() error {
	return r.storeErr
}

func (job *fetchJob) Execute(_ context.Context) worker.Result {
	entry := job.scheduler.dispatch(job.ctx, job.userQuery, job.query, job.j)
	// Write immediately so observers see progress mid-batch.
	storeErr := job.scheduler.store.SetResult(job.sessionID, job.j.Code, entry)
	return &fetchResult{code: job.j.Code, ok: entry.OK(), storeErr: storeErr}
}
