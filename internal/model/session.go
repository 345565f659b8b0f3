package model

import "time"

// Status is the lifecycle state of a survey session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Session is one end-to-end survey run of a single query across all states.
// Results are written incrementally while the session is running; the counts
// are finalized exactly once at the terminal transition, never recomputed
// live from Results.
type Session struct {
	ID          int64                     `json:"id"`
	Query       string                    `json:"query"`
	Status      Status                    `json:"status"`
	StartedAt   time.Time                 `json:"started_at"`
	CompletedAt *time.Time                `json:"completed_at,omitempty"`
	Results     map[StateCode]ResultEntry `json:"results"`
	// Finalized tallies. Zero until the session reaches completed/failed;
	// cancelled sessions never get counts (consumers derive partial tallies
	// from Results).
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}

// Clone returns a deep copy safe to hand to readers while writers continue.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Results = make(map[StateCode]ResultEntry, len(s.Results))
	for code, entry := range s.Results {
		e := entry
		if entry.Statute != nil {
			st := *entry.Statute
			e.Statute = &st
		}
		if entry.Failure != nil {
			f := *entry.Failure
			f.Suggestions = append([]string(nil), entry.Failure.Suggestions...)
			e.Failure = &f
		}
		cp.Results[code] = e
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
