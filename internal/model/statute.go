package model

// TrustLevel classifies how much a retrieved statute can be relied on.
type TrustLevel string

const (
	TrustVerified   TrustLevel = "verified"
	TrustUnverified TrustLevel = "unverified"
	TrustSuspicious TrustLevel = "suspicious"
)

// Statute is one jurisdiction's answer to a survey query.
type Statute struct {
	State          StateCode  `json:"state"`
	Citation       string     `json:"citation"`
	Excerpt        string     `json:"excerpt,omitempty"`
	EffectiveDate  string     `json:"effective_date,omitempty"`
	Confidence     int        `json:"confidence"` // 0-100
	SourceURL      string     `json:"source_url"`
	SearchURL      string     `json:"search_url,omitempty"` // fallback search link when no direct source
	Trust          TrustLevel `json:"trust"`
	TrustRationale string     `json:"trust_rationale,omitempty"`
}

// FetchFailure records a failed lookup together with retry phrasings.
type FetchFailure struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"` // at most 3
}

// ResultEntry is the tagged union stored per jurisdiction: exactly one of
// Statute or Failure is set. Consumers branch on OK() instead of inspecting
// runtime types.
type ResultEntry struct {
	Statute *Statute      `json:"statute,omitempty"`
	Failure *FetchFailure `json:"failure,omitempty"`
}

// OkEntry wraps a successful statute lookup.
func OkEntry(s *Statute) ResultEntry {
	return ResultEntry{Statute: s}
}

// ErrEntry wraps a failed lookup with its suggestions.
func ErrEntry(message string, suggestions []string) ResultEntry {
	return ResultEntry{Failure: &FetchFailure{Message: message, Suggestions: suggestions}}
}

// OK reports whether the entry holds a statute.
func (e ResultEntry) OK() bool {
	return e.Statute != nil
}

// TrustVerification is the verifier's output, folded into a Statute before
// the entry is written to the session store. It is never persisted on its own.
type TrustVerification struct {
	Level     TrustLevel `json:"level"`
	Rationale string     `json:"rationale"`
}
