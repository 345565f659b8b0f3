package verify

import (
	"context"
	"fmt"
	"time"

	"statescan/internal/model"
)

// Verifier assigns a trust classification to a fetched statute. Verify
// never fails: if the content check itself errors, the statute degrades to
// unverified rather than being lost.
type Verifier struct {
	authority *AuthorityClassifier
	checker   ContentChecker
}

// New creates a verifier. checker may be nil to skip content checks and
// classify on source authority alone.
func New(authority *AuthorityClassifier, checker ContentChecker) *Verifier {
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}
	return &Verifier{authority: authority, checker: checker}
}

// FromConfig builds the verifier a deployment asked for: live re-fetch
// checks in production, the seeded stand-in otherwise.
func FromConfig(cfg model.VerifyConfig, httpCfg model.HTTPConfig, seed int64) *Verifier {
	authority := NewAuthorityClassifier(cfg.ExtraDomains)

	var checker ContentChecker
	if cfg.LiveCheck {
		checker = NewLiveChecker(cfg.Timeout, cfg.UserAgent, httpCfg)
	} else {
		checker = NewSimulatedChecker(0.05, 0.05, 50*time.Millisecond, seed)
	}
	return New(authority, checker)
}

// Verify classifies one statute. Precedence: content problems (repealed or
// hallucinated) beat source authority; a clean but unofficial source is
// unverified; otherwise verified.
func (v *Verifier) Verify(ctx context.Context, statute *model.Statute) model.TrustVerification {
	authoritative := v.authority.Authoritative(statute.SourceURL)

	var findings Findings
	if v.checker != nil {
		var err error
		findings, err = v.checker.Check(ctx, statute)
		if err != nil {
			return model.TrustVerification{
				Level:     model.TrustUnverified,
				Rationale: fmt.Sprintf("content check unavailable: %v", err),
			}
		}
	}

	switch {
	case findings.Repealed && findings.Hallucinated:
		return model.TrustVerification{
			Level:     model.TrustSuspicious,
			Rationale: "cited text not found on source and provision appears repealed",
		}
	case findings.Repealed:
		return model.TrustVerification{
			Level:     model.TrustSuspicious,
			Rationale: "provision appears repealed or superseded",
		}
	case findings.Hallucinated:
		return model.TrustVerification{
			Level:     model.TrustSuspicious,
			Rationale: "cited text could not be found at the source",
		}
	case !authoritative:
		return model.TrustVerification{
			Level:     model.TrustUnverified,
			Rationale: "source is not an official government publication",
		}
	default:
		return model.TrustVerification{
			Level:     model.TrustVerified,
			Rationale: "official source confirms the cited provision",
		}
	}
}
