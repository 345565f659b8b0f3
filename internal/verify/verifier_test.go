package verify

import (
	"context"
	"errors"
	"testing"

	"statescan/internal/model"
)

// fixedChecker implements ContentChecker with canned findings
type fixedChecker struct {
	findings Findings
	err      error
}

func (f *fixedChecker) Check(ctx context.Context, statute *model.Statute) (Findings, error) {
	return f.findings, f.err
}

func statuteWithSource(url string) *model.Statute {
	return &model.Statute{
		State:     "TX",
		Citation:  "Tex. Civ. Prac. & Rem. Code § 16.004",
		SourceURL: url,
	}
}

func TestVerify_Precedence(t *testing.T) {
	authoritative := "https://statutes.capitol.texas.gov/Docs/CP/htm/CP.16.htm"
	commercial := "https://law.justia.com/codes/texas/"

	tests := []struct {
		desc     string
		url      string
		findings Findings
		want     model.TrustLevel
	}{
		{"clean authoritative", authoritative, Findings{}, model.TrustVerified},
		{"repealed beats authority", authoritative, Findings{Repealed: true}, model.TrustSuspicious},
		{"hallucinated beats authority", authoritative, Findings{Hallucinated: true}, model.TrustSuspicious},
		{"both content problems", authoritative, Findings{Repealed: true, Hallucinated: true}, model.TrustSuspicious},
		{"clean but unofficial", commercial, Findings{}, model.TrustUnverified},
		{"repealed and unofficial", commercial, Findings{Repealed: true}, model.TrustSuspicious},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			v := New(nil, &fixedChecker{findings: tt.findings})
			got := v.Verify(context.Background(), statuteWithSource(tt.url))
			if got.Level != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, got.Level, got.Rationale)
			}
			if got.Rationale == "" {
				t.Error("rationale must never be empty")
			}
		})
	}
}

func TestVerify_CheckerErrorDegradesToUnverified(t *testing.T) {
	v := New(nil, &fixedChecker{err: errors.New("source unreachable")})

	got := v.Verify(context.Background(), statuteWithSource("https://statutes.capitol.texas.gov/x"))
	if got.Level != model.TrustUnverified {
		t.Errorf("checker failure should yield unverified, got %s", got.Level)
	}
}

func TestVerify_NilCheckerUsesAuthorityOnly(t *testing.T) {
	v := New(nil, nil)

	got := v.Verify(context.Background(), statuteWithSource("https://statutes.capitol.texas.gov/x"))
	if got.Level != model.TrustVerified {
		t.Errorf("expected verified on authority alone, got %s", got.Level)
	}

	got = v.Verify(context.Background(), statuteWithSource("https://blog.example.com/x"))
	if got.Level != model.TrustUnverified {
		t.Errorf("expected unverified for unofficial source, got %s", got.Level)
	}
}
