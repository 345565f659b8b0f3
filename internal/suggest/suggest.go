package suggest

import (
	"fmt"
	"strings"

	"statescan/internal/model"
)

// maxSuggestions caps the retry phrasings offered after a failure.
const maxSuggestions = 3

// subdomains maps strong query keywords to the legal subdomain that
// narrows a retry. First match wins, so more specific keywords sit higher.
var subdomains = []struct {
	keyword   string
	subdomain string
}{
	{"fraud", "civil fraud and deceptive trade practices"},
	{"limitations", "civil procedure limitation periods"},
	{"prescriptive", "liberative prescription"},
	{"murder", "criminal homicide"},
	{"theft", "theft and property crimes"},
	{"divorce", "dissolution of marriage"},
	{"custody", "child custody and support"},
	{"landlord", "landlord-tenant obligations"},
	{"tenant", "landlord-tenant obligations"},
	{"lease", "landlord-tenant obligations"},
	{"contract", "contract formation and breach"},
	{"employment", "employment and labor standards"},
	{"defamation", "defamation and privacy torts"},
	{"negligence", "negligence and comparative fault"},
	{"probate", "probate and estate administration"},
	{"dui", "driving under the influence"},
	{"firearm", "weapons regulation"},
	{"tax", "state taxation"},
}

// Generator proposes alternative query phrasings after a fetch failure.
// Suggest never fails and always returns between 1 and 3 items.
type Generator struct{}

// NewGenerator creates a suggestion generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Suggest builds retry phrasings for one failed jurisdiction. failure is
// informational only; phrasings do not depend on the failure class today.
func (g *Generator) Suggest(originalQuery string, j model.Jurisdiction, failure error) []string {
	lower := strings.ToLower(originalQuery)
	var out []string

	if sub := matchSubdomain(lower); sub != "" {
		out = append(out, fmt.Sprintf("%s (%s)", originalQuery, sub))
	}

	out = append(out, fmt.Sprintf("%s %s", j.Name, originalQuery))

	if matchSubdomain(lower) == "" {
		qualifier := j.CodeQualifier
		if qualifier == "" {
			qualifier = j.Name + " statutes"
		}
		out = append(out, fmt.Sprintf("search the %s for key terms from: %s", qualifier, originalQuery))
	}

	if len(out) < maxSuggestions {
		out = append(out, fmt.Sprintf("%s site:%s legislature", originalQuery, strings.ToLower(string(j.Code))))
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func matchSubdomain(lowerQuery string) string {
	for _, s := range subdomains {
		if strings.Contains(lowerQuery, s.keyword) {
			return s.subdomain
		}
	}
	return ""
}
