package verify

import (
	"net/url"
	"strings"
)

// defaultAuthoritativeSuffixes are the domain suffixes recognized as
// official government sources. State legislatures publish under .gov or
// the legacy state.<xx>.us namespace.
var defaultAuthoritativeSuffixes = []string{
	".gov",
	".us",
	".mil",
}

// AuthorityClassifier decides whether a source URL points at an official
// government publication.
type AuthorityClassifier struct {
	suffixes []string
	extra    map[string]bool
}

// NewAuthorityClassifier creates a classifier. extraDomains lets a
// deployment whitelist additional hosts (e.g. a state's contracted
// publisher) without code changes.
func NewAuthorityClassifier(extraDomains []string) *AuthorityClassifier {
	extra := make(map[string]bool, len(extraDomains))
	for _, d := range extraDomains {
		extra[strings.ToLower(d)] = true
	}
	return &AuthorityClassifier{
		suffixes: defaultAuthoritativeSuffixes,
		extra:    extra,
	}
}

// Authoritative reports whether the URL's host is an official source.
func (a *AuthorityClassifier) Authoritative(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false
	}

	// Remove port from host
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}

	if a.extra[host] {
		return true
	}
	for d := range a.extra {
		if strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	for _, suffix := range a.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}

	return false
}
