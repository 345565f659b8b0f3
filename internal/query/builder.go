package query

import (
	"strings"

	"statescan/internal/model"
)

// proximityOp joins significant terms into a proximity search, which the
// state legal databases score far better than plain keyword AND.
const proximityOp = " W/15 "

// substitution rewrites one phrase for one jurisdiction before tokenizing.
type substitution struct {
	state model.StateCode
	from  string
	to    string
}

// Builder expands a single free-text legal query into per-state query
// strings. Build is total and deterministic: same input, same 50 outputs.
type Builder struct {
	subs []substitution
}

// NewBuilder creates a builder with the default terminology table.
// Louisiana follows the civil-law tradition and uses different vocabulary
// for several common-law concepts; the other 49 states share terminology.
func NewBuilder() *Builder {
	return &Builder{
		subs: []substitution{
			{"LA", "statute of limitations", "prescriptive period"},
			{"LA", "statutes of limitations", "prescriptive periods"},
			{"LA", "personal injury", "delictual action"},
			{"LA", "tort", "delict"},
			{"LA", "torts", "delicts"},
			{"LA", "real property", "immovable property"},
			{"LA", "real estate", "immovable property"},
			{"LA", "personal property", "movable property"},
			{"LA", "easement", "servitude"},
			{"LA", "county", "parish"},
		},
	}
}

// Build returns exactly one tuned query string per state code, every call.
func (b *Builder) Build(userQuery string) map[model.StateCode]string {
	queries := make(map[model.StateCode]string, len(model.Codes))
	for _, code := range model.Codes {
		queries[code] = b.buildOne(userQuery, model.Jurisdictions[code])
	}
	return queries
}

// buildOne applies the per-jurisdiction pipeline: lowercase, terminology
// substitution, significant-token extraction, proximity join, code qualifier.
func (b *Builder) buildOne(userQuery string, j model.Jurisdiction) string {
	q := strings.ToLower(userQuery)

	for _, sub := range b.subs {
		if sub.state != j.Code {
			continue
		}
		q = strings.ReplaceAll(q, sub.from, sub.to)
	}

	tokens := significantTokens(q)
	if len(tokens) == 0 {
		tokens = []string{"statute"}
	}

	out := strings.Join(tokens, proximityOp)
	if j.CodeQualifier != "" {
		out += ` AND "` + j.CodeQualifier + `"`
	}
	return out
}

// significantTokens splits a query into words longer than 2 characters,
// dropping punctuation-only fragments.
func significantTokens(q string) []string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})

	var tokens []string
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
