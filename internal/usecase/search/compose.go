package search

import "strings"

// QueryInput carries the prior diagnosis report fields plus free-form
// user keywords that feed the composed query.
type QueryInput struct {
	Diagnosis string
	Findings  string
	Location  string
	Keywords  string
}

// ComposeQuery joins the non-empty inputs in fixed order with ", ".
// Returns "" only when every input is empty.
func ComposeQuery(in QueryInput) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{in.Diagnosis, in.Findings, in.Location, in.Keywords} {
		if v := strings.TrimSpace(p); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
