package db

// ClauseKind selects how a boolean clause matches its field(s).
type ClauseKind int

const (
	// ClauseFuzzyMulti is a weighted multi-field fuzzy match (typo tolerant).
	ClauseFuzzyMulti ClauseKind = iota
	// ClauseContains is a case-insensitive substring match on a single field.
	ClauseContains
	// ClausePhrasePrefix matches documents whose field starts with the query phrase.
	ClausePhrasePrefix
	// ClauseMatch is a plain term-OR match on a single field.
	ClauseMatch
)

// WeightedField pairs a field name with its query-time weight.
type WeightedField struct {
	Name   string
	Weight float64
}

// BoolClause is one alternative in a BoolQuery's OR combination.
// FuzzyMulti clauses use Fields; the other kinds use Field.
type BoolClause struct {
	Kind   ClauseKind
	Fields []WeightedField
	Field  string
	Query  string
}

// BoolQuery is an OR-combined boolean search with minimum-should-match 1.
type BoolQuery struct {
	IndexName    string
	Should       []BoolClause
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
