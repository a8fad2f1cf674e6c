package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/medisearch/casedex/internal/db"
)

// SearchBool runs an OR-combined boolean query via FT.SEARCH WITHSCORES.
// A query whose clauses all render empty (e.g. composed from an empty string)
// matches nothing and returns an empty result without hitting the index.
func (s *Store) SearchBool(ctx context.Context, q *db.BoolQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	queryStr := renderBoolQuery(q.Should)
	if queryStr == "" {
		return &db.SearchResult{}, nil
	}

	args := []string{q.IndexName, queryStr}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

// SearchList performs paginated search via FT.SEARCH (no scores).
func (s *Store) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	args := []string{index, query, "LIMIT", strconv.Itoa(offset), strconv.Itoa(limit)}

	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// --- Query rendering ---

// renderBoolQuery translates boolean clauses into an FT.SEARCH query string.
// Clauses are OR-joined, which gives minimum-should-match 1 semantics.
func renderBoolQuery(clauses []db.BoolClause) string {
	parts := make([]string, 0, len(clauses))
	for i := range clauses {
		if p := renderClause(&clauses[i]); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

func renderClause(c *db.BoolClause) string {
	switch c.Kind {
	case db.ClauseFuzzyMulti:
		return renderFuzzyMulti(c)
	case db.ClauseContains:
		return renderContains(c)
	case db.ClausePhrasePrefix:
		return renderPhrasePrefix(c)
	case db.ClauseMatch:
		return renderMatch(c)
	default:
		return ""
	}
}

// renderFuzzyMulti builds one weighted fuzzy alternative per field:
//
//	(@diagnosis:(%tumor%)=>{$weight:3.0})
func renderFuzzyMulti(c *db.BoolClause) string {
	toks := tokenize(c.Query)
	if len(toks) == 0 || len(c.Fields) == 0 {
		return ""
	}

	terms := make([]string, len(toks))
	for i, t := range toks {
		// Fuzzy match on very short tokens is all noise; match them exactly.
		if len(t) >= 3 {
			terms[i] = "%" + t + "%"
		} else {
			terms[i] = t
		}
	}
	body := strings.Join(terms, " ")

	parts := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		w := f.Weight
		if w <= 0 {
			w = 1
		}
		parts = append(parts, fmt.Sprintf("(@%s:(%s)=>{$weight:%s})",
			f.Name, body, strconv.FormatFloat(w, 'f', -1, 64)))
	}
	return strings.Join(parts, " | ")
}

// renderContains builds a wildcard substring match: (@diagnosis:(w'*tumor*')).
func renderContains(c *db.BoolClause) string {
	q := wildcardEscape(strings.ToLower(strings.TrimSpace(c.Query)))
	if q == "" || c.Field == "" {
		return ""
	}
	return fmt.Sprintf("(@%s:(w'*%s*'))", c.Field, q)
}

// renderPhrasePrefix builds a phrase match whose last term is a prefix:
// (@diagnosis:(brain tum*)).
func renderPhrasePrefix(c *db.BoolClause) string {
	toks := tokenize(c.Query)
	if len(toks) == 0 || c.Field == "" {
		return ""
	}
	last := len(toks) - 1
	// Prefix expansion needs at least two characters.
	if len(toks[last]) >= 2 {
		toks[last] += "*"
	}
	return fmt.Sprintf("(@%s:(%s))", c.Field, strings.Join(toks, " "))
}

// renderMatch builds a plain term-OR match: (@symptoms:(headache|nausea)).
func renderMatch(c *db.BoolClause) string {
	toks := tokenize(c.Query)
	if len(toks) == 0 || c.Field == "" {
		return ""
	}
	return fmt.Sprintf("(@%s:(%s))", c.Field, strings.Join(toks, "|"))
}

// tokenize lowercases the query and splits it into alphanumeric terms,
// discarding everything FT.SEARCH would treat as syntax.
func tokenize(q string) []string {
	var toks []string
	var cur strings.Builder
	for _, r := range strings.ToLower(q) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			cur.WriteRune(r)
		default:
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

var wildcardEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`*`, `\*`,
	`?`, `\?`,
)

func wildcardEscape(s string) string {
	return wildcardEscaper.Replace(s)
}

// --- Result parsing ---

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
