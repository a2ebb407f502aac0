package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const defaultMaxRows = 200

var (
	fencePrefix = regexp.MustCompile("(?is)^```\\s*(sql)?")
	writeVerbs  = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|RENAME|ATTACH|DETACH|OPTIMIZE|GRANT|SYSTEM)\b`)
	fromTables  = regexp.MustCompile(`(?i)\b(FROM|JOIN)\s+([a-zA-Z_][\w.]*)`)
	limitClause = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)\s*$`)

	allowedTables = map[string]bool{
		"quotes":             true,
		"divergences":        true,
		"quotes.quotes":      true,
		"quotes.divergences": true,
	}
)

// sanitizeSQL strips markdown fences, a leading "sql" tag and trailing
// semicolons from model output.
func sanitizeSQL(s string) string {
	s = strings.TrimSpace(s)
	s = fencePrefix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.EqualFold(s[:3], "sql") && (len(s) == 3 || s[3] == '\n' || s[3] == ' ') {
		s = s[3:]
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimRight(s, ";"))
}

// validateSQL accepts a single SELECT that reads only the quote history tables.
func validateSQL(s string) error {
	if s == "" {
		return fmt.Errorf("empty SQL generated by LLM")
	}
	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed, got: %s", s[:min(20, len(s))])
	}
	if strings.Contains(s, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}
	if m := writeVerbs.FindString(s); m != "" {
		return fmt.Errorf("disallowed SQL keyword %q in generated query", strings.ToUpper(m))
	}

	refs := fromTables.FindAllStringSubmatch(s, -1)
	if len(refs) == 0 {
		return fmt.Errorf("query must read the quotes or divergences table")
	}
	for _, ref := range refs {
		if !allowedTables[strings.ToLower(ref[2])] {
			return fmt.Errorf("query reads %q; only quotes and divergences are allowed", ref[2])
		}
	}
	return nil
}

// withRowLimit caps the statement at maxRows, tightening an existing
// trailing LIMIT rather than adding a second one.
func withRowLimit(query string, maxRows int) string {
	if maxRows <= 0 {
		return query
	}
	if m := limitClause.FindStringSubmatchIndex(query); m != nil {
		n, err := strconv.Atoi(query[m[2]:m[3]])
		if err == nil && n <= maxRows {
			return query
		}
		return query[:m[2]] + strconv.Itoa(maxRows)
	}
	return fmt.Sprintf("%s LIMIT %d", query, maxRows)
}

func encodeRows(rows []map[string]any) (string, error) {
	if rows == nil {
		rows = []map[string]any{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return string(b), nil
}

func trimAnswer(s string) string {
	return strings.TrimSpace(s)
}
