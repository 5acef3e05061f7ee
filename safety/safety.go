// Package safety classifies SQL statements for read-only execution. It
// provides an advisory checker that reports every issue at once and a strict
// first-token gate used by the execution path.
package safety

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Verdict is the advisory assessment of a single SQL statement.
type Verdict struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// WriteRejectedError reports a statement stopped by the execution gate.
type WriteRejectedError struct {
	Keyword string
}

func (e *WriteRejectedError) Error() string {
	return fmt.Sprintf("query rejected: '%s' statements are not allowed (read-only)", e.Keyword)
}

// ErrEmptyQuery is returned by Gate for blank statements; the gate fails
// closed rather than passing nothing to a backend.
var ErrEmptyQuery = errors.New("query rejected: SQL is empty")

var (
	destructivePattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|create|grant|revoke)\b`)
	selectPattern      = regexp.MustCompile(`(?i)^select\b`)
	limitPattern       = regexp.MustCompile(`(?i)\blimit\s+\d+\b`)
	selectStarPattern  = regexp.MustCompile(`(?i)\bselect\s+\*`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

var writeVerbs = map[string]bool{
	"insert":   true,
	"update":   true,
	"delete":   true,
	"drop":     true,
	"alter":    true,
	"truncate": true,
	"create":   true,
	"grant":    true,
	"revoke":   true,
}

// Check runs every advisory rule over the whole statement body. All rules are
// evaluated so the caller sees every issue in one pass; Errors and Warnings
// are never nil.
func Check(query string) Verdict {
	errs := []string{}
	warnings := []string{}

	cleaned := strings.TrimSpace(whitespacePattern.ReplaceAllString(query, " "))
	if cleaned == "" {
		errs = append(errs, "SQL is empty.")
		return Verdict{OK: false, Errors: errs, Warnings: warnings}
	}

	if hits := destructivePattern.FindAllString(cleaned, -1); len(hits) > 0 {
		seen := make(map[string]bool, len(hits))
		keywords := make([]string, 0, len(hits))
		for _, hit := range hits {
			kw := strings.ToLower(hit)
			if !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
		sort.Strings(keywords)
		errs = append(errs, "Destructive or write operations detected: "+strings.Join(keywords, ", ")+".")
	}

	if strings.Contains(strings.TrimRight(cleaned, ";"), ";") {
		warnings = append(warnings, "Multiple SQL statements detected; prefer a single statement.")
	}

	if selectPattern.MatchString(cleaned) {
		if !limitPattern.MatchString(cleaned) {
			warnings = append(warnings, "Missing LIMIT clause. Add LIMIT 50 by default.")
		}
		if selectStarPattern.MatchString(cleaned) {
			warnings = append(warnings, "Avoid SELECT *; specify explicit columns.")
		}
	}

	return Verdict{OK: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// Gate is the hard execution gate. It inspects only the leading token of the
// statement and rejects write/DDL verbs before anything reaches a backend;
// the full-body scan in Check stays advisory.
func Gate(query string) error {
	token := firstToken(query)
	if token == "" && strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	if writeVerbs[token] {
		return &WriteRejectedError{Keyword: token}
	}
	return nil
}

// firstToken returns the lowercased run of letters at the start of the
// statement, so "UPDATE;x" still reads as "update".
func firstToken(query string) string {
	trimmed := strings.TrimSpace(query)
	end := 0
	for end < len(trimmed) {
		c := trimmed[end]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			break
		}
		end++
	}
	return strings.ToLower(trimmed[:end])
}
