package monitor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Numeric-claim extraction is inherently heuristic. It lives behind
// extractNumbers so the regexes can be hardened or swapped without touching
// the validation logic that consumes them.

// genericClaimPattern matches "some label: 123" and "some_label = 4.5" with a
// 3-20 character alnum/space/hyphen/underscore label.
var genericClaimPattern = regexp.MustCompile(`(?i)\b([a-z][a-z0-9 _-]{2,19})\s*[:=]\s*(-?\d+(?:\.\d+)?)`)

// vocabClaimPattern matches a fixed vocabulary of count-like words followed
// by a number, with or without a separator ("12 seats available" is out of
// scope; "available seats 12" and "total: 42" are in).
var vocabClaimPattern = regexp.MustCompile(`(?i)\b(total|count|available|seats|items)\b(?:\s+(?:of|is|are|was|were))?\s*:?\s*(-?\d+(?:\.\d+)?)\b`)

// extractNumbers parses labeled numeric claims out of free text. Two passes:
// the fixed-vocabulary scan first, then the generic key/value scan, with the
// generic scan taking priority on label collisions.
func extractNumbers(text string) map[string]float64 {
	out := make(map[string]float64)
	collect := func(matches [][]string) {
		for _, match := range matches {
			label := normalizeLabel(match[1])
			if label == "" {
				continue
			}
			num, err := strconv.ParseFloat(match[2], 64)
			if err != nil {
				continue
			}
			out[label] = num
		}
	}
	collect(vocabClaimPattern.FindAllStringSubmatch(text, -1))
	collect(genericClaimPattern.FindAllStringSubmatch(text, -1))
	return out
}

// normalizeLabel lowercases a raw label and collapses space/hyphen runs into
// single underscores ("Available Seats" -> "available_seats"). Labels shorter
// than 3 characters after trimming are discarded.
func normalizeLabel(raw string) string {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if len(trimmed) < 3 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	lastUnderscore := false
	for _, ch := range trimmed {
		if ch == ' ' || ch == '-' || ch == '_' {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteRune(ch)
		lastUnderscore = false
	}
	return strings.Trim(b.String(), "_")
}

// textOf renders a message value to the text form used for claim extraction.
func textOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
