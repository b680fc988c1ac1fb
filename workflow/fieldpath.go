package workflow

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Upstream parsers disagree on key names, casing and nesting, so every target
// field carries a priority-ordered list of candidate key paths and one generic
// resolver walks them all. A dotted path ("Issuer.Name") descends nested
// objects; the first present non-null candidate wins.

func resolveField(record map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		value, ok := lookupPath(record, path)
		if !ok || value == nil {
			continue
		}
		return value, true
	}
	return nil, false
}

func lookupPath(record map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = record
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// resolveString returns the first non-empty string candidate, with scalar
// values stringified so numeric case numbers and codes still resolve.
func resolveString(record map[string]any, paths ...string) *string {
	for _, path := range paths {
		value, ok := lookupPath(record, path)
		if !ok || value == nil {
			continue
		}
		s := stringify(value)
		if s == "" {
			continue
		}
		return &s
	}
	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		// JSON numbers decode as float64; integral codes must not grow ".0".
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// resolveDecimal resolves through the candidate list with lenient parsing:
// currency symbols, thousands separators and surrounding whitespace are
// stripped; unparseable values fall through to the next candidate, then null.
func resolveDecimal(record map[string]any, paths ...string) *decimal.Decimal {
	for _, path := range paths {
		value, ok := lookupPath(record, path)
		if !ok || value == nil {
			continue
		}
		if parsed := parseLenientDecimal(value); parsed != nil {
			return parsed
		}
	}
	return nil
}

func parseLenientDecimal(value any) *decimal.Decimal {
	switch v := value.(type) {
	case float64:
		d := decimal.NewFromFloat(v)
		return &d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil
		}
		return &d
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(v))
		if cleaned == "" {
			return nil
		}
		negative := false
		// Accounting-style negatives: (1,234.56)
		if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
			negative = true
			cleaned = cleaned[1 : len(cleaned)-1]
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return nil
		}
		if negative {
			d = d.Neg()
		}
		return &d
	}
	return nil
}

// dateLayouts are tried in order; the first success wins.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func resolveDate(record map[string]any, paths ...string) *time.Time {
	for _, path := range paths {
		value, ok := lookupPath(record, path)
		if !ok || value == nil {
			continue
		}
		if parsed := parseLenientDate(value); parsed != nil {
			return parsed
		}
	}
	return nil
}

func parseLenientDate(value any) *time.Time {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// resolveYear accepts four-digit years buried in arbitrary text ("FY 2021",
// "2021-12-31") by stripping non-digits, bounded to a sane range.
func resolveYear(record map[string]any, paths ...string) *int {
	for _, path := range paths {
		value, ok := lookupPath(record, path)
		if !ok || value == nil {
			continue
		}
		if parsed := parseLenientYear(value); parsed != nil {
			return parsed
		}
	}
	return nil
}

func parseLenientYear(value any) *int {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case json.Number:
		raw = v.String()
	case float64:
		raw = strconv.FormatInt(int64(v), 10)
	default:
		return nil
	}

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() < 4 {
		return nil
	}
	year, err := strconv.Atoi(digits.String()[:4])
	if err != nil {
		return nil
	}
	if year < 1900 || year > 2100 {
		return nil
	}
	return &year
}

// recordList pulls a []map candidate out of the payload. Non-object entries
// are dropped here; the extractor records them as per-record failures by index
// before calling this, so indexes are preserved by returning raw entries too.
func recordList(payload map[string]any, paths ...string) ([]any, bool) {
	for _, path := range paths {
		value, ok := lookupPath(payload, path)
		if !ok || value == nil {
			continue
		}
		if list, ok := value.([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func asObject(value any) (map[string]any, bool) {
	obj, ok := value.(map[string]any)
	return obj, ok
}
