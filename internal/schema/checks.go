package schema

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Text accepts strings, trimmed, and numbers rendered without exponent.
// Empty text is unusable so optional strings end up absent, not "".
func Text() Check {
	return func(raw any, _ Path) (any, bool) {
		var s string
		switch v := raw.(type) {
		case string:
			s = strings.TrimSpace(v)
		case float64:
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			s = v.String()
		default:
			return nil, false
		}
		if s == "" {
			return nil, false
		}
		return s, true
	}
}

// TextWith runs Text and then rewrites the result. fn returning "" marks the
// value unusable.
func TextWith(fn func(string) string) Check {
	text := Text()
	return func(raw any, at Path) (any, bool) {
		v, ok := text(raw, at)
		if !ok {
			return nil, false
		}
		out := fn(v.(string))
		if out == "" {
			return nil, false
		}
		return out, true
	}
}

// Enum maps raw text onto a closed set. Lookup is case-insensitive and
// ignores surrounding whitespace; aliases maps folded spellings to canonical
// values and should include every canonical value itself.
func Enum(aliases map[string]string) Check {
	return func(raw any, _ Path) (any, bool) {
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		v, ok := aliases[Fold(s)]
		return v, ok
	}
}

// EnumOf builds an Enum alias table from the canonical values plus extra
// folded aliases.
func EnumOf[T ~string](values []T, extra map[string]T) Check {
	table := make(map[string]string, len(values)+len(extra))
	for _, v := range values {
		table[Fold(string(v))] = string(v)
	}
	for k, v := range extra {
		table[Fold(k)] = string(v)
	}
	return Enum(table)
}

// Fold is the key used for case-insensitive comparisons. Runs of spaces,
// underscores and hyphens collapse to a single space.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp accepts RFC 3339 text, a few looser ISO forms, or epoch
// milliseconds, and yields RFC 3339 text in UTC.
func Timestamp() Check {
	return func(raw any, _ Path) (any, bool) {
		t, ok := ParseTimestamp(raw)
		if !ok {
			return nil, false
		}
		return t.Format(time.RFC3339Nano), true
	}
}

// maxEpochMillis is 9999-12-31T23:59:59.999Z, the last instant RFC 3339
// can render.
const maxEpochMillis = 253402300799999

// ParseTimestamp is the parser behind Timestamp. Results always fall in
// years 0 through 9999 once converted to UTC; anything else is rejected.
func ParseTimestamp(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				if t = t.UTC(); InYearRange(t) {
					return t, true
				}
				return time.Time{}, false
			}
		}
	case float64:
		if v > 0 && v <= maxEpochMillis && v == math.Trunc(v) {
			return time.UnixMilli(int64(v)).UTC(), true
		}
	}
	return time.Time{}, false
}

// InYearRange reports whether t, in UTC, lies in years 0 through 9999.
func InYearRange(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 0 && y <= 9999
}

// Date accepts calendar dates as YYYY-MM-DD. A full timestamp is cut down to
// its date part.
func Date() Check {
	return func(raw any, _ Path) (any, bool) {
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if len(s) > 10 && s[10] == 'T' {
			s = s[:10]
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return nil, false
		}
		return s, true
	}
}

// ClockTime accepts HH:MM, dropping seconds when present.
func ClockTime() Check {
	return func(raw any, _ Path) (any, bool) {
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		if t, ok := ParseClock(s); ok {
			return t, true
		}
		return nil, false
	}
}

// ParseClock is the parser behind ClockTime.
func ParseClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

// Count accepts non-negative integers, including integral floats and
// numeric strings.
func Count() Check {
	return func(raw any, _ Path) (any, bool) {
		var f float64
		switch v := raw.(type) {
		case float64:
			f = v
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, false
			}
			f = n
		default:
			return nil, false
		}
		if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
			return nil, false
		}
		return int(f), true
	}
}

// Number accepts finite numbers.
func Number() Check {
	return func(raw any, _ Path) (any, bool) {
		f, ok := raw.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	}
}

// Bool accepts booleans and their string spellings.
func Bool() Check {
	return func(raw any, _ Path) (any, bool) {
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, false
			}
			return b, true
		}
		return nil, false
	}
}

// Prefixed accepts strings starting with prefix, such as inline image data.
func Prefixed(prefix string) Check {
	return func(raw any, _ Path) (any, bool) {
		s, ok := raw.(string)
		if !ok || !strings.HasPrefix(s, prefix) {
			return nil, false
		}
		return s, true
	}
}

// List filters an array element-wise. Elements failing elem are dropped; the
// array itself is never rejected for their sake.
func List(elem Check) Check {
	return func(raw any, at Path) (any, bool) {
		items, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			if item == nil {
				continue
			}
			if v, ok := elem(item, at.Index(i)); ok {
				out = append(out, v)
			}
		}
		return out, true
	}
}

// NonEmpty rejects a list that ended up with no elements.
func NonEmpty(list Check) Check {
	return func(raw any, at Path) (any, bool) {
		v, ok := list(raw, at)
		if !ok || len(v.([]any)) == 0 {
			return nil, false
		}
		return v, true
	}
}

// Keyed filters an object used as a map. keyOf canonicalizes member names and
// rejects unknown ones; members whose values fail value are dropped. When two
// members canonicalize to the same key the first in byte order wins.
func Keyed(keyOf func(string) (string, bool), value Check) Check {
	return func(raw any, at Path) (any, bool) {
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, false
		}
		out := make(map[string]any, len(obj))
		for _, k := range slices.Sorted(maps.Keys(obj)) {
			key, ok := keyOf(k)
			if !ok {
				continue
			}
			if _, taken := out[key]; taken {
				continue
			}
			if nv, ok := value(obj[k], at.Key(key)); ok {
				out[key] = nv
			}
		}
		return out, true
	}
}

// Weekdays accepts a list of day numbers 0-6 (Sunday first), deduplicated and
// sorted. An empty result is unusable.
func Weekdays() Check {
	return func(raw any, _ Path) (any, bool) {
		items, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		days := make([]int, 0, len(items))
		for _, item := range items {
			f, ok := item.(float64)
			if !ok || f != math.Trunc(f) || f < 0 || f > 6 {
				continue
			}
			days = append(days, int(f))
		}
		slices.Sort(days)
		days = slices.Compact(days)
		if len(days) == 0 {
			return nil, false
		}
		return days, true
	}
}

// Const returns a Default that always yields v.
func Const(v any) func(map[string]any, Path) any {
	return func(map[string]any, Path) any { return v }
}

// OneOrMany behaves like list but also accepts a single bare element, for
// fields that used to hold one value and now hold many.
func OneOrMany(list, elem Check) Check {
	return func(raw any, at Path) (any, bool) {
		if _, ok := raw.([]any); ok {
			return list(raw, at)
		}
		v, ok := elem(raw, at.Index(0))
		if !ok {
			return nil, false
		}
		return []any{v}, true
	}
}
