package domain

import "strings"

const (
	projectPrefix   = "P"
	workOrderPrefix = "WO"
)

// FoldKey is the comparison form used by every uniqueness check: trimmed and
// case-folded.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalProjectNumber upper-cases a project number and makes sure it
// carries the "P" prefix: "1403" and "p1403" both become "P1403".
func CanonicalProjectNumber(raw string) string {
	return withPrefix(raw, projectPrefix)
}

// CanonicalWorkOrderNumber upper-cases a work order number and makes sure it
// carries the "WO" prefix: "804322" and "wo804322" both become "WO804322".
func CanonicalWorkOrderNumber(raw string) string {
	return withPrefix(raw, workOrderPrefix)
}

// CanonicalPurchaseOrderNumber trims a purchase order number. Customers issue
// these, so their spelling is otherwise kept.
func CanonicalPurchaseOrderNumber(raw string) string {
	return strings.TrimSpace(raw)
}

func withPrefix(raw, prefix string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, prefix) {
		return s
	}
	return prefix + s
}
