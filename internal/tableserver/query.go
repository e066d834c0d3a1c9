package tableserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

var errNullRow = errors.New("rows must be JSON objects")

// reserved query parameters that are not column filters.
var reserved = map[string]bool{"order": true, "select": true}

type filter struct {
	column string
	op     string
	values []string
}

type ordering struct {
	column string
	desc   bool
}

type query struct {
	filters []filter
	order   []ordering
}

func parseQuery(values url.Values) (query, error) {
	var q query
	for column, raws := range values {
		if reserved[column] {
			continue
		}
		for _, raw := range raws {
			f, err := parseFilter(column, raw)
			if err != nil {
				return query{}, err
			}
			q.filters = append(q.filters, f)
		}
	}
	// map iteration order is random; keep error messages and matching stable
	slices.SortFunc(q.filters, func(a, b filter) int { return strings.Compare(a.column, b.column) })
	for _, raw := range values["order"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			fields := strings.Split(part, ".")
			o := ordering{column: fields[0]}
			for _, mod := range fields[1:] {
				switch mod {
				case "asc":
				case "desc":
					o.desc = true
				case "nullsfirst", "nullslast":
				default:
					return query{}, fmt.Errorf("unknown order modifier %q", mod)
				}
			}
			q.order = append(q.order, o)
		}
	}
	return q, nil
}

func parseFilter(column, raw string) (filter, error) {
	op, arg, ok := strings.Cut(raw, ".")
	if !ok {
		return filter{}, fmt.Errorf("filter %s=%s has no operator", column, raw)
	}
	switch op {
	case "eq", "neq":
		return filter{column: column, op: op, values: []string{arg}}, nil
	case "is":
		if arg != "null" {
			return filter{}, fmt.Errorf("filter %s: only is.null is supported", column)
		}
		return filter{column: column, op: op}, nil
	case "in":
		if !strings.HasPrefix(arg, "(") || !strings.HasSuffix(arg, ")") {
			return filter{}, fmt.Errorf("filter %s: in expects a parenthesised list", column)
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(arg, "("), ")")
		var vals []string
		if inner != "" {
			for _, v := range strings.Split(inner, ",") {
				vals = append(vals, strings.Trim(v, `"`))
			}
		}
		return filter{column: column, op: op, values: vals}, nil
	}
	return filter{}, fmt.Errorf("filter %s: unknown operator %q", column, op)
}

func (f filter) match(row Row) bool {
	cell, present := cellString(row[f.column])
	switch f.op {
	case "is":
		return !present
	case "eq":
		return present && cell == f.values[0]
	case "neq":
		return present && cell != f.values[0]
	case "in":
		return present && slices.Contains(f.values, cell)
	}
	return false
}

func (q query) matches(row Row) bool {
	for _, f := range q.filters {
		if !f.match(row) {
			return false
		}
	}
	return true
}

// sort orders rows by the requested columns, nulls last, comparing numbers
// numerically and everything else as text.
func (q query) sort(rows []Row) {
	if len(q.order) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		for _, o := range q.order {
			if c := compareCells(a[o.column], b[o.column]); c != 0 {
				_, aok := cellString(a[o.column])
				_, bok := cellString(b[o.column])
				if o.desc && aok && bok {
					return -c
				}
				return c
			}
		}
		return 0
	})
}

func compareCells(a, b any) int {
	as, aok := cellString(a)
	bs, bok := cellString(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(as, bs)
}

// cellString renders a decoded JSON value the way it appears in a filter. The
// second result is false for null or missing cells.
func cellString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
