package query

import (
	"sort"
	"time"

	"salesync/pkg/model"
)

// SortRows orders rows by the requested field, tie-breaking on the view's
// group-key fields ascending. The tie-break gives every adapter the same
// deterministic total order, which pagination depends on. The field and order
// must already be validated.
func SortRows(rows []model.Row, spec *ViewSpec, field, order string) {
	primary, _ := spec.Field(field)
	desc := order == OrderDesc

	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][field], rows[j][field], primary.Kind)
		if c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		for _, key := range spec.GroupKey {
			if key == field {
				continue
			}
			kf, _ := spec.Field(key)
			if c := compareValues(rows[i][key], rows[j][key], kf.Kind); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// compareValues compares two row values of a declared kind, coercing across
// the concrete types the three stores and the JSON cache round-trip produce.
func compareValues(a, b any, kind FieldKind) int {
	switch kind {
	case KindNumber:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return boolCompare(aok, bok)
		}
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case KindTime:
		at, aok := toTime(a)
		bt, bok := toTime(b)
		if !aok || !bok {
			return boolCompare(aok, bok)
		}
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		}
		return 0
	default:
		as, _ := a.(string)
		bs, _ := b.(string)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
}

// boolCompare orders missing/uncoercible values before present ones.
func boolCompare(aok, bok bool) int {
	switch {
	case aok == bok:
		return 0
	case !aok:
		return -1
	}
	return 1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		// Cached rows carry times as JSON strings.
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
