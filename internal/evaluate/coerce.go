package evaluate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToNumber tries to coerce a value of unknown provenance (store JSON, tool
// arguments, proposal parameters) into a float64. It accepts Go numerics and
// numeric strings and reports false for everything else; it never panics.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
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
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// pickNumber walks candidate keys in order and returns the first value that
// coerces to a number. present reports whether any candidate key existed at
// all, so callers can distinguish absent data from malformed data.
func pickNumber(fields map[string]any, keys []string) (value *float64, present bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		present = true
		if f, ok := ToNumber(v); ok {
			return &f, true
		}
	}
	return nil, present
}
