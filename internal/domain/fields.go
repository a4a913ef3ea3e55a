package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumberRe extracts the numeric prefix of values such as "15 mph".
var leadingNumberRe = regexp.MustCompile(`^\s*([-+]?\d+(?:\.\d+)?)`)

// numberField reads a numeric field, returning def when the field is absent
// or not interpretable as a number.
func numberField(data map[string]any, key string, def float64) float64 {
	raw, ok := data[key]
	if !ok || raw == nil {
		return def
	}

	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		v = f
	case string:
		m := leadingNumberRe.FindStringSubmatch(n)
		if len(m) != 2 {
			return def
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return def
		}
		v = f
	default:
		return def
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// boolField reads a flag that connectors encode as a bool, a 0/1 number or a string.
func boolField(data map[string]any, key string) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			return true
		}
	}
	return false
}

// stringField reads a string field, returning def when absent or empty.
func stringField(data map[string]any, key, def string) string {
	if s, ok := data[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return def
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
