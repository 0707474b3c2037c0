package bazik

import (
	"encoding/json"
	"strings"
)

// The gateway's field naming differs between its hosted-checkout and direct
// API modes. Normalisation is centralised here as ordered fallbacks instead
// of ad hoc chaining at call sites.

// redirectFields is the accepted redirect-URL field order. checkout_url is
// the documented name; payment_url and url appear in older gateway modes.
var redirectFields = []string{"checkout_url", "payment_url", "url"}

// RedirectURL extracts the hosted checkout URL from a gateway payload.
func RedirectURL(payload map[string]any) (string, bool) {
	for _, key := range redirectFields {
		if v := stringValue(payload[key]); v != "" {
			return v, true
		}
	}
	return "", false
}

// StringField returns the first non-empty string under the given keys.
func StringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringValue(payload[key]); v != "" {
			return v
		}
	}
	return ""
}

// NumberField returns the first numeric value under the given keys.
func NumberField(payload map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case float64:
			return v
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	}
	return 0
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		// integer-valued ids occasionally arrive as numbers
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return ""
	}
}
