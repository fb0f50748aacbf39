// Package query normalizes HTTP query parameter bags into the flat
// string-only maps the validator expects for GET requests.
package query

import (
	"net/url"
	"strings"
)

// Normalize adapts parsed query parameters to a flat string map.
//
// GET endpoints never accept multi-valued or nested parameters: a key with
// more than one value fails, as does a bracketed key like "filter[name]"
// (the conventional nested-object encoding). Keys with no value are
// omitted so the validator's optional/required rules decide their fate.
func Normalize(values url.Values) (map[string]string, bool) {
	out := make(map[string]string, len(values))
	for key, vals := range values {
		if strings.ContainsAny(key, "[]") {
			return nil, false
		}
		switch len(vals) {
		case 0:
			continue
		case 1:
			out[key] = vals[0]
		default:
			return nil, false
		}
	}
	return out, true
}

// NormalizeMap adapts an already-decoded parameter bag. Non-map input
// fails; nil entries are omitted; any non-string entry (arrays, nested
// objects, numbers) fails the whole normalization.
func NormalizeMap(bag any) (map[string]string, bool) {
	obj, ok := bag.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(obj))
	for key, val := range obj {
		if val == nil {
			continue
		}
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		out[key] = s
	}
	return out, true
}

// AsValues widens a normalized string map back into decoded-value form so
// it can be handed to the validator.
func AsValues(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
