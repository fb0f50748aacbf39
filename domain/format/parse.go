package format

import (
	"fmt"
)

// Parse converts a decoded YAML or JSON value into a Descriptor.
//
// Notation:
//   - "string", "number", "boolean", "object" — basic descriptors
//   - "?string", "?number" — optional-scalar sentinels
//   - a one-element sequence — array descriptor over the parsed element
//   - a mapping — object descriptor, each value parsed recursively
//
// A sequence with zero elements is the empty-array authoring fault and
// returns ErrEmptyArray; more than one element is ambiguous and rejected.
func Parse(v any) (Descriptor, error) {
	switch t := v.(type) {
	case string:
		switch t {
		case "string":
			return String(), nil
		case "number":
			return Number(), nil
		case "boolean":
			return Boolean(), nil
		case "object":
			return Object(), nil
		case "?string":
			return OptionalString(), nil
		case "?number":
			return OptionalNumber(), nil
		}
		return Descriptor{}, fmt.Errorf("format: unknown descriptor %q", t)

	case []any:
		if len(t) == 0 {
			return Descriptor{}, ErrEmptyArray
		}
		if len(t) > 1 {
			return Descriptor{}, fmt.Errorf("format: array descriptor takes one element template, got %d", len(t))
		}
		elem, err := Parse(t[0])
		if err != nil {
			return Descriptor{}, err
		}
		return Array(elem), nil

	case map[string]any:
		fields := make(map[string]Descriptor, len(t))
		for name, raw := range t {
			f, err := Parse(raw)
			if err != nil {
				return Descriptor{}, fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = f
		}
		return Map(fields), nil

	case map[any]any:
		// yaml.v2-style decoding; yaml.v3 produces map[string]any but
		// callers may hand us either.
		fields := make(map[string]Descriptor, len(t))
		for k, raw := range t {
			name, ok := k.(string)
			if !ok {
				return Descriptor{}, fmt.Errorf("format: non-string field name %v", k)
			}
			f, err := Parse(raw)
			if err != nil {
				return Descriptor{}, fmt.Errorf("field %q: %w", name, err)
			}
			fields[name] = f
		}
		return Map(fields), nil
	}

	return Descriptor{}, fmt.Errorf("format: cannot parse descriptor from %T", v)
}
