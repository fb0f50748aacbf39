// Package validate implements runtime validation of decoded JSON values
// against format descriptors. Validation is a pure function of its inputs:
// it reads no shared state and is safe under concurrent requests.
package validate

import (
	"encoding/json"

	"github.com/formgate/formgate/domain/format"
)

// Validate reports whether value matches the descriptor.
//
// The outcome is a single coarse-grained pass/fail; callers supply their
// own error message. The returned error is reserved for configuration
// faults (an array descriptor with no element template), which can never
// be satisfied and indicate a bug in endpoint authoring rather than bad
// request input.
//
// Values are expected in decoded-JSON form: nil, string, bool, float64 or
// json.Number, []any, map[string]any. A nil value passes only the
// optional-scalar sentinels and the optional-array form; every other
// descriptor fails on absence. When strict is true, object values may not
// carry keys the descriptor does not declare.
func Validate(value any, d format.Descriptor, strict bool) (bool, error) {
	switch d.Kind {
	case format.KindOptionalString:
		if value == nil {
			return true, nil
		}
		_, ok := value.(string)
		return ok, nil

	case format.KindOptionalNumber:
		if value == nil {
			return true, nil
		}
		return isNumber(value), nil

	case format.KindString:
		if value == nil {
			return false, nil
		}
		_, ok := value.(string)
		return ok, nil

	case format.KindNumber:
		if value == nil {
			return false, nil
		}
		return isNumber(value), nil

	case format.KindBoolean:
		if value == nil {
			return false, nil
		}
		_, ok := value.(bool)
		return ok, nil

	case format.KindObject:
		if value == nil {
			return false, nil
		}
		_, ok := value.(map[string]any)
		return ok, nil

	case format.KindArray:
		if d.Elem == nil {
			return false, format.ErrEmptyArray
		}
		return validateArray(value, d, strict)

	case format.KindMap:
		return validateMap(value, d, strict)
	}

	// Unknown descriptor kinds fail closed so a malformed configuration
	// surfaces as rejected requests, never silently accepted ones.
	return false, nil
}

func validateArray(value any, d format.Descriptor, strict bool) (bool, error) {
	elem := *d.Elem

	// A sentinel template turns the whole descriptor into an optional
	// array field: absence passes, but a present value must still be a
	// non-empty array of the sentinel's scalar kind.
	if elem.Kind == format.KindOptionalString || elem.Kind == format.KindOptionalNumber {
		if value == nil {
			return true, nil
		}
		items, ok := value.([]any)
		if !ok || len(items) == 0 {
			return false, nil
		}
		for _, item := range items {
			if item == nil {
				return false, nil
			}
			if elem.Kind == format.KindOptionalString {
				if _, ok := item.(string); !ok {
					return false, nil
				}
			} else if !isNumber(item) {
				return false, nil
			}
		}
		return true, nil
	}

	if value == nil {
		return false, nil
	}
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	for _, item := range items {
		ok, err := Validate(item, elem, strict)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func validateMap(value any, d format.Descriptor, strict bool) (bool, error) {
	if value == nil {
		return false, nil
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return false, nil
	}

	if strict {
		for key := range obj {
			if _, declared := d.Fields[key]; !declared {
				return false, nil
			}
		}
	}

	for name, field := range d.Fields {
		// A missing key and an explicit null are both absence; only the
		// optional forms tolerate either.
		ok, err := Validate(obj[name], field, strict)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// isNumber reports whether a decoded value carries number kind. Decoders
// produce float64 by default or json.Number under UseNumber; integer types
// appear when values are built in Go rather than decoded.
func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}
