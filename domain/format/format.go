// Package format defines the descriptor vocabulary for request and response
// shapes. Descriptors are immutable value types authored once per endpoint
// and read on every request.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a descriptor variant.
type Kind int

const (
	// Basic descriptors match a value whose runtime kind is exactly the
	// declared primitive kind.
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindObject // any non-array, non-null object; keys unconstrained

	// Optional-scalar sentinels match absence or a scalar of the
	// corresponding kind.
	KindOptionalString
	KindOptionalNumber

	// Composite descriptors.
	KindArray // Elem is the element template
	KindMap   // Fields maps field name to its descriptor
)

// String returns the descriptor notation for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	case KindOptionalString:
		return "?string"
	case KindOptionalNumber:
		return "?number"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrEmptyArray reports an array descriptor with no element template.
// It is a configuration fault in endpoint authoring, never a validation
// outcome: an empty template can match nothing.
var ErrEmptyArray = errors.New("format: array descriptor has no element template")

// Descriptor describes the expected shape of a value. The zero value is
// the plain string descriptor.
type Descriptor struct {
	Kind   Kind
	Elem   *Descriptor           // set for KindArray
	Fields map[string]Descriptor // set for KindMap
}

// String returns the plain-string basic descriptor.
func String() Descriptor { return Descriptor{Kind: KindString} }

// Number returns the number basic descriptor.
func Number() Descriptor { return Descriptor{Kind: KindNumber} }

// Boolean returns the boolean basic descriptor.
func Boolean() Descriptor { return Descriptor{Kind: KindBoolean} }

// Object returns the open-keyed object basic descriptor.
func Object() Descriptor { return Descriptor{Kind: KindObject} }

// OptionalString returns the optional-string sentinel.
func OptionalString() Descriptor { return Descriptor{Kind: KindOptionalString} }

// OptionalNumber returns the optional-number sentinel.
func OptionalNumber() Descriptor { return Descriptor{Kind: KindOptionalNumber} }

// Array returns an array descriptor with elem as the element template.
// An array whose template is an optional-scalar sentinel means an optional
// array field rather than an array of optional elements.
func Array(elem Descriptor) Descriptor {
	e := elem
	return Descriptor{Kind: KindArray, Elem: &e}
}

// Map returns an object descriptor over the given named fields.
func Map(fields map[string]Descriptor) Descriptor {
	return Descriptor{Kind: KindMap, Fields: fields}
}

// Optional reports whether absence satisfies the descriptor: the two
// optional-scalar sentinels, and an array whose template is a sentinel
// (the optional-array field form).
func (d Descriptor) Optional() bool {
	switch d.Kind {
	case KindOptionalString, KindOptionalNumber:
		return true
	case KindArray:
		if d.Elem == nil {
			return false
		}
		return d.Elem.Kind == KindOptionalString || d.Elem.Kind == KindOptionalNumber
	}
	return false
}

// QueryCompatible reports whether the descriptor is legal for a GET
// endpoint: a flat map whose every field is either the plain-string
// descriptor or the optional-string sentinel. Query strings carry only
// string values, so anything else can never validate.
func (d Descriptor) QueryCompatible() bool {
	if d.Kind != KindMap {
		return false
	}
	for _, f := range d.Fields {
		if f.Kind != KindString && f.Kind != KindOptionalString {
			return false
		}
	}
	return true
}

// Check walks the descriptor and reports the first authoring fault:
// an array descriptor with no element template. Validation never reaches
// such a descriptor; surfacing it at load time keeps the fault close to
// the endpoint that authored it.
func (d Descriptor) Check() error {
	switch d.Kind {
	case KindArray:
		if d.Elem == nil {
			return ErrEmptyArray
		}
		return d.Elem.Check()
	case KindMap:
		for name, f := range d.Fields {
			if err := f.Check(); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
	}
	return nil
}

// Notation renders the descriptor in the notation accepted by Parse.
// Useful in error messages and generated documentation.
func (d Descriptor) Notation() string {
	switch d.Kind {
	case KindArray:
		if d.Elem == nil {
			return "[]"
		}
		return "[" + d.Elem.Notation() + "]"
	case KindMap:
		names := make([]string, 0, len(d.Fields))
		for name := range d.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + ": " + d.Fields[name].Notation()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return d.Kind.String()
	}
}
