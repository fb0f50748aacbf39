// Package infer maps format descriptors to the Go types a value holds
// after successful validation.
//
// The mapping is the static half of the validator contract: for every
// descriptor D and decoded value v, Validate(v, D, strict) == true implies
// v's dynamic type is assignable to GoType(D) (with optional forms widened
// to pointers in generated structs, since absence has no decoded-value
// representation). The two are kept in lockstep by the property tests in
// this package; any divergence between them is a correctness bug, not a
// style choice.
package infer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/formgate/formgate/domain/format"
)

// Never is the uninhabited marker rendered for descriptors that are
// illegal in a given inference mode. No handler can be written against a
// Never-typed payload, which surfaces an illegal GET format at authoring
// time instead of only as a request-time 500.
type Never struct {
	never func() // no value outside this package is meaningfully constructible
}

// NeverType is the rendered name of the uninhabited marker.
const NeverType = "infer.Never"

// GoType renders the Go type for values accepted by the descriptor.
//
//	string / number / boolean / object  →  string / float64 / bool / map[string]any
//	?string / ?number                   →  *string / *float64
//	[E]                                 →  []GoType(E)
//	[?string] / [?number]               →  *[]string / *[]float64
//	{fields}                            →  anonymous struct, optional fields as pointers
func GoType(d format.Descriptor) string {
	switch d.Kind {
	case format.KindString:
		return "string"
	case format.KindNumber:
		return "float64"
	case format.KindBoolean:
		return "bool"
	case format.KindObject:
		return "map[string]any"
	case format.KindOptionalString:
		return "*string"
	case format.KindOptionalNumber:
		return "*float64"
	case format.KindArray:
		if d.Elem == nil {
			return NeverType
		}
		switch d.Elem.Kind {
		case format.KindOptionalString:
			return "*[]string"
		case format.KindOptionalNumber:
			return "*[]float64"
		}
		return "[]" + GoType(*d.Elem)
	case format.KindMap:
		return structType(d, GoType)
	}
	return NeverType
}

// QueryGoType renders the Go type for GET query-derived input. Query
// strings carry only strings, so every descriptor other than the
// plain-string basic and the optional-string sentinel is uninhabited;
// a map is rendered field-by-field so the offending field is visible in
// the generated code.
func QueryGoType(d format.Descriptor) string {
	switch d.Kind {
	case format.KindString:
		return "string"
	case format.KindOptionalString:
		return "*string"
	case format.KindMap:
		return structType(d, QueryGoType)
	}
	return NeverType
}

func structType(d format.Descriptor, render func(format.Descriptor) string) string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("struct {\n")
	for _, name := range names {
		f := d.Fields[name]
		tag := name
		if f.Optional() {
			tag += ",omitempty"
		}
		fmt.Fprintf(&b, "\t%s %s `json:%q`\n", FieldName(name), render(f), tag)
	}
	b.WriteString("}")
	return b.String()
}

// Decl renders a named top-level type declaration for the descriptor,
// used by the types generator command.
func Decl(name string, d format.Descriptor, forQuery bool) string {
	render := GoType
	if forQuery {
		render = QueryGoType
	}
	return fmt.Sprintf("type %s %s", FieldName(name), render(d))
}

// FieldName converts a wire field name to an exported Go identifier:
// "user_name" and "user-name" become "UserName", "id" becomes "ID" by the
// usual initialism rule only for the bare word.
func FieldName(name string) string {
	if name == "id" {
		return "ID"
	}
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Field"
	}
	return b.String()
}
