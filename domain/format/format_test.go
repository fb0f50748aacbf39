package format_test

import (
	"errors"
	"testing"

	"github.com/formgate/formgate/domain/format"
)

func TestOptional(t *testing.T) {
	tests := []struct {
		name string
		d    format.Descriptor
		want bool
	}{
		{"string", format.String(), false},
		{"number", format.Number(), false},
		{"optional string", format.OptionalString(), true},
		{"optional number", format.OptionalNumber(), true},
		{"array of string", format.Array(format.String()), false},
		{"array of optional string", format.Array(format.OptionalString()), true},
		{"array of optional number", format.Array(format.OptionalNumber()), true},
		{"map", format.Map(map[string]format.Descriptor{"a": format.OptionalString()}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Optional(); got != tt.want {
				t.Errorf("Optional() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryCompatible(t *testing.T) {
	tests := []struct {
		name string
		d    format.Descriptor
		want bool
	}{
		{"flat strings", format.Map(map[string]format.Descriptor{
			"name": format.String(),
			"q":    format.OptionalString(),
		}), true},
		{"number field", format.Map(map[string]format.Descriptor{
			"age": format.Number(),
		}), false},
		{"optional number field", format.Map(map[string]format.Descriptor{
			"age": format.OptionalNumber(),
		}), false},
		{"boolean field", format.Map(map[string]format.Descriptor{
			"on": format.Boolean(),
		}), false},
		{"array field", format.Map(map[string]format.Descriptor{
			"tags": format.Array(format.String()),
		}), false},
		{"nested object field", format.Map(map[string]format.Descriptor{
			"filter": format.Map(map[string]format.Descriptor{"a": format.String()}),
		}), false},
		{"not a map", format.String(), false},
		{"empty map", format.Map(nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.QueryCompatible(); got != tt.want {
				t.Errorf("QueryCompatible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := format.Array(format.String()).Check(); err != nil {
		t.Errorf("valid array: %v", err)
	}

	broken := format.Descriptor{Kind: format.KindArray}
	if err := broken.Check(); !errors.Is(err, format.ErrEmptyArray) {
		t.Errorf("empty template: err = %v, want ErrEmptyArray", err)
	}

	nested := format.Map(map[string]format.Descriptor{"list": broken})
	if err := nested.Check(); !errors.Is(err, format.ErrEmptyArray) {
		t.Errorf("nested empty template: err = %v, want ErrEmptyArray", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		want  string // Notation of the parsed descriptor
		fault error
	}{
		{name: "string", in: "string", want: "string"},
		{name: "number", in: "number", want: "number"},
		{name: "boolean", in: "boolean", want: "boolean"},
		{name: "object", in: "object", want: "object"},
		{name: "optional string", in: "?string", want: "?string"},
		{name: "optional number", in: "?number", want: "?number"},
		{name: "array", in: []any{"string"}, want: "[string]"},
		{name: "optional array", in: []any{"?number"}, want: "[?number]"},
		{name: "map", in: map[string]any{"name": "string", "age": "?number"}, want: "{age: ?number, name: string}"},
		{name: "nested", in: map[string]any{"tags": []any{"string"}}, want: "{tags: [string]}"},
		{name: "empty array", in: []any{}, fault: format.ErrEmptyArray},
		{name: "unknown token", in: "uuid", fault: errAny},
		{name: "two templates", in: []any{"string", "number"}, fault: errAny},
		{name: "non-descriptor", in: 42, fault: errAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := format.Parse(tt.in)
			if tt.fault != nil {
				if err == nil {
					t.Fatalf("Parse(%v) succeeded, want error", tt.in)
				}
				if tt.fault != errAny && !errors.Is(err, tt.fault) {
					t.Fatalf("Parse(%v) err = %v, want %v", tt.in, err, tt.fault)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%v): %v", tt.in, err)
			}
			if got := d.Notation(); got != tt.want {
				t.Errorf("Parse(%v).Notation() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// errAny marks cases that only need some error, not a specific one.
var errAny = errors.New("any error")
