package query_test

import (
	"net/url"
	"reflect"
	"testing"

	"github.com/formgate/formgate/domain/query"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		in     url.Values
		want   map[string]string
		wantOK bool
	}{
		{
			name:   "single values copied through",
			in:     url.Values{"name": {"tingxi"}, "q": {"x"}},
			want:   map[string]string{"name": "tingxi", "q": "x"},
			wantOK: true,
		},
		{
			name:   "empty bag",
			in:     url.Values{},
			want:   map[string]string{},
			wantOK: true,
		},
		{
			name:   "multi-valued key fails",
			in:     url.Values{"name": {"a", "b"}},
			wantOK: false,
		},
		{
			name:   "bracketed key fails",
			in:     url.Values{"name[a]": {"b"}},
			wantOK: false,
		},
		{
			name:   "valueless key omitted",
			in:     url.Values{"name": {"a"}, "empty": {}},
			want:   map[string]string{"name": "a"},
			wantOK: true,
		},
		{
			name:   "empty string value kept",
			in:     url.Values{"name": {""}},
			want:   map[string]string{"name": ""},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := query.Normalize(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Normalize(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeParsedQuery(t *testing.T) {
	u, err := url.Parse("/search?name=tingxi&page=2")
	if err != nil {
		t.Fatal(err)
	}
	got, ok := query.Normalize(u.Query())
	if !ok {
		t.Fatal("normalize failed for plain query")
	}
	// Numbers stay strings; the descriptor restriction exists precisely
	// because the wire cannot distinguish them.
	if got["page"] != "2" {
		t.Errorf("page = %q, want %q", got["page"], "2")
	}
}

func TestNormalizeMap(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   map[string]string
		wantOK bool
	}{
		{
			name:   "flat strings",
			in:     map[string]any{"a": "x", "b": "y"},
			want:   map[string]string{"a": "x", "b": "y"},
			wantOK: true,
		},
		{
			name:   "nil entries omitted",
			in:     map[string]any{"a": "x", "b": nil},
			want:   map[string]string{"a": "x"},
			wantOK: true,
		},
		{
			name:   "nested object fails",
			in:     map[string]any{"a": map[string]any{"b": "c"}},
			wantOK: false,
		},
		{
			name:   "array value fails",
			in:     map[string]any{"a": []any{"x"}},
			wantOK: false,
		},
		{
			name:   "number value fails",
			in:     map[string]any{"a": float64(1)},
			wantOK: false,
		},
		{name: "non-map input fails", in: []any{"a"}, wantOK: false},
		{name: "primitive input fails", in: "a", wantOK: false},
		{name: "nil input fails", in: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := query.NormalizeMap(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeMap(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeMap(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsValues(t *testing.T) {
	got := query.AsValues(map[string]string{"a": "x"})
	if v, ok := got["a"].(string); !ok || v != "x" {
		t.Errorf("AsValues lost value: %v", got)
	}
}
