// Package endpoint provides endpoint configuration value types and the
// load-time route table. Endpoints are authored once, checked at startup,
// and read concurrently by every request without synchronization.
package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/formgate/formgate/domain/format"
)

// MethodClass restricts which HTTP verbs an endpoint accepts and which
// source (query vs body) feeds validation.
type MethodClass string

const (
	MethodGet  MethodClass = "get"
	MethodPost MethodClass = "post"
	MethodAll  MethodClass = "all" // default
)

// Endpoint is an immutable routing rule plus its validation configuration.
type Endpoint struct {
	Path    string
	Methods MethodClass

	// Request is the format descriptor for the request payload:
	// query parameters for GET, the JSON body otherwise. Nil means the
	// payload is not validated.
	Request *format.Descriptor

	// Strict rejects undeclared keys in object payloads.
	Strict bool

	// Headers maps header names to descriptors; each listed header must
	// be present and valid.
	Headers map[string]format.Descriptor

	// ContentType, when set, must be contained in the request's
	// Content-Type for body-carrying requests.
	ContentType string

	// Auth enables token validation (when also enabled globally);
	// Permissions lists what the token must carry.
	Auth        bool
	Permissions []string

	// Handler names the registered handler for this endpoint. An
	// endpoint whose name resolves to nothing is a server configuration
	// fault surfaced as a 500, mirroring a missing handler export.
	Handler string
}

// Allows reports whether the HTTP method is admitted by the method class.
// An empty class defaults to all.
func (e Endpoint) Allows(method string) bool {
	switch e.Methods {
	case MethodGet:
		return method == http.MethodGet
	case MethodPost:
		return method == http.MethodPost
	case MethodAll, "":
		return true
	}
	return false
}

// UsesQuery reports whether validation reads query parameters rather than
// the body for the given request method.
func (e Endpoint) UsesQuery(method string) bool {
	return method == http.MethodGet
}

// Check reports authoring faults: descriptors that can never be satisfied
// and GET endpoints declaring shapes query strings cannot carry. These are
// bugs in endpoint configuration, not in any request.
func (e Endpoint) Check() error {
	if e.Request != nil {
		if err := e.Request.Check(); err != nil {
			return fmt.Errorf("endpoint %s: %w", e.Path, err)
		}
		if e.Methods == MethodGet && !e.Request.QueryCompatible() {
			return fmt.Errorf("endpoint %s: %w", e.Path, ErrQueryFormat)
		}
	}
	for name, d := range e.Headers {
		if err := d.Check(); err != nil {
			return fmt.Errorf("endpoint %s: header %q: %w", e.Path, name, err)
		}
	}
	return nil
}

// ErrQueryFormat reports a GET endpoint whose descriptor declares fields a
// query string cannot represent (numbers, booleans, arrays, nesting).
var ErrQueryFormat = errors.New("endpoint: GET format must be a flat object of string or ?string fields")

// Table is the process-wide endpoint table: built during startup, frozen
// before serving, read-only thereafter.
type Table struct {
	entries []Endpoint
	byPath  map[string]int
	frozen  bool
}

// NewTable creates an empty endpoint table.
func NewTable() *Table {
	return &Table{byPath: make(map[string]int)}
}

// Register adds an endpoint. Paths must be unique and start with "/".
// Registering on a frozen table is a programming error and panics.
func (t *Table) Register(e Endpoint) error {
	if t.frozen {
		panic("endpoint: register on frozen table")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("endpoint: path %q must start with /", e.Path)
	}
	if _, dup := t.byPath[e.Path]; dup {
		return fmt.Errorf("endpoint: duplicate path %q", e.Path)
	}
	t.byPath[e.Path] = len(t.entries)
	t.entries = append(t.entries, e)
	return nil
}

// Freeze marks the table immutable. All registration must happen before
// the first request is served.
func (t *Table) Freeze() { t.frozen = true }

// Lookup returns the endpoint registered at path.
func (t *Table) Lookup(path string) (Endpoint, bool) {
	i, ok := t.byPath[path]
	if !ok {
		return Endpoint{}, false
	}
	return t.entries[i], true
}

// All returns the registered endpoints in registration order.
func (t *Table) All() []Endpoint {
	out := make([]Endpoint, len(t.entries))
	copy(out, t.entries)
	return out
}

// Check runs Endpoint.Check across the table, collecting every fault.
func (t *Table) Check() error {
	var errs []string
	for _, e := range t.entries {
		if err := e.Check(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
