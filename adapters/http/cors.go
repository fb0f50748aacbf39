package http

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// HeaderStore accumulates request header names observed in CORS preflights
// so later preflights can allow them. Process-wide state with a documented
// lifecycle: it grows monotonically for the process lifetime and resets
// only on restart. Growth is capped so header-spoofing clients cannot
// consume unbounded memory; names past the cap are dropped.
type HeaderStore struct {
	mu    sync.RWMutex
	names map[string]struct{}
	max   int
}

// NewHeaderStore creates a store holding at most max observed names.
// Zero means 256.
func NewHeaderStore(max int) *HeaderStore {
	if max <= 0 {
		max = 256
	}
	return &HeaderStore{names: make(map[string]struct{}), max: max}
}

// Observe records the comma-separated header names of an
// Access-Control-Request-Headers value.
func (s *HeaderStore) Observe(requested string) {
	if requested == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range strings.Split(requested, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, seen := s.names[name]; seen {
			continue
		}
		if len(s.names) >= s.max {
			return
		}
		s.names[name] = struct{}{}
	}
}

// Allowed renders the accumulated names for Access-Control-Allow-Headers.
func (s *HeaderStore) Allowed() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// NewCORSMiddleware negotiates CORS headers. Preflight OPTIONS requests
// short-circuit with 204 after recording any requested header names.
func NewCORSMiddleware(store *HeaderStore) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			store.Observe(r.Header.Get("Access-Control-Request-Headers"))

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			if allowed := store.Allowed(); allowed != "" {
				h.Set("Access-Control-Allow-Headers", allowed)
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
