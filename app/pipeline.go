package app

import (
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/formgate/formgate/domain/endpoint"
	"github.com/formgate/formgate/domain/format"
	"github.com/formgate/formgate/domain/query"
	"github.com/formgate/formgate/domain/validate"
	"github.com/formgate/formgate/ports"
)

// Rejection messages surfaced to clients. Validation is pass/fail by
// design, so each stage carries one generic message.
const (
	msgMethodNotAllowed = "method not allowed"
	msgContentType      = "content-type mismatch"
	msgHeaderFormat     = "header format error"
	msgParamFormat      = "parameter format error"
	msgMisconfigured    = "interface misconfiguration"
	msgNoHandler        = "handler not implemented"
	msgInternal         = "internal server error"
)

// Pipeline stages, as reported to metrics.
const (
	stageMethod      = "method"
	stageContentType = "content_type"
	stageHeader      = "header"
	stageToken       = "token"
	stagePayload     = "payload"
	stageConfig      = "config"
	stagePanic       = "panic"
)

// PipelineConfig holds the static pipeline settings.
type PipelineConfig struct {
	// AuthEnabled is the global token-validation switch; an endpoint's
	// Auth flag only takes effect when this is on.
	AuthEnabled bool

	// TokenKey names the header, query parameter, and body field the
	// token is extracted from, first non-empty wins.
	TokenKey string

	// MaxBodyBytes caps request body reads. Zero means 10MB.
	MaxBodyBytes int64
}

// Pipeline sequences per-request checks: method, content type, headers,
// token, payload validation, handler. Every check short-circuits on first
// failure. The pipeline holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	handlers map[string]Handler
	tokens   ports.Tokens
	metrics  ports.Metrics
	logger   zerolog.Logger

	authEnabled bool
	tokenKey    string
	maxBody     int64
}

// NewPipeline creates a pipeline over the given named handlers.
func NewPipeline(handlers map[string]Handler, tokens ports.Tokens, cfg PipelineConfig, logger zerolog.Logger) *Pipeline {
	if cfg.TokenKey == "" {
		cfg.TokenKey = "access-token"
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	return &Pipeline{
		handlers:    handlers,
		tokens:      tokens,
		logger:      logger,
		authEnabled: cfg.AuthEnabled,
		tokenKey:    cfg.TokenKey,
		maxBody:     cfg.MaxBodyBytes,
	}
}

// SetMetrics attaches a metrics sink. Must be called before serving.
func (p *Pipeline) SetMetrics(m ports.Metrics) { p.metrics = m }

// Handle runs the request through the endpoint's checks and, when all
// pass, invokes its handler. A panic inside the handler is caught here
// and converted to a generic 500 envelope; stack traces never leak.
func (p *Pipeline) Handle(ep endpoint.Endpoint, w http.ResponseWriter, r *http.Request) {
	c := &Context{Request: r, w: w}

	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error().
				Str("path", ep.Path).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")
			p.observe(stagePanic)
			c.Fail(http.StatusInternalServerError, msgInternal)
		}
	}()

	// 1. Method class.
	if !ep.Allows(r.Method) {
		p.reject(c, stageMethod, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	// 2. Content type, only for requests that plausibly carry a body.
	if ep.ContentType != "" && r.Method != http.MethodGet && r.Header.Get("Content-Length") != "" {
		if !strings.Contains(r.Header.Get("Content-Type"), ep.ContentType) {
			p.reject(c, stageContentType, http.StatusBadRequest, msgContentType)
			return
		}
	}

	// 3. Declared headers: present, coerced, validated.
	if !p.checkHeaders(c, ep, r) {
		return
	}

	// Decode the body once; the token step may read it too.
	if r.Method != http.MethodGet && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, p.maxBody))
		if err != nil {
			p.reject(c, stagePayload, http.StatusBadRequest, msgParamFormat)
			return
		}
		if len(body) > 0 {
			// A body that fails to decode leaves Payload nil; required
			// formats then reject it at step 5.
			_ = json.Unmarshal(body, &c.Payload)
		}
	}

	// 4. Token.
	if p.authEnabled && ep.Auth {
		if !p.checkToken(c, ep, r) {
			return
		}
	}

	// 5. Payload validation: query for GET, body otherwise.
	if !p.checkPayload(c, ep, r) {
		return
	}

	// 6. Handler.
	h, ok := p.handlers[ep.Handler]
	if !ok || h == nil {
		p.reject(c, stageConfig, http.StatusInternalServerError, msgNoHandler)
		return
	}
	h(c)
}

func (p *Pipeline) checkHeaders(c *Context, ep endpoint.Endpoint, r *http.Request) bool {
	for name, d := range ep.Headers {
		raw := r.Header.Get(name) // canonicalized, case-insensitive
		if raw == "" {
			p.reject(c, stageHeader, http.StatusBadRequest, msgHeaderFormat)
			return false
		}
		ok, err := validate.Validate(coerceHeader(raw, d), d, ep.Strict)
		if err != nil {
			p.logger.Error().Err(err).Str("path", ep.Path).Str("header", name).Msg("header descriptor misconfigured")
			p.reject(c, stageConfig, http.StatusInternalServerError, msgMisconfigured)
			return false
		}
		if !ok {
			p.reject(c, stageHeader, http.StatusBadRequest, msgHeaderFormat)
			return false
		}
	}
	return true
}

// coerceHeader applies the minimal coercion headers need: header values
// arrive as strings, so number and boolean descriptors get a parse first.
// Anything else passes the raw string through.
func coerceHeader(raw string, d format.Descriptor) any {
	switch d.Kind {
	case format.KindNumber, format.KindOptionalNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
		return raw
	case format.KindBoolean:
		return raw == "true" || raw == "1" || raw == "yes"
	}
	return raw
}

func (p *Pipeline) checkToken(c *Context, ep endpoint.Endpoint, r *http.Request) bool {
	if p.tokens == nil {
		p.reject(c, stageConfig, http.StatusInternalServerError, msgMisconfigured)
		return false
	}

	token := r.Header.Get(p.tokenKey)
	if token == "" {
		token = r.URL.Query().Get(p.tokenKey)
	}
	if token == "" {
		if s, ok := c.Field(p.tokenKey).(string); ok {
			token = s
		}
	}

	payload, err := p.tokens.Validate(token, ep.Permissions)
	if err != nil {
		p.reject(c, stageToken, http.StatusUnauthorized, err.Error())
		return false
	}
	c.Token = payload
	return true
}

func (p *Pipeline) checkPayload(c *Context, ep endpoint.Endpoint, r *http.Request) bool {
	if ep.UsesQuery(r.Method) {
		// Compile-time enforcement can be bypassed by dynamic callers,
		// so the flat-string restriction is re-checked per request. A
		// violation is a server-side authoring fault, not client input.
		if ep.Request != nil && !ep.Request.QueryCompatible() {
			p.reject(c, stageConfig, http.StatusInternalServerError, msgMisconfigured)
			return false
		}
		q, ok := query.Normalize(r.URL.Query())
		if !ok {
			p.reject(c, stagePayload, http.StatusBadRequest, msgParamFormat)
			return false
		}
		if ep.Request != nil {
			valid, err := validate.Validate(query.AsValues(q), *ep.Request, ep.Strict)
			if err != nil {
				p.reject(c, stageConfig, http.StatusInternalServerError, msgMisconfigured)
				return false
			}
			if !valid {
				p.reject(c, stagePayload, http.StatusBadRequest, msgParamFormat)
				return false
			}
		}
		c.Query = q
		return true
	}

	if ep.Request == nil {
		return true
	}
	valid, err := validate.Validate(c.Payload, *ep.Request, ep.Strict)
	if err != nil {
		p.logger.Error().Err(err).Str("path", ep.Path).Msg("request descriptor misconfigured")
		p.reject(c, stageConfig, http.StatusInternalServerError, msgMisconfigured)
		return false
	}
	if !valid {
		p.reject(c, stagePayload, http.StatusBadRequest, msgParamFormat)
		return false
	}
	return true
}

func (p *Pipeline) reject(c *Context, stage string, code int, msg string) {
	p.observe(stage)
	c.Fail(code, msg)
}

func (p *Pipeline) observe(stage string) {
	if p.metrics != nil {
		p.metrics.ValidationFailed(stage)
	}
}
