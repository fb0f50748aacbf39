// Package app provides application services that orchestrate domain logic.
package app

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire contract for every response, success or failure.
type Envelope struct {
	Status int    `json:"status"` // 1 when data is present, else 0
	Code   int    `json:"code"`   // 200 on success; 4xx/5xx classification otherwise
	Msg    string `json:"msg"`
	Data   any    `json:"data"`
}

// Handler processes a validated request through the response helper.
type Handler func(*Context)

// Context carries the validated request into a handler along with the
// single response helper. Handlers read Query (GET) or Payload (body
// methods) knowing both already passed format validation.
type Context struct {
	Request *http.Request

	// Query holds the normalized query parameters for GET requests.
	Query map[string]string

	// Payload holds the decoded JSON body for body-carrying requests.
	Payload any

	// Token holds the decoded token payload when token validation ran.
	Token map[string]any

	w       http.ResponseWriter
	replied bool
}

// Field returns a named field of an object payload, or nil.
func (c *Context) Field(name string) any {
	obj, ok := c.Payload.(map[string]any)
	if !ok {
		return nil
	}
	return obj[name]
}

// Reply sends a success envelope: status 1 when data is non-nil, code 200.
func (c *Context) Reply(data any) {
	status := 0
	if data != nil {
		status = 1
	}
	c.Send(data, status, http.StatusOK, "")
}

// Fail sends a failure envelope with the given code and message.
func (c *Context) Fail(code int, msg string) {
	c.Send(nil, 0, code, msg)
}

// Send writes the envelope exactly as given. The envelope code doubles as
// the HTTP status when it is a valid one. Only the first send per request
// wins; later calls are dropped.
func (c *Context) Send(data any, status, code int, msg string) {
	if c.replied {
		return
	}
	c.replied = true
	writeEnvelope(c.w, Envelope{Status: status, Code: code, Msg: msg, Data: data})
}

// Replied reports whether a response has been written.
func (c *Context) Replied() bool { return c.replied }

func writeEnvelope(w http.ResponseWriter, e Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	httpStatus := e.Code
	if httpStatus < 100 || httpStatus > 599 {
		httpStatus = http.StatusOK
	}
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(e)
}
