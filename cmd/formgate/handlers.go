package main

import (
	"time"

	"github.com/formgate/formgate/app"
	"github.com/formgate/formgate/bootstrap"
)

// builtinHandlers are the handlers endpoint configs can bind to by name.
// A deployment embedding FormGate as a library registers its own; the
// binary ships these so a config file is runnable out of the box.
func builtinHandlers(deps bootstrap.Deps) map[string]app.Handler {
	return map[string]app.Handler{
		// echo replies with the validated payload it received.
		"echo": func(c *app.Context) {
			if c.Query != nil {
				c.Reply(c.Query)
				return
			}
			c.Reply(c.Payload)
		},

		// ping replies with a timestamp.
		"ping": func(c *app.Context) {
			c.Reply(map[string]any{"pong": time.Now().UTC().Format(time.RFC3339)})
		},

		// whoami replies with the decoded token payload.
		"whoami": func(c *app.Context) {
			c.Reply(c.Token)
		},

		// login issues a token for the validated credentials payload.
		// Real deployments replace this with their own credential check.
		"login": func(c *app.Context) {
			name, _ := c.Field("name").(string)
			token, err := deps.Tokens.Create(
				map[string]any{"name": name},
				deps.Config.Auth.TTL,
				nil,
			)
			if err != nil {
				deps.Logger.Error().Err(err).Msg("token create failed")
				c.Fail(500, "internal server error")
				return
			}
			c.Reply(map[string]any{"token": token})
		},
	}
}
