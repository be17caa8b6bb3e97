package protocol

import "github.com/rs/zerolog"

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger of the Context.
// The protocol, party and round fields are added to it.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Context) {
		c.log = l
	}
}

// WithMetrics reports the activity of the Context to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Context) {
		c.metrics = m
	}
}
