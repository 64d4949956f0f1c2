// Package mail delivers portal notifications. Delivery is best effort
// everywhere it is used: a failed send is logged by the caller and never
// fails the request that triggered it.
package mail

import "context"

// Message is one outbound email. Body is HTML.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Noop drops every message. Used when no provider is configured so the
// rest of the portal does not need a nil check.
type Noop struct{}

func (Noop) Send(ctx context.Context, msg Message) error { return nil }
