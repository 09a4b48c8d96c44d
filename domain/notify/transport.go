package notify

import "context"

// Transport delivers an alert to one destination.
type Transport interface {
	// Name identifies the transport in logs and results.
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Transports is the set of configured transports. Empty means notifications
// are a no-op.
type Transports []Transport
