package transport

import "context"

// PubSub is the narrow capability the core needs from a pub/sub network.
// Implementations must not interpret payloads; they carry opaque bytes.
type PubSub interface {
	// Publish sends payload on topic and appends it to the topic's
	// ephemeral history.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe delivers every payload published to topic until the returned
	// subscription is closed.
	Subscribe(ctx context.Context, topic string, fn func(payload []byte)) (Subscription, error)

	// History returns up to limit recent payloads for topic, oldest first.
	// The history is best-effort: backends may expire or cap it.
	History(ctx context.Context, topic string, limit int) ([][]byte, error)

	// Close releases the network session.
	Close() error
}

// Subscription is a handle on one live topic subscription.
type Subscription interface {
	Close() error
}
