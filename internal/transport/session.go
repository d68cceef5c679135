package transport

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	dialAttempts    = 3
	dialTimeout     = 5 * time.Second
	dialBackoffStep = time.Second
)

// ErrNetworkUnavailable means the live transport session could not be
// established within the bounded retry budget. It is recoverable: messages
// still flow through the durable backing store, and the caller may dial
// again later.
var ErrNetworkUnavailable = errors.New("network temporarily unavailable")

// Dial establishes a transport session with bounded retries: a fixed
// per-attempt timeout and linear backoff between attempts. After the final
// failure it returns ErrNetworkUnavailable instead of hanging.
func Dial(ctx context.Context, log zerolog.Logger, dial func(context.Context) (PubSub, error)) (PubSub, error) {
	var lastErr error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		ps, err := dial(attemptCtx)
		cancel()
		if err == nil {
			return ps, nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("transport dial failed")

		if attempt == dialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * dialBackoffStep):
		}
	}
	log.Warn().Err(lastErr).Msg("giving up on live transport; continuing with the backing store only")
	return nil, ErrNetworkUnavailable
}
