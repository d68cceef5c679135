package transport

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/crypto"
	"courier/internal/domain"
)

const (
	// defaultHistoryTimeout bounds one history query. Running out of time is
	// not an error; it just means fewer historical messages come back.
	defaultHistoryTimeout = 10 * time.Second

	// historyLimit caps how many payloads a single history query asks for.
	historyLimit = 200
)

// Adapter moves message frames over a PubSub backend. It seals every encoded
// frame with the conversation key before publishing and keeps an in-memory
// set of processed message IDs so a frame arriving through multiple
// subscriptions is delivered once.
type Adapter struct {
	ps  PubSub
	log zerolog.Logger

	historyTimeout time.Duration

	mu   sync.Mutex
	seen map[string]struct{}
	subs []Subscription
}

// NewAdapter wraps ps.
func NewAdapter(ps PubSub, log zerolog.Logger) *Adapter {
	return &Adapter{
		ps:             ps,
		log:            log.With().Str("component", "transport").Logger(),
		historyTimeout: defaultHistoryTimeout,
		seen:           make(map[string]struct{}),
	}
}

// Publish seals frame with key and sends it on topic. The frame's message ID
// is marked processed so our own subscription does not echo it back.
func (a *Adapter) Publish(ctx context.Context, topic string, f Frame, key []byte) error {
	blob, err := crypto.Encrypt(EncodeFrame(f), key)
	if err != nil {
		return err
	}
	a.markSeen(f.MessageID)
	return a.ps.Publish(ctx, topic, []byte(blob))
}

// Subscribe opens a live subscription on topic. Every frame that decrypts
// under key, decodes, and has not been processed before is handed to onMsg as
// a Message. Payloads that fail to decrypt or decode are dropped with a debug
// log; a foreign or corrupt frame must not kill the subscription.
func (a *Adapter) Subscribe(ctx context.Context, topic string, key []byte, onMsg func(domain.Message)) (Subscription, error) {
	sub, err := a.ps.Subscribe(ctx, topic, func(payload []byte) {
		m, ok := a.open(topic, payload, key)
		if !ok {
			return
		}
		if !a.markSeen(m.ID) {
			return
		}
		onMsg(m)
	})
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.subs = append(a.subs, sub)
	a.mu.Unlock()
	return sub, nil
}

// QueryHistory fetches the topic's recent frames, bounded by the history
// timeout. It never fails: timeouts and backend errors degrade to returning
// whatever was decoded so far, usually nothing.
func (a *Adapter) QueryHistory(ctx context.Context, topic string, key []byte) []domain.Message {
	ctx, cancel := context.WithTimeout(ctx, a.historyTimeout)
	defer cancel()

	payloads, err := a.ps.History(ctx, topic, historyLimit)
	if err != nil {
		a.log.Debug().Err(err).Str("topic", topic).Msg("history query degraded")
		return nil
	}
	out := make([]domain.Message, 0, len(payloads))
	for _, p := range payloads {
		if m, ok := a.open(topic, p, key); ok {
			out = append(out, m)
		}
	}
	return out
}

// Close closes every subscription opened through this adapter and the
// underlying session.
func (a *Adapter) Close() error {
	a.mu.Lock()
	subs := a.subs
	a.subs = nil
	a.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return a.ps.Close()
}

// open decrypts and decodes one payload into a Message.
func (a *Adapter) open(topic string, payload, key []byte) (domain.Message, bool) {
	raw, ok := crypto.Decrypt(string(payload), key)
	if !ok {
		a.log.Debug().Str("topic", topic).Msg("dropping frame that does not decrypt under the conversation key")
		return domain.Message{}, false
	}
	f, err := DecodeFrame(raw)
	if err != nil {
		a.log.Debug().Err(err).Str("topic", topic).Msg("dropping malformed frame")
		return domain.Message{}, false
	}
	return domain.Message{
		ID:             f.MessageID,
		ConversationID: topic,
		Sender:         domain.Address(f.Sender).Normalize(),
		Content:        f.Content,
		Type:           f.MessageType,
		SentAt:         time.UnixMilli(f.Timestamp).UTC(),
	}, true
}

// markSeen records id as processed, reporting true the first time.
func (a *Adapter) markSeen(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, dup := a.seen[id]; dup {
		return false
	}
	a.seen[id] = struct{}{}
	return true
}
