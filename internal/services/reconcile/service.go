package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"courier/internal/crypto"
	"courier/internal/domain"
	"courier/internal/transport"
)

const cachePrefix = "messages:"

// Service is the message reconciler for one client. Safe for concurrent use:
// live subscription deliveries and caller reads merge into the same cache.
type Service struct {
	msgs    domain.MessageStore
	kv      domain.LocalKV
	adapter *transport.Adapter // nil when the live transport is down
	log     zerolog.Logger

	// mu serializes the cache read-merge-write cycle. Without it two
	// concurrent merges both read the old slice and the last writer drops
	// the other's message.
	mu sync.Mutex
}

// New constructs the reconciler. adapter may be nil; the service then works
// from the backing store and cache alone.
func New(msgs domain.MessageStore, kv domain.LocalKV, adapter *transport.Adapter, log zerolog.Logger) *Service {
	return &Service{
		msgs:    msgs,
		kv:      kv,
		adapter: adapter,
		log:     log.With().Str("component", "reconcile").Logger(),
	}
}

// Messages returns the conversation's timeline, time-ascending and
// deduplicated by message ID.
//
// A warm cache skips the backing-store fetch unless forceRefresh is set;
// transport history is merged in whenever a live session exists. The merged
// result is persisted back to the cache. Cancelling ctx (for example on a
// conversation switch) abandons the in-flight fetch without corrupting the
// cache.
func (s *Service) Messages(ctx context.Context, conv domain.Conversation, forceRefresh bool) ([]domain.Message, error) {
	var incoming []domain.Message

	if len(s.loadCache(conv.ID)) == 0 || forceRefresh {
		rows, err := s.msgs.MessagesByConversation(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("backing store fetch: %w", err)
		}
		for _, r := range rows {
			incoming = append(incoming, s.decryptRow(conv, r))
		}
	}

	if s.adapter != nil {
		incoming = append(incoming, s.adapter.QueryHistory(ctx, conv.ID, conv.Keys.EncryptionKey)...)
	}

	return s.mergeAndStore(conv.ID, incoming), nil
}

// Send encrypts content and dispatches it: optimistic insert into the local
// cache, idempotent insert into the backing store, best-effort publish on the
// live transport.
//
// The returned message is valid even when err is non-nil: a backing-store
// failure (other than a duplicate, which is success) is surfaced but does not
// take back the local insert, and a publish failure is only logged since the
// durable path already carried the message.
func (s *Service) Send(ctx context.Context, conv domain.Conversation, content string) (domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Sender:         conv.Self.Normalize(),
		Content:        content,
		Type:           domain.MessageTypeChat,
		SentAt:         time.Now().UTC(),
		UsedLegacyKey:  !conv.Keys.IsSecure && !conv.IsGroup(),
	}

	blob, err := crypto.Encrypt([]byte(content), conv.Keys.EncryptionKey)
	if err != nil {
		return domain.Message{}, fmt.Errorf("encrypt message: %w", err)
	}

	// Visible to the next Messages call before any network round trip.
	s.RecordSent(conv, msg)

	storeErr := s.msgs.InsertMessage(ctx, domain.StoredMessage{
		MessageID:        msg.ID,
		ConversationID:   conv.ID,
		Sender:           msg.Sender.String(),
		Recipient:        conv.Peer.Normalize().String(),
		GroupID:          conv.GroupID,
		EncryptedContent: blob,
		MessageType:      msg.Type,
		SentAt:           msg.SentAt.UnixMilli(),
	})
	if storeErr != nil {
		s.log.Warn().Err(storeErr).Str("message", msg.ID).Msg("backing store insert failed; message kept locally")
	}

	if s.adapter != nil {
		frame := transport.Frame{
			Timestamp:   msg.SentAt.UnixMilli(),
			Sender:      msg.Sender.String(),
			Content:     content,
			MessageID:   msg.ID,
			MessageType: msg.Type,
		}
		if err := s.adapter.Publish(ctx, conv.ID, frame, conv.Keys.EncryptionKey); err != nil {
			s.log.Warn().Err(err).Str("message", msg.ID).Msg("live publish failed; peers will reconcile from the store")
		}
	}
	return msg, storeErr
}

// RecordSent folds one message into the conversation's local cache through
// the same dedup-by-ID merge as every other source. It also absorbs live
// frames delivered by a subscription, so it may run on the delivery
// goroutine concurrently with a Send on the caller's.
func (s *Service) RecordSent(conv domain.Conversation, msg domain.Message) {
	s.mergeAndStore(conv.ID, []domain.Message{msg})
}

// mergeAndStore folds incoming into the conversation's cached timeline and
// persists the result, all under the merge lock. The cache is re-read inside
// the critical section, so a concurrent merge can never be overwritten with
// a stale slice.
func (s *Service) mergeAndStore(conversationID string, incoming []domain.Message) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := s.loadCache(conversationID)
	merged := make(map[string]domain.Message, len(cached)+len(incoming))
	for _, m := range cached {
		merged[m.ID] = m
	}
	for _, m := range incoming {
		mergeIn(merged, m)
	}

	out := sortedTimeline(merged)
	s.storeCache(conversationID, out)
	return out
}

// decryptRow turns a stored row into a timeline message. A row that opens
// with no available key becomes a placeholder instead of an error.
func (s *Service) decryptRow(conv domain.Conversation, r domain.StoredMessage) domain.Message {
	msg := domain.Message{
		ID:             r.MessageID,
		ConversationID: conv.ID,
		Sender:         domain.Address(r.Sender).Normalize(),
		Type:           r.MessageType,
		SentAt:         time.UnixMilli(r.SentAt).UTC(),
	}

	if conv.IsGroup() {
		if pt, ok := crypto.Decrypt(r.EncryptedContent, conv.Keys.EncryptionKey); ok {
			msg.Content = string(pt)
			return msg
		}
	} else if pt, usedLegacy, ok := crypto.DecryptWithFallback(r.EncryptedContent, conv.Keys); ok {
		msg.Content = string(pt)
		msg.UsedLegacyKey = usedLegacy
		return msg
	}

	s.log.Debug().Str("message", r.MessageID).Msg("stored message does not decrypt under any available key")
	msg.Content = domain.UndecryptableContent
	return msg
}

// mergeIn adds m unless the timeline already knows its ID. Known messages
// are immutable; later sources only fill gaps.
func mergeIn(merged map[string]domain.Message, m domain.Message) {
	if m.ID == "" {
		return
	}
	if _, known := merged[m.ID]; known {
		return
	}
	merged[m.ID] = m
}

// sortedTimeline orders by timestamp ascending with the message ID as the
// tiebreak, so equal inputs always produce the identical list.
func sortedTimeline(merged map[string]domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(merged))
	for _, m := range merged {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].SentAt.Before(out[j].SentAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Service) loadCache(conversationID string) []domain.Message {
	var cached []domain.Message
	if _, err := s.kv.Get(cachePrefix+conversationID, &cached); err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("message cache unreadable; treating as cold start")
		return nil
	}
	return cached
}

func (s *Service) storeCache(conversationID string, msgs []domain.Message) {
	if err := s.kv.Set(cachePrefix+conversationID, msgs); err != nil {
		s.log.Warn().Err(err).Str("conversation", conversationID).Msg("message cache write failed")
	}
}
