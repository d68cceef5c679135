package unread

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"courier/internal/domain"
)

// Tracker counts unread messages per conversation for one local identity.
// Safe for concurrent use: the live feed, the poller, and the UI all touch
// the same counters.
type Tracker struct {
	self     domain.Address
	msgs     domain.MessageStore
	receipts domain.ReceiptStore
	log      zerolog.Logger

	mu     sync.RWMutex
	counts map[string]int
	active string
}

func New(self domain.Address, msgs domain.MessageStore, receipts domain.ReceiptStore, log zerolog.Logger) *Tracker {
	return &Tracker{
		self:     self.Normalize(),
		msgs:     msgs,
		receipts: receipts,
		log:      log.With().Str("component", "unread").Logger(),
		counts:   make(map[string]int),
	}
}

// Rebuild recomputes every counter from the backing store: all inbound
// messages (DMs addressed to the local identity plus group traffic from
// other members) minus the ones with a read receipt. Called on cold start
// before the live feed takes over.
func (t *Tracker) Rebuild(ctx context.Context) error {
	rows, err := t.msgs.InboundMessages(ctx, t.self)
	if err != nil {
		return fmt.Errorf("load inbound messages: %w", err)
	}
	read, err := t.receipts.ReadMessageIDs(ctx, t.self)
	if err != nil {
		return fmt.Errorf("load read receipts: %w", err)
	}

	fresh := make(map[string]int)
	for _, r := range rows {
		if _, seen := read[r.MessageID]; seen {
			continue
		}
		fresh[r.ConversationID]++
	}

	t.mu.Lock()
	t.counts = fresh
	t.mu.Unlock()
	return nil
}

// HandleIncoming feeds one live message into the counters. Messages from the
// local identity and messages for the currently active conversation are not
// counted; the user is looking at the latter already.
func (t *Tracker) HandleIncoming(m domain.Message) {
	if m.Sender.Normalize() == t.self {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if m.ConversationID == t.active && t.active != "" {
		return
	}
	t.counts[m.ConversationID]++
}

// MarkAsRead zeroes the conversation's counter and records read receipts for
// everything stored in it. Receipt write failures keep the counter cleared;
// the next rebuild may resurrect the count, which is the safer direction.
func (t *Tracker) MarkAsRead(ctx context.Context, conversationID string) error {
	t.mu.Lock()
	delete(t.counts, conversationID)
	t.mu.Unlock()

	rows, err := t.msgs.MessagesByConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation for receipts: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if t.inbound(r) {
			ids = append(ids, r.MessageID)
		}
	}
	if err := t.receipts.RecordRead(ctx, t.self, conversationID, ids); err != nil {
		return fmt.Errorf("record read receipts: %w", err)
	}
	return nil
}

// SetActive marks the conversation the user currently has open; pass "" when
// none is. Activating a conversation clears its in-memory counter.
func (t *Tracker) SetActive(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = conversationID
	if conversationID != "" {
		delete(t.counts, conversationID)
	}
}

// inbound reports whether a stored row counts against the local identity:
// a DM addressed to them, or a group message from another member. Group rows
// carry no recipient.
func (t *Tracker) inbound(r domain.StoredMessage) bool {
	if domain.Address(r.Recipient).Normalize() == t.self {
		return true
	}
	return r.GroupID != "" && domain.Address(r.Sender).Normalize() != t.self
}

// Counts returns a copy of the current counters.
func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}
