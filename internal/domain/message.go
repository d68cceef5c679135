package domain

import "time"

// Message types carried in frames and the backing store.
const (
	MessageTypeChat            = "message"
	MessageTypeKeyDistribution = "key_distribution"
)

// UndecryptableContent is the placeholder rendered for a message whose
// ciphertext could not be opened with any available key. One foreign-keyed or
// corrupt record must never block the rest of the timeline.
const UndecryptableContent = "[unable to decrypt]"

// Message is a decrypted timeline entry. Immutable once created; the
// reconciler only ever merges messages by ID, it never mutates a known one.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         Address   `json:"sender"`
	Content        string    `json:"content"`
	Type           string    `json:"type"`
	SentAt         time.Time `json:"sent_at"`
	UsedLegacyKey  bool      `json:"used_legacy_key,omitempty"`
}

// Conversation carries everything the reconciler and transport need to work
// on one timeline: the topic, the participants, and the active keys.
//
// For a DM, Peer is set and Keys comes from the key derivation engine. For a
// group, GroupID is set and Keys holds the group symmetric key in
// EncryptionKey with no fallback material.
type Conversation struct {
	ID      string // transport topic, also the cache key
	Self    Address
	Peer    Address
	GroupID string
	Keys    DmKeyResult
}

func (c Conversation) IsGroup() bool { return c.GroupID != "" }
