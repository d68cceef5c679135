package domain

import "context"

// MessageStore persists encrypted messages in the durable backing store.
// Inserting a duplicate message ID is a no-op, not an error; selection is
// ordered by sent_at ascending.
type MessageStore interface {
	InsertMessage(ctx context.Context, m StoredMessage) error
	MessagesByConversation(ctx context.Context, conversationID string) ([]StoredMessage, error)
	InboundMessages(ctx context.Context, recipient Address) ([]StoredMessage, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	InsertGroup(ctx context.Context, g GroupRecord, members []Address) error
	Group(ctx context.Context, id string) (GroupRecord, bool, error)
	GroupMembers(ctx context.Context, id string) ([]Address, error)
	AddGroupMembers(ctx context.Context, id string, members []Address) error
	RemoveGroupMember(ctx context.Context, id string, member Address) error
}

// KeyDirectory is the shared public key directory plus the optional encrypted
// keypair backup slot.
type KeyDirectory interface {
	UpsertPublicKey(ctx context.Context, identity Address, publicKey []byte) error
	PublicKey(ctx context.Context, identity Address) ([]byte, bool, error)
	SaveKeyBackup(ctx context.Context, identity Address, publicKey, encryptedPrivate []byte) error
	KeyBackup(ctx context.Context, identity Address) (DirectoryEntry, bool, error)
}

// ReceiptStore records which messages the local identity has read.
type ReceiptStore interface {
	RecordRead(ctx context.Context, reader Address, conversationID string, messageIDs []string) error
	ReadMessageIDs(ctx context.Context, reader Address) (map[string]struct{}, error)
}

// LocalKV is simple local persistent storage: get/set by string key with
// JSON-serializable values. It holds the keypair, per-conversation message
// caches, and unlocked group keys.
type LocalKV interface {
	Get(key string, out any) (bool, error)
	Set(key string, v any) error
	Delete(key string) error
}
