package domain

// StoredMessage is a message row as the durable backing store holds it:
// ciphertext only, timeline metadata in the clear. SentAt is Unix
// milliseconds so ordering is driver-independent.
type StoredMessage struct {
	MessageID        string `db:"message_id" json:"message_id"`
	ConversationID   string `db:"conversation_id" json:"conversation_id"`
	Sender           string `db:"sender" json:"sender"`
	Recipient        string `db:"recipient" json:"recipient,omitempty"`
	GroupID          string `db:"group_id" json:"group_id,omitempty"`
	EncryptedContent string `db:"encrypted_content" json:"encrypted_content"`
	MessageType      string `db:"message_type" json:"message_type"`
	SentAt           int64  `db:"sent_at" json:"sent_at"`
}

// GroupRecord is a group row in the backing store. Password groups persist
// only the salt and verifier, never the symmetric key.
type GroupRecord struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	Emoji             string `db:"emoji"`
	CreatedBy         string `db:"created_by"`
	PasswordProtected bool   `db:"password_protected"`
	PasswordSalt      []byte `db:"password_salt"`
	PasswordHash      []byte `db:"password_hash"`
	CreatedAt         int64  `db:"created_at"`
}

// DirectoryEntry is one identity's record in the public key directory,
// optionally carrying an encrypted private-key backup for cross-device
// recovery.
type DirectoryEntry struct {
	Identity            string `db:"identity"`
	PublicKey           []byte `db:"public_key"`
	EncryptedPrivateKey []byte `db:"encrypted_private_key"`
	UpdatedAt           int64  `db:"updated_at"`
}
