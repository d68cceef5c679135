package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"courier/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	message_id        TEXT PRIMARY KEY,
	conversation_id   TEXT NOT NULL,
	sender            TEXT NOT NULL,
	recipient         TEXT NOT NULL DEFAULT '',
	group_id          TEXT NOT NULL DEFAULT '',
	encrypted_content TEXT NOT NULL,
	message_type      TEXT NOT NULL,
	sent_at           INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, sent_at);
CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages (recipient);

CREATE TABLE IF NOT EXISTS groups (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	emoji              TEXT NOT NULL DEFAULT '',
	created_by         TEXT NOT NULL,
	password_protected INTEGER NOT NULL DEFAULT 0,
	password_salt      BLOB,
	password_hash      BLOB,
	created_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id TEXT NOT NULL,
	member   TEXT NOT NULL,
	PRIMARY KEY (group_id, member)
);

CREATE TABLE IF NOT EXISTS public_keys (
	identity              TEXT PRIMARY KEY,
	public_key            BLOB NOT NULL,
	encrypted_private_key BLOB,
	updated_at            INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS read_receipts (
	reader          TEXT NOT NULL,
	message_id      TEXT NOT NULL,
	conversation_id TEXT NOT NULL,
	read_at         INTEGER NOT NULL,
	PRIMARY KEY (reader, message_id)
);
`

// SQL is the durable backing store on sqlite. It implements MessageStore,
// GroupStore, KeyDirectory and ReceiptStore.
type SQL struct {
	db *sqlx.DB
}

// OpenSQL opens (creating if needed) the sqlite database at path and applies
// the schema.
func OpenSQL(path string) (*SQL, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Close() error { return s.db.Close() }

// ---------- Messages ----------

// InsertMessage stores one encrypted message. Re-inserting an existing
// message ID is a no-op: the row is already there, which is success.
func (s *SQL) InsertMessage(ctx context.Context, m domain.StoredMessage) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO messages
			(message_id, conversation_id, sender, recipient, group_id, encrypted_content, message_type, sent_at)
		VALUES
			(:message_id, :conversation_id, :sender, :recipient, :group_id, :encrypted_content, :message_type, :sent_at)`, m)
	if err != nil {
		return fmt.Errorf("insert message %s: %w", m.MessageID, err)
	}
	return nil
}

// MessagesByConversation returns every stored message for one conversation,
// ordered by sent_at ascending.
func (s *SQL) MessagesByConversation(ctx context.Context, conversationID string) ([]domain.StoredMessage, error) {
	var rows []domain.StoredMessage
	err := s.db.SelectContext(ctx, &rows, `
		SELECT message_id, conversation_id, sender, recipient, group_id, encrypted_content, message_type, sent_at
		FROM messages WHERE conversation_id = ? ORDER BY sent_at ASC, message_id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("select conversation %s: %w", conversationID, err)
	}
	return rows, nil
}

// InboundMessages returns every stored message inbound to recipient: DM rows
// addressed to them plus rows in groups they belong to that someone else
// sent. Ordered by sent_at ascending. Used for the cold-start unread
// rebuild, which must see both shapes of traffic.
func (s *SQL) InboundMessages(ctx context.Context, recipient domain.Address) ([]domain.StoredMessage, error) {
	who := recipient.Normalize().String()
	var rows []domain.StoredMessage
	err := s.db.SelectContext(ctx, &rows, `
		SELECT message_id, conversation_id, sender, recipient, group_id, encrypted_content, message_type, sent_at
		FROM messages WHERE recipient = ?
		UNION
		SELECT m.message_id, m.conversation_id, m.sender, m.recipient, m.group_id, m.encrypted_content, m.message_type, m.sent_at
		FROM messages m
		JOIN group_members gm ON gm.group_id = m.group_id AND gm.member = ?
		WHERE m.sender != ?
		ORDER BY sent_at ASC, message_id ASC`, who, who, who)
	if err != nil {
		return nil, fmt.Errorf("select messages to %s: %w", recipient, err)
	}
	return rows, nil
}

// ---------- Groups ----------

func (s *SQL) InsertGroup(ctx context.Context, g domain.GroupRecord, members []domain.Address) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO groups (id, name, emoji, created_by, password_protected, password_salt, password_hash, created_at)
		VALUES (:id, :name, :emoji, :created_by, :password_protected, :password_salt, :password_hash, :created_at)`, g); err != nil {
		return fmt.Errorf("insert group %s: %w", g.ID, err)
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, member) VALUES (?, ?)`,
			g.ID, m.Normalize().String()); err != nil {
			return fmt.Errorf("insert member %s: %w", m, err)
		}
	}
	return tx.Commit()
}

func (s *SQL) Group(ctx context.Context, id string) (domain.GroupRecord, bool, error) {
	var g domain.GroupRecord
	err := s.db.GetContext(ctx, &g, `
		SELECT id, name, emoji, created_by, password_protected, password_salt, password_hash, created_at
		FROM groups WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GroupRecord{}, false, nil
	}
	if err != nil {
		return domain.GroupRecord{}, false, fmt.Errorf("select group %s: %w", id, err)
	}
	return g, true, nil
}

func (s *SQL) GroupMembers(ctx context.Context, id string) ([]domain.Address, error) {
	var raw []string
	if err := s.db.SelectContext(ctx, &raw,
		`SELECT member FROM group_members WHERE group_id = ? ORDER BY member`, id); err != nil {
		return nil, fmt.Errorf("select members of %s: %w", id, err)
	}
	out := make([]domain.Address, 0, len(raw))
	for _, m := range raw {
		out = append(out, domain.Address(m))
	}
	return out, nil
}

func (s *SQL) AddGroupMembers(ctx context.Context, id string, members []domain.Address) error {
	for _, m := range members {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, member) VALUES (?, ?)`,
			id, m.Normalize().String()); err != nil {
			return fmt.Errorf("add member %s to %s: %w", m, id, err)
		}
	}
	return nil
}

func (s *SQL) RemoveGroupMember(ctx context.Context, id string, member domain.Address) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND member = ?`,
		id, member.Normalize().String()); err != nil {
		return fmt.Errorf("remove member %s from %s: %w", member, id, err)
	}
	return nil
}

// ---------- Public key directory ----------

func (s *SQL) UpsertPublicKey(ctx context.Context, identity domain.Address, publicKey []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_keys (identity, public_key, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET public_key = excluded.public_key, updated_at = excluded.updated_at`,
		identity.Normalize().String(), publicKey, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert public key for %s: %w", identity, err)
	}
	return nil
}

func (s *SQL) PublicKey(ctx context.Context, identity domain.Address) ([]byte, bool, error) {
	var key []byte
	err := s.db.GetContext(ctx, &key,
		`SELECT public_key FROM public_keys WHERE identity = ?`, identity.Normalize().String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select public key for %s: %w", identity, err)
	}
	return key, true, nil
}

func (s *SQL) SaveKeyBackup(ctx context.Context, identity domain.Address, publicKey, encryptedPrivate []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_keys (identity, public_key, encrypted_private_key, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			public_key = excluded.public_key,
			encrypted_private_key = excluded.encrypted_private_key,
			updated_at = excluded.updated_at`,
		identity.Normalize().String(), publicKey, encryptedPrivate, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save key backup for %s: %w", identity, err)
	}
	return nil
}

func (s *SQL) KeyBackup(ctx context.Context, identity domain.Address) (domain.DirectoryEntry, bool, error) {
	var e domain.DirectoryEntry
	err := s.db.GetContext(ctx, &e, `
		SELECT identity, public_key, encrypted_private_key, updated_at
		FROM public_keys WHERE identity = ?`, identity.Normalize().String())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DirectoryEntry{}, false, nil
	}
	if err != nil {
		return domain.DirectoryEntry{}, false, fmt.Errorf("select key backup for %s: %w", identity, err)
	}
	return e, true, nil
}

// ---------- Read receipts ----------

func (s *SQL) RecordRead(ctx context.Context, reader domain.Address, conversationID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	for _, id := range messageIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO read_receipts (reader, message_id, conversation_id, read_at)
			VALUES (?, ?, ?, ?)`, reader.Normalize().String(), id, conversationID, now); err != nil {
			return fmt.Errorf("record read %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQL) ReadMessageIDs(ctx context.Context, reader domain.Address) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT message_id FROM read_receipts WHERE reader = ?`, reader.Normalize().String()); err != nil {
		return nil, fmt.Errorf("select read receipts for %s: %w", reader, err)
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

var (
	_ domain.MessageStore = (*SQL)(nil)
	_ domain.GroupStore   = (*SQL)(nil)
	_ domain.KeyDirectory = (*SQL)(nil)
	_ domain.ReceiptStore = (*SQL)(nil)
)
