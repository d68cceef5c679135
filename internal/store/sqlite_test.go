package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"courier/internal/domain"
	"courier/internal/store"
)

func openSQL(t *testing.T) *store.SQL {
	t.Helper()
	s, err := store.OpenSQL(filepath.Join(t.TempDir(), "courier.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertMessage_DuplicateIsNoOp(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	m := domain.StoredMessage{
		MessageID:        "m1",
		ConversationID:   "conv",
		Sender:           "0xalice",
		Recipient:        "0xbob",
		EncryptedContent: "blob",
		MessageType:      domain.MessageTypeChat,
		SentAt:           100,
	}
	if err := s.InsertMessage(ctx, m); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	m.EncryptedContent = "different blob"
	if err := s.InsertMessage(ctx, m); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	rows, err := s.MessagesByConversation(ctx, "conv")
	if err != nil {
		t.Fatalf("MessagesByConversation: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].EncryptedContent != "blob" {
		t.Fatal("duplicate insert replaced the original row")
	}
}

func TestMessagesByConversation_OrderedBySentAt(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	for _, m := range []domain.StoredMessage{
		{MessageID: "b", ConversationID: "conv", Sender: "0xa", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 300},
		{MessageID: "a", ConversationID: "conv", Sender: "0xa", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 100},
		{MessageID: "c", ConversationID: "conv", Sender: "0xa", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 200},
	} {
		if err := s.InsertMessage(ctx, m); err != nil {
			t.Fatalf("insert %s: %v", m.MessageID, err)
		}
	}
	rows, err := s.MessagesByConversation(ctx, "conv")
	if err != nil {
		t.Fatalf("MessagesByConversation: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.MessageID)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "c" || got[2] != "b" {
		t.Fatalf("order %v, want [a c b]", got)
	}
}

func TestInboundMessages(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	insert := func(m domain.StoredMessage) {
		t.Helper()
		if err := s.InsertMessage(ctx, m); err != nil {
			t.Fatalf("insert %s: %v", m.MessageID, err)
		}
	}
	// DM to alice, DM from alice, group traffic, a foreign group.
	insert(domain.StoredMessage{MessageID: "dm-in", ConversationID: "dm-1", Sender: "0xbob", Recipient: "0xalice", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 100})
	insert(domain.StoredMessage{MessageID: "dm-out", ConversationID: "dm-1", Sender: "0xalice", Recipient: "0xbob", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 200})

	if err := s.InsertGroup(ctx, domain.GroupRecord{ID: "g1", Name: "ours", CreatedBy: "0xbob", CreatedAt: 1}, []domain.Address{"0xalice", "0xbob"}); err != nil {
		t.Fatalf("InsertGroup: %v", err)
	}
	if err := s.InsertGroup(ctx, domain.GroupRecord{ID: "g2", Name: "theirs", CreatedBy: "0xcarol", CreatedAt: 1}, []domain.Address{"0xcarol"}); err != nil {
		t.Fatalf("InsertGroup: %v", err)
	}
	insert(domain.StoredMessage{MessageID: "grp-in", ConversationID: "group-g1", Sender: "0xbob", GroupID: "g1", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 300})
	insert(domain.StoredMessage{MessageID: "grp-own", ConversationID: "group-g1", Sender: "0xalice", GroupID: "g1", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 400})
	insert(domain.StoredMessage{MessageID: "grp-foreign", ConversationID: "group-g2", Sender: "0xcarol", GroupID: "g2", EncryptedContent: "x", MessageType: domain.MessageTypeChat, SentAt: 500})

	rows, err := s.InboundMessages(ctx, "0xAlice")
	if err != nil {
		t.Fatalf("InboundMessages: %v", err)
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.MessageID)
	}
	if len(got) != 2 || got[0] != "dm-in" || got[1] != "grp-in" {
		t.Fatalf("inbound %v, want [dm-in grp-in]", got)
	}
}

func TestGroups_RoundTripAndMembership(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	g := domain.GroupRecord{
		ID:                "g1",
		Name:              "lobby",
		Emoji:             "🚀",
		CreatedBy:         "0xalice",
		PasswordProtected: true,
		PasswordSalt:      []byte{1, 2, 3},
		PasswordHash:      []byte{4, 5, 6},
		CreatedAt:         42,
	}
	if err := s.InsertGroup(ctx, g, []domain.Address{"0xAlice", "0xBob"}); err != nil {
		t.Fatalf("InsertGroup: %v", err)
	}

	got, found, err := s.Group(ctx, "g1")
	if err != nil || !found {
		t.Fatalf("Group: found=%v err=%v", found, err)
	}
	if got.Name != "lobby" || !got.PasswordProtected || string(got.PasswordSalt) != string(g.PasswordSalt) {
		t.Fatalf("group mismatch: %+v", got)
	}

	members, err := s.GroupMembers(ctx, "g1")
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if len(members) != 2 || members[0] != "0xalice" || members[1] != "0xbob" {
		t.Fatalf("members %v", members)
	}

	if err := s.AddGroupMembers(ctx, "g1", []domain.Address{"0xCarol"}); err != nil {
		t.Fatalf("AddGroupMembers: %v", err)
	}
	if err := s.RemoveGroupMember(ctx, "g1", "0xBOB"); err != nil {
		t.Fatalf("RemoveGroupMember: %v", err)
	}
	members, err = s.GroupMembers(ctx, "g1")
	if err != nil {
		t.Fatalf("GroupMembers: %v", err)
	}
	if len(members) != 2 || members[0] != "0xalice" || members[1] != "0xcarol" {
		t.Fatalf("members after add/remove %v", members)
	}

	_, found, err = s.Group(ctx, "missing")
	if err != nil || found {
		t.Fatalf("missing group: found=%v err=%v", found, err)
	}
}

func TestDirectory_UpsertAndBackup(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	if _, found, err := s.PublicKey(ctx, "0xalice"); err != nil || found {
		t.Fatalf("empty directory: found=%v err=%v", found, err)
	}

	if err := s.UpsertPublicKey(ctx, "0xAlice", []byte("pub-v1")); err != nil {
		t.Fatalf("UpsertPublicKey: %v", err)
	}
	// Case-insensitive family: lookup under any casing finds the entry.
	key, found, err := s.PublicKey(ctx, "0xALICE")
	if err != nil || !found {
		t.Fatalf("PublicKey: found=%v err=%v", found, err)
	}
	if string(key) != "pub-v1" {
		t.Fatalf("key %q", key)
	}

	if err := s.UpsertPublicKey(ctx, "0xalice", []byte("pub-v2")); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	key, _, _ = s.PublicKey(ctx, "0xalice")
	if string(key) != "pub-v2" {
		t.Fatal("upsert did not replace the key")
	}

	if err := s.SaveKeyBackup(ctx, "0xalice", []byte("pub-v2"), []byte("enc-priv")); err != nil {
		t.Fatalf("SaveKeyBackup: %v", err)
	}
	entry, found, err := s.KeyBackup(ctx, "0xalice")
	if err != nil || !found {
		t.Fatalf("KeyBackup: found=%v err=%v", found, err)
	}
	if string(entry.EncryptedPrivateKey) != "enc-priv" {
		t.Fatalf("backup %q", entry.EncryptedPrivateKey)
	}
}

func TestReadReceipts(t *testing.T) {
	s := openSQL(t)
	ctx := context.Background()

	if err := s.RecordRead(ctx, "0xBob", "conv", []string{"m1", "m2"}); err != nil {
		t.Fatalf("RecordRead: %v", err)
	}
	// Re-recording is idempotent.
	if err := s.RecordRead(ctx, "0xbob", "conv", []string{"m2", "m3"}); err != nil {
		t.Fatalf("RecordRead again: %v", err)
	}

	ids, err := s.ReadMessageIDs(ctx, "0xbob")
	if err != nil {
		t.Fatalf("ReadMessageIDs: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d receipts, want 3", len(ids))
	}
	for _, want := range []string{"m1", "m2", "m3"} {
		if _, ok := ids[want]; !ok {
			t.Fatalf("missing receipt for %s", want)
		}
	}
}
