package unread_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"courier/internal/domain"
	"courier/internal/services/unread"
	"courier/internal/store"
)

func newTracker(t *testing.T) (*unread.Tracker, *store.SQL) {
	t.Helper()
	sql, err := store.OpenSQL(filepath.Join(t.TempDir(), "courier.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { _ = sql.Close() })
	return unread.New("0xAlice", sql, sql, zerolog.Nop()), sql
}

func incoming(conv, id string) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: conv,
		Sender:         "0xbob",
		Content:        "hi",
		Type:           domain.MessageTypeChat,
		SentAt:         time.Now(),
	}
}

func TestHandleIncoming_SuppressedForActiveConversation(t *testing.T) {
	tr, _ := newTracker(t)

	tr.SetActive("conv-a")
	tr.HandleIncoming(incoming("conv-a", "m1"))
	tr.HandleIncoming(incoming("conv-b", "m2"))

	counts := tr.Counts()
	if counts["conv-a"] != 0 {
		t.Fatalf("active conversation counted: %d", counts["conv-a"])
	}
	if counts["conv-b"] != 1 {
		t.Fatalf("inactive conversation count %d, want 1", counts["conv-b"])
	}
}

func TestHandleIncoming_OwnMessagesNotCounted(t *testing.T) {
	tr, _ := newTracker(t)

	m := incoming("conv-a", "m1")
	m.Sender = "0xALICE"
	tr.HandleIncoming(m)

	if tr.Counts()["conv-a"] != 0 {
		t.Fatal("own message incremented the counter")
	}
}

func TestSetActive_ClearsCounter(t *testing.T) {
	tr, _ := newTracker(t)

	tr.HandleIncoming(incoming("conv-a", "m1"))
	tr.HandleIncoming(incoming("conv-a", "m2"))
	if tr.Counts()["conv-a"] != 2 {
		t.Fatalf("count %d, want 2", tr.Counts()["conv-a"])
	}

	tr.SetActive("conv-a")
	if tr.Counts()["conv-a"] != 0 {
		t.Fatal("activating the conversation did not clear its counter")
	}

	// After deactivating, new arrivals count again.
	tr.SetActive("")
	tr.HandleIncoming(incoming("conv-a", "m3"))
	if tr.Counts()["conv-a"] != 1 {
		t.Fatalf("count %d, want 1", tr.Counts()["conv-a"])
	}
}

func TestRebuild_FromStoreAndReceipts(t *testing.T) {
	tr, sql := newTracker(t)
	ctx := context.Background()

	insert := func(conv, id string, at int64) {
		t.Helper()
		err := sql.InsertMessage(ctx, domain.StoredMessage{
			MessageID:        id,
			ConversationID:   conv,
			Sender:           "0xbob",
			Recipient:        "0xalice",
			EncryptedContent: "blob",
			MessageType:      domain.MessageTypeChat,
			SentAt:           at,
		})
		if err != nil {
			t.Fatalf("InsertMessage: %v", err)
		}
	}
	insert("conv-a", "m1", 100)
	insert("conv-a", "m2", 200)
	insert("conv-b", "m3", 300)
	if err := sql.RecordRead(ctx, "0xalice", "conv-a", []string{"m1"}); err != nil {
		t.Fatalf("RecordRead: %v", err)
	}

	if err := tr.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	counts := tr.Counts()
	if counts["conv-a"] != 1 {
		t.Fatalf("conv-a count %d, want 1", counts["conv-a"])
	}
	if counts["conv-b"] != 1 {
		t.Fatalf("conv-b count %d, want 1", counts["conv-b"])
	}
}

func TestRebuild_CountsGroupMessages(t *testing.T) {
	tr, sql := newTracker(t)
	ctx := context.Background()

	g := domain.GroupRecord{ID: "g1", Name: "lobby", CreatedBy: "0xbob", CreatedAt: 1}
	if err := sql.InsertGroup(ctx, g, []domain.Address{"0xalice", "0xbob"}); err != nil {
		t.Fatalf("InsertGroup: %v", err)
	}
	insert := func(id, sender string, at int64) {
		t.Helper()
		err := sql.InsertMessage(ctx, domain.StoredMessage{
			MessageID:        id,
			ConversationID:   "group-g1",
			Sender:           sender,
			GroupID:          "g1",
			EncryptedContent: "blob",
			MessageType:      domain.MessageTypeChat,
			SentAt:           at,
		})
		if err != nil {
			t.Fatalf("InsertMessage: %v", err)
		}
	}
	insert("m1", "0xbob", 100)
	insert("m2", "0xbob", 200)
	// Own group sends never count.
	insert("m3", "0xalice", 300)

	// The live feed and a cold-start rebuild from the same store must agree.
	tr.HandleIncoming(incoming("group-g1", "m1"))
	tr.HandleIncoming(incoming("group-g1", "m2"))
	live := tr.Counts()["group-g1"]

	if err := tr.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	rebuilt := tr.Counts()["group-g1"]
	if live != 2 || rebuilt != 2 {
		t.Fatalf("live feed counted %d, rebuild counted %d, want 2 and 2", live, rebuilt)
	}

	// Reading the group sticks across the next rebuild.
	if err := tr.MarkAsRead(ctx, "group-g1"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if err := tr.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild after read: %v", err)
	}
	if n := tr.Counts()["group-g1"]; n != 0 {
		t.Fatalf("count %d after read and rebuild, want 0", n)
	}
}

func TestMarkAsRead_SurvivesRebuild(t *testing.T) {
	tr, sql := newTracker(t)
	ctx := context.Background()

	err := sql.InsertMessage(ctx, domain.StoredMessage{
		MessageID:        "m1",
		ConversationID:   "conv-a",
		Sender:           "0xbob",
		Recipient:        "0xalice",
		EncryptedContent: "blob",
		MessageType:      domain.MessageTypeChat,
		SentAt:           100,
	})
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}

	if err := tr.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if tr.Counts()["conv-a"] != 1 {
		t.Fatalf("count %d, want 1", tr.Counts()["conv-a"])
	}

	if err := tr.MarkAsRead(ctx, "conv-a"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if tr.Counts()["conv-a"] != 0 {
		t.Fatal("counter survived MarkAsRead")
	}

	// A rebuild simulating a reconnect keeps the conversation read.
	if err := tr.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if tr.Counts()["conv-a"] != 0 {
		t.Fatal("read state lost across rebuild")
	}
}
