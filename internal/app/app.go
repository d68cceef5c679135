package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"courier/internal/domain"
	"courier/internal/services/group"
	"courier/internal/services/keys"
	"courier/internal/services/reconcile"
	"courier/internal/services/unread"
	"courier/internal/store"
	"courier/internal/transport"
	redistransport "courier/internal/transport/redis"
)

// Client is the assembled messaging core. Obtain one with Open and release
// it with Close.
type Client struct {
	Keys     *keys.Service
	Messages *reconcile.Service
	Groups   *group.Service
	Unread   *unread.Tracker

	// Transport is nil when the live network is unavailable; messaging then
	// degrades to the backing-store path.
	Transport *transport.Adapter

	self domain.Address
	sql  *store.SQL
}

// Open builds the dependency graph from cfg.
//
// A transport that cannot be dialed within the bounded retry budget is not
// fatal: the client comes up without a live session, sending and reading
// through the backing store, and reports Online() == false.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Self == "" {
		return nil, errors.New("config: Self address is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	log := cfg.Logger

	sql, err := store.OpenSQL(cfg.dbPath())
	if err != nil {
		return nil, err
	}
	kv := store.NewKV(cfg.DataDir)

	var adapter *transport.Adapter
	if cfg.RedisAddr != "" {
		ps, err := transport.Dial(ctx, log, func(ctx context.Context) (transport.PubSub, error) {
			return redistransport.Dial(ctx, cfg.RedisAddr)
		})
		switch {
		case err == nil:
			adapter = transport.NewAdapter(ps, log)
		case errors.Is(err, transport.ErrNetworkUnavailable):
			// Recoverable: continue with the durable path only.
		default:
			_ = sql.Close()
			return nil, err
		}
	}

	c := &Client{
		Keys:      keys.New(kv, sql, log),
		Messages:  reconcile.New(sql, kv, adapter, log),
		Groups:    group.New(sql, kv, log),
		Unread:    unread.New(cfg.Self, sql, sql, log),
		Transport: adapter,
		self:      cfg.Self.Normalize(),
		sql:       sql,
	}
	if err := c.Unread.Rebuild(ctx); err != nil {
		log.Warn().Err(err).Msg("unread rebuild failed; counters start empty")
	}
	return c, nil
}

// Online reports whether a live transport session is up.
func (c *Client) Online() bool { return c.Transport != nil }

// Self returns the normalized local address.
func (c *Client) Self() domain.Address { return c.self }

// DMConversation derives the conversation handle for a DM with peer: the
// deterministic topic plus the current key material. Key derivation never
// fails; at worst the result is legacy-keyed.
func (c *Client) DMConversation(ctx context.Context, peer domain.Address) domain.Conversation {
	return domain.Conversation{
		ID:   transport.TopicForDM(c.self, peer),
		Self: c.self,
		Peer: peer.Normalize(),
		Keys: c.Keys.DeriveDmKey(ctx, c.self, peer),
	}
}

// GroupConversation builds the conversation handle for an unlocked group.
func (c *Client) GroupConversation(groupID string) (domain.Conversation, error) {
	key, err := c.Groups.Key(groupID)
	if err != nil {
		return domain.Conversation{}, err
	}
	return domain.Conversation{
		ID:      transport.TopicForGroup(groupID),
		Self:    c.self,
		GroupID: groupID,
		Keys:    domain.DmKeyResult{EncryptionKey: key},
	}, nil
}

// SubscribeConversation opens a live subscription for conv: every new frame
// is folded into the local cache through the reconciler's merge and, when it
// comes from someone else, fed to the unread tracker.
func (c *Client) SubscribeConversation(ctx context.Context, conv domain.Conversation) (transport.Subscription, error) {
	if c.Transport == nil {
		return nil, transport.ErrNetworkUnavailable
	}
	return c.Transport.Subscribe(ctx, conv.ID, conv.Keys.EncryptionKey, func(m domain.Message) {
		c.Messages.RecordSent(conv, m)
		c.Unread.HandleIncoming(m)
	})
}

// Close releases the transport session and the backing store.
func (c *Client) Close() error {
	var first error
	if c.Transport != nil {
		if err := c.Transport.Close(); err != nil {
			first = err
		}
	}
	if err := c.sql.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
