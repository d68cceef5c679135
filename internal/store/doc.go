// Package store implements the two persistence layers the core relies on:
//
//   - SQL: the durable relational backing store (messages, groups,
//     membership, the public key directory, read receipts) on sqlite.
//   - KV: simple local persistent key/value storage (keypair, per-topic
//     message caches, unlocked group keys) as a JSON file with atomic writes.
//
// The backing store only promises idempotent message insert and selection
// ordered by sent_at; everything smarter lives in the services.
package store
