// Package reconcile merges a conversation's messages from the durable
// backing store, the live transport's bounded history, and the local cache
// into one deduplicated, time-ascending timeline.
//
// The backing store is the source of truth and is consulted first; transport
// history only fills in very recent sends the store may not hold yet. Merging
// is by message ID and never rewrites a message the timeline already knows,
// so repeated reconciliation of the same inputs is idempotent. Sending
// inserts into the local cache optimistically, making the message visible to
// the next read before any network confirmation.
package reconcile
