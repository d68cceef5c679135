// Package unread maintains per-conversation unread counters across
// reconnects.
//
// Counters are rebuilt on cold start by diffing stored inbound messages
// (DMs addressed to the local identity and group traffic from other members)
// against recorded read receipts, then driven by the live
// incoming feed. A message for the conversation currently marked active never
// increments its counter; marking as read and switching the active
// conversation are the only decrement paths.
package unread
