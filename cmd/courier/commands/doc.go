// Package commands defines the courier CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init      Generate the local messaging keypair and publish it
//   - send      Encrypt and send a direct or group message
//   - history   Print a conversation's reconciled timeline
//   - group     Create, unlock, join, and leave groups
//   - unread    Print unread counts per conversation
//   - backup    Store or recover an encrypted keypair backup
//
// # Implementation
//
// The root command opens the shared client (backing store, local state,
// optional live transport) before any subcommand runs and closes it after,
// so handlers share one dependency graph.
package commands
