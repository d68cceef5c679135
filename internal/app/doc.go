// Package app assembles the messaging core for a calling application: it
// wires the stores, the key engine, the transport, and the services into one
// Client with an explicit open/close lifecycle. No state lives at module
// level, so independent clients (and tests) never couple through globals.
package app
