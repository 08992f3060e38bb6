// Package server implements the real-time core of the chat service: the
// WebSocket transport, the room/broadcast hub, and the per-connection
// lifecycle.
//
// The implementation is organized into specialized files for the hub,
// clients, the wire protocol, origin checks, and HTTP plumbing to keep the
// codebase maintainable and testable as the project grows.
package server
