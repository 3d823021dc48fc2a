// Package server implements the relay's HTTP and WebSocket surface.
//
// The implementation is organized into specialized files for the hub of live
// connections, per-connection clients, command handling, routing, and HTTP
// handlers. Room state itself lives in the registry package; this package is
// the only one that understands the wire encoding.
package server
