// Package idgen mints the client and session identifiers CSP messages
// carry at the transport layer (outside the wire frame itself). Grounded
// on the teacher's session-id minting in
// internal/federation/handshake_service.go, which calls uuid.New().String()
// directly at the point of use; this package centralizes that so every
// transport binds client identity the same way.
package idgen

import "github.com/google/uuid"

// NewClientID mints a fresh client identifier for a newly accepted
// transport-level connection.
func NewClientID() string {
	return uuid.New().String()
}

// NewRequestID mints a per-request correlation identifier for logging and
// tracing a single HandleMessage call across transports.
func NewRequestID() string {
	return uuid.New().String()
}
