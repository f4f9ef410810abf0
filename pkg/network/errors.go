package network

import "errors"

// Errors surfaced by the networking core. No single peer's misbehavior
// may crash the server: these are all either recovered locally (message
// dropped, failure count incremented) or logged and skipped.
var (
	// ErrPeerDisconnected wraps the underlying stream error (EOF, reset)
	// that ended a Channel's read loop.
	ErrPeerDisconnected = errors.New("network: peer disconnected")
	// ErrCapacity names the peer-cap condition. The acceptor does not
	// return it: at the cap it half-shuts and closes the inbound stream
	// without a handshake and logs the rejection.
	ErrCapacity = errors.New("network: peer capacity reached")
	// ErrHandshake covers nonce mismatches and unexpected verack/version
	// ordering; the peer is not admitted.
	ErrHandshake = errors.New("network: handshake failed")
	// ErrUnexpectedPong is returned by the ping registry when a pong's
	// nonce doesn't match any pending ping, or arrives after expiry.
	ErrUnexpectedPong = errors.New("network: unexpected pong")
)
