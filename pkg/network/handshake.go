package network

import (
	"fmt"
	"net/netip"
	"sync"

	"github.com/nspcc-dev/neond/pkg/wire/payload"
)

// HandshakeState is the per-peer handshake progress.
type HandshakeState int

const (
	// AwaitingVerack means a Version has been sent (by us or to us) and
	// the matching Verack has not yet arrived.
	AwaitingVerack HandshakeState = iota
	// Completed means both sides have exchanged Version and Verack.
	Completed
)

type handshakeRecord struct {
	nonce  uint64
	state  HandshakeState
	height uint32
	addr   netip.AddrPort
}

// HandshakeRegistry tracks in-flight handshakes by peer address, in
// either role: initiator (we dialed and sent Version first) or
// responder (a peer dialed us and sent Version first).
type HandshakeRegistry struct {
	mu      sync.RWMutex
	pending map[netip.AddrPort]*handshakeRecord
}

// NewHandshakeRegistry creates an empty HandshakeRegistry.
func NewHandshakeRegistry() *HandshakeRegistry {
	return &HandshakeRegistry{pending: make(map[netip.AddrPort]*handshakeRecord)}
}

// BeginOutbound records that we sent nonce to addr as the initiator and
// are now awaiting their Verack.
func (h *HandshakeRegistry) BeginOutbound(addr netip.AddrPort, nonce uint64, ourHeight uint32, ourAddr netip.AddrPort) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[addr] = &handshakeRecord{nonce: nonce, state: AwaitingVerack, height: ourHeight, addr: ourAddr}
}

// ReceiveRequest records an inbound Version from addr: we respond with a
// Verack echoing v.Nonce and our own Version, then await the peer's
// Verack in turn.
func (h *HandshakeRegistry) ReceiveRequest(addr netip.AddrPort, v *payload.Version) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[addr] = &handshakeRecord{nonce: v.Nonce, state: AwaitingVerack}
}

// AcceptVerack completes the handshake for addr if a pending record
// exists with a matching nonce; otherwise it fails with ErrHandshake and
// the peer is not admitted.
func (h *HandshakeRegistry) AcceptVerack(addr netip.AddrPort, v *payload.Verack) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	rec, ok := h.pending[addr]
	if !ok {
		return fmt.Errorf("%w: no pending handshake for %s", ErrHandshake, addr)
	}
	if rec.nonce != v.Nonce {
		return fmt.Errorf("%w: nonce mismatch for %s", ErrHandshake, addr)
	}
	rec.state = Completed
	return nil
}

// IsCompleted reports whether addr's handshake has reached Completed.
func (h *HandshakeRegistry) IsCompleted(addr netip.AddrPort) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rec, ok := h.pending[addr]
	return ok && rec.state == Completed
}

// Forget discards any handshake record for addr, e.g. once the peer is
// fully admitted into the connection table or the attempt failed.
func (h *HandshakeRegistry) Forget(addr netip.AddrPort) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, addr)
}
