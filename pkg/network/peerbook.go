package network

import (
	"net/netip"
	"sync"
	"time"
)

// PeerBook tracks three disjoint sets of peer addresses: connected
// (active channel, completed handshake), gossiped (learned from a peer
// or persisted state, not yet connected), and disconnected (formerly
// connected peers we dropped). Membership changes are atomic: a peer is
// never simultaneously connected and gossiped.
type PeerBook struct {
	mu           sync.RWMutex
	maxPeers     int
	connected    map[netip.AddrPort]time.Time
	gossiped     map[netip.AddrPort]time.Time
	disconnected map[netip.AddrPort]time.Time
}

// NewPeerBook creates an empty PeerBook capped at maxPeers connections.
func NewPeerBook(maxPeers int) *PeerBook {
	return &PeerBook{
		maxPeers:     maxPeers,
		connected:    make(map[netip.AddrPort]time.Time),
		gossiped:     make(map[netip.AddrPort]time.Time),
		disconnected: make(map[netip.AddrPort]time.Time),
	}
}

// UpdateConnected marks addr connected at ts, removing it from gossiped
// and disconnected first so the three sets stay disjoint.
func (b *PeerBook) UpdateConnected(addr netip.AddrPort, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.gossiped, addr)
	delete(b.disconnected, addr)
	b.connected[addr] = ts
}

// UpdateGossiped records addr as known-but-unconnected at ts. It is a
// no-op if addr is already connected.
func (b *PeerBook) UpdateGossiped(addr netip.AddrPort, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.connected[addr]; ok {
		return
	}
	b.gossiped[addr] = ts
}

// DisconnectPeer moves addr from connected to disconnected. The caller
// is responsible for closing the corresponding connection-table entry.
func (b *PeerBook) DisconnectPeer(addr netip.AddrPort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ts, ok := b.connected[addr]
	if !ok {
		ts = time.Now()
	}
	delete(b.connected, addr)
	b.disconnected[addr] = ts
}

// ForgetPeer removes addr from all three sets, used when the node
// discovers that an address it held was actually itself.
func (b *PeerBook) ForgetPeer(addr netip.AddrPort) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.connected, addr)
	delete(b.gossiped, addr)
	delete(b.disconnected, addr)
}

// ConnectedContains reports whether addr is currently connected.
func (b *PeerBook) ConnectedContains(addr netip.AddrPort) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.connected[addr]
	return ok
}

// ConnectedTotal returns the number of connected peers.
func (b *PeerBook) ConnectedTotal() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connected)
}

// MaxPeers returns the configured connection cap.
func (b *PeerBook) MaxPeers() int {
	return b.maxPeers
}

// GetConnected returns a copy of the connected-set mapping.
func (b *PeerBook) GetConnected() map[netip.AddrPort]time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAddrMap(b.connected)
}

// GetGossiped returns a copy of the gossiped-set mapping.
func (b *PeerBook) GetGossiped() map[netip.AddrPort]time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneAddrMap(b.gossiped)
}

// Snapshot returns a copy of the connected set, serializable through the
// Storage collaborator's peer-book persistence.
func (b *PeerBook) Snapshot() map[netip.AddrPort]time.Time {
	return b.GetConnected()
}

// Seed merges a restored blob into the gossiped set, used at startup to
// repopulate candidates from persisted state.
func (b *PeerBook) Seed(restored map[netip.AddrPort]time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr, ts := range restored {
		if _, ok := b.connected[addr]; ok {
			continue
		}
		b.gossiped[addr] = ts
	}
}

func cloneAddrMap(m map[netip.AddrPort]time.Time) map[netip.AddrPort]time.Time {
	out := make(map[netip.AddrPort]time.Time, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
