package network

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/nspcc-dev/neond/internal/random"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/nspcc-dev/neond/pkg/wire/payload"
)

type pendingPing struct {
	nonce  uint64
	sentAt time.Time
}

// PingRegistry issues nonce-stamped pings and accepts matching pongs
// within a configured window. At most one ping is outstanding per
// address at a time.
type PingRegistry struct {
	mu      sync.RWMutex
	window  time.Duration
	pending map[netip.AddrPort]pendingPing
	nonce   func() uint64
	now     func() time.Time
}

// NewPingRegistry creates a PingRegistry with the given expiry window.
func NewPingRegistry(window time.Duration) *PingRegistry {
	return &PingRegistry{
		window:  window,
		pending: make(map[netip.AddrPort]pendingPing),
		nonce:   randomNonce,
		now:     time.Now,
	}
}

// SendPing generates a fresh nonce, records it against ch's address, and
// writes a Ping message.
func (r *PingRegistry) SendPing(ctx context.Context, ch *Channel) error {
	nonce := r.nonce()
	r.mu.Lock()
	r.pending[ch.Addr()] = pendingPing{nonce: nonce, sentAt: r.now()}
	r.mu.Unlock()

	bw := encodePayload(&payload.Ping{Nonce: nonce})
	return ch.Write(ctx, wire.Message{Name: wire.NamePing, Payload: bw})
}

// SendPong echoes ping's nonce back over ch immediately.
func (r *PingRegistry) SendPong(ctx context.Context, ch *Channel, ping *payload.Ping) error {
	bw := encodePayload(&payload.Pong{Nonce: ping.Nonce})
	return ch.Write(ctx, wire.Message{Name: wire.NamePong, Payload: bw})
}

// AcceptPong succeeds iff a pending ping exists for addr, its nonce
// matches pong, and it is still within the expiry window; the pending
// entry is cleared either way once checked.
func (r *PingRegistry) AcceptPong(addr netip.AddrPort, pong *payload.Pong) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[addr]
	if !ok {
		return ErrUnexpectedPong
	}
	delete(r.pending, addr)
	if p.nonce != pong.Nonce {
		return ErrUnexpectedPong
	}
	if r.now().Sub(p.sentAt) > r.window {
		return ErrUnexpectedPong
	}
	return nil
}

// Expired returns the addresses whose outstanding ping has exceeded the
// expiry window without a matching pong, used by maintenance to prune
// dead peers.
func (r *PingRegistry) Expired() []netip.AddrPort {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []netip.AddrPort
	now := r.now()
	for addr, p := range r.pending {
		if now.Sub(p.sentAt) > r.window {
			out = append(out, addr)
		}
	}
	return out
}

// Clear removes any outstanding ping for addr, e.g. on disconnect.
func (r *PingRegistry) Clear(addr netip.AddrPort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, addr)
}

func randomNonce() uint64 {
	return random.Uint64()
}

func encodePayload(p interface {
	Encode(*wire.BinWriter)
}) []byte {
	bw := wire.NewBufBinWriter()
	p.Encode(bw.BinWriter)
	return bw.Bytes()
}
