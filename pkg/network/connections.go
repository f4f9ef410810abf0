package network

import (
	"context"
	"net/netip"
	"sync"

	"go.uber.org/zap"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// Connections is the table of live, handshake-completed channels, keyed
// by peer address. It is the only component allowed to write on a
// channel outside of the per-peer reader goroutine.
type Connections struct {
	mu  sync.RWMutex
	log *zap.Logger
	m   map[netip.AddrPort]*Channel
}

// NewConnections creates an empty connection table.
func NewConnections(log *zap.Logger) *Connections {
	return &Connections{log: log, m: make(map[netip.AddrPort]*Channel)}
}

// Store admits ch into the table under addr, replacing and closing any
// prior entry for the same address.
func (c *Connections) Store(addr netip.AddrPort, ch *Channel) {
	c.mu.Lock()
	old, had := c.m[addr]
	c.m[addr] = ch
	c.mu.Unlock()
	if had && old != ch {
		_ = old.Close()
	}
}

// Remove drops addr from the table and closes its channel, if present.
func (c *Connections) Remove(addr netip.AddrPort) {
	c.mu.Lock()
	ch, ok := c.m[addr]
	delete(c.m, addr)
	c.mu.Unlock()
	if ok {
		_ = ch.Close()
	}
}

// Get returns the channel for addr, if connected.
func (c *Connections) Get(addr netip.AddrPort) (*Channel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ch, ok := c.m[addr]
	return ch, ok
}

// Contains reports whether addr currently has a live entry.
func (c *Connections) Contains(addr netip.AddrPort) bool {
	_, ok := c.Get(addr)
	return ok
}

// Len returns the number of live connections.
func (c *Connections) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Addrs returns a snapshot of all currently connected addresses.
func (c *Connections) Addrs() []netip.AddrPort {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]netip.AddrPort, 0, len(c.m))
	for addr := range c.m {
		out = append(out, addr)
	}
	return out
}

// Broadcast writes msg to every connected peer except the one at except
// (the zero value excludes nobody). Write failures are logged and do not
// abort the broadcast to other peers; the reader goroutine for a failed
// peer will observe the same failure and drive disconnection.
func (c *Connections) Broadcast(ctx context.Context, except netip.AddrPort, msg wire.Message) {
	c.mu.RLock()
	targets := make([]*Channel, 0, len(c.m))
	for addr, ch := range c.m {
		if addr == except {
			continue
		}
		targets = append(targets, ch)
	}
	c.mu.RUnlock()

	for _, ch := range targets {
		if err := ch.Write(ctx, msg); err != nil {
			c.log.Debug("broadcast write failed", zap.Stringer("addr", ch.Addr()), zap.Error(err))
		}
	}
}
