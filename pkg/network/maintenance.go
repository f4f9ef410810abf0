package network

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nspcc-dev/neond/internal/random"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/nspcc-dev/neond/pkg/wire/payload"
)

// maintenanceDialFanout bounds how many gossiped addresses a single
// maintenance tick will attempt to dial toward MaxPeers.
const maintenanceDialFanout = 8

// maintenanceLoop runs at cfg.ConnectionFrequency: it pings every
// connected peer, drops peers whose ping went unanswered past the
// window, dials gossiped addresses to replenish toward MaxPeers, and
// persists the connected set on every tick.
func (s *Server) maintenanceLoop(ctx context.Context) {
	interval := s.cfg.ConnectionFrequency
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	mempoolInterval := s.cfg.MempoolInterval
	if mempoolInterval <= 0 {
		mempoolInterval = time.Minute
	}
	mempoolTicker := time.NewTicker(mempoolInterval)
	defer mempoolTicker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runMaintenanceTick(ctx)
		case <-mempoolTicker.C:
			s.requestMempoolFromRandomPeer(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// requestMempoolFromRandomPeer sends GetMemoryPool to one randomly
// chosen connected peer, per mempool_interval_s (§6): the steady-state
// complement to the dedup-gated relay path, letting the node pick up
// transactions it missed rather than only reacting to unsolicited ones.
func (s *Server) requestMempoolFromRandomPeer(ctx context.Context) {
	addrs := s.connections.Addrs()
	if len(addrs) == 0 {
		return
	}
	addr := addrs[random.Int(0, len(addrs))]
	ch, ok := s.connections.Get(addr)
	if !ok {
		return
	}
	out := &payload.GetMemoryPool{}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameGetMemoryPool, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send getmemorypool", zap.Stringer("addr", addr), zap.Error(err))
	}
}

func (s *Server) runMaintenanceTick(ctx context.Context) {
	s.pingConnectedPeers(ctx)
	s.dropExpiredPeers()
	s.replenishPeers(ctx)
	s.persistPeerBook()
	if s.metrics != nil {
		s.reportMetrics()
	}
}

func (s *Server) pingConnectedPeers(ctx context.Context) {
	for addr := range s.peerBook.GetConnected() {
		ch, ok := s.connections.Get(addr)
		if !ok {
			continue
		}
		if err := s.pings.SendPing(ctx, ch); err != nil {
			s.log.Debug("failed to send ping", zap.Stringer("addr", addr), zap.Error(err))
		}
	}
}

func (s *Server) dropExpiredPeers() {
	for _, addr := range s.pings.Expired() {
		s.pings.Clear(addr)
		s.connections.Remove(addr)
		s.peerBook.DisconnectPeer(addr)
		s.handshakes.Forget(addr)
		if s.syncHandler.SyncNode() == addr {
			s.syncHandler.Abort()
		}
		s.log.Info("dropped peer after ping expiry", zap.Stringer("addr", addr))
	}
}

func (s *Server) replenishPeers(ctx context.Context) {
	if s.peerBook.ConnectedTotal() >= s.peerBook.MaxPeers() {
		return
	}
	dialed := 0
	for addr := range s.peerBook.GetGossiped() {
		if dialed >= maintenanceDialFanout || s.peerBook.ConnectedTotal() >= s.peerBook.MaxPeers() {
			return
		}
		if s.connections.Contains(addr) {
			continue
		}
		dialed++
		go s.dial(ctx, addr.String())
	}
}
