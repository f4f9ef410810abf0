package network

import (
	"context"
	"crypto/sha256"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/nspcc-dev/neond/pkg/wire/payload"
)

// centralHandler is the single consumer draining the shared inbound
// queue. It dispatches each tuple on its MessageName and acknowledges
// back to the reader whether the peer should be dropped, preserving
// per-peer message order while allowing fair interleaving across peers.
func (s *Server) centralHandler(ctx context.Context) {
	for {
		select {
		case msg := <-s.inbound:
			disconnect := s.dispatch(ctx, msg)
			msg.ack <- disconnect
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, msg *inboundMessage) bool {
	switch msg.name {
	case wire.NameVersion:
		return s.handleVersion(ctx, msg)
	case wire.NameVerack:
		return s.handleVerack(ctx, msg)
	case wire.NamePing:
		return s.handlePing(ctx, msg)
	case wire.NamePong:
		return s.handlePong(msg)
	case wire.NameGetPeers:
		return s.handleGetPeers(ctx, msg)
	case wire.NamePeers:
		return s.handlePeers(msg)
	case wire.NameGetBlock:
		return s.handleGetBlock(ctx, msg)
	case wire.NameBlock:
		return s.handleBlockReceipt(ctx, msg, true)
	case wire.NameSyncBlock:
		return s.handleBlockReceipt(ctx, msg, false)
	case wire.NameGetSync:
		return s.handleGetSync(ctx, msg)
	case wire.NameSync:
		return s.handleSync(ctx, msg)
	case wire.NameGetMemoryPool:
		return s.handleGetMemoryPool(ctx, msg)
	case wire.NameMemoryPool:
		return s.handleMemoryPool(msg)
	case wire.NameTransaction:
		return s.handleTransaction(ctx, msg)
	case wire.NameDisconnect:
		return s.handleDisconnect(msg)
	default:
		s.log.Debug("unknown message", zap.Stringer("addr", msg.addr), zap.String("name", msg.name.String()))
		return false
	}
}

// handleVersion handles a Version arriving from an already-admitted peer
// (§4.9): the peer may resend it to report a new chain height. Liveness
// is refreshed and, if the peer is now ahead and no sync is in progress,
// it is adopted as sync node and sent GetSync, exactly as at admission
// time. Re-keying the connection table to a new advertised address is
// not attempted here — that discovery only applies to our own address
// and only at handshake time (see admitPeer), not to an already
// established peer connection.
func (s *Server) handleVersion(ctx context.Context, msg *inboundMessage) bool {
	var v payload.Version
	v.Decode(wire.NewBinReaderFromBuf(msg.payload))
	s.peerBook.UpdateConnected(msg.addr, time.Now())

	if v.Height > s.storage.GetLatestBlockHeight() && !s.syncHandler.IsSyncing() {
		s.adoptSyncNode(ctx, msg.addr)
	}
	return false
}

// handleVerack handles a Verack arriving from an already-admitted peer
// (§4.9): treated as a liveness refresh that also nudges gossip along by
// requesting the peer's view of the network.
func (s *Server) handleVerack(ctx context.Context, msg *inboundMessage) bool {
	s.peerBook.UpdateConnected(msg.addr, time.Now())

	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}
	out := &payload.GetPeers{}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameGetPeers, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send getpeers", zap.Error(err))
	}
	return false
}

func (s *Server) handlePing(ctx context.Context, msg *inboundMessage) bool {
	var ping payload.Ping
	ping.Decode(wire.NewBinReaderFromBuf(msg.payload))
	s.peerBook.UpdateConnected(msg.addr, time.Now())

	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}
	if err := s.pings.SendPong(ctx, ch, &ping); err != nil {
		s.log.Debug("failed to send pong", zap.Error(err))
	}
	return false
}

func (s *Server) handlePong(msg *inboundMessage) bool {
	var pong payload.Pong
	pong.Decode(wire.NewBinReaderFromBuf(msg.payload))
	if err := s.pings.AcceptPong(msg.addr, &pong); err != nil {
		s.log.Debug("unexpected pong", zap.Stringer("addr", msg.addr), zap.Error(err))
		return false
	}
	s.peerBook.UpdateConnected(msg.addr, time.Now())
	return false
}

func (s *Server) handleGetPeers(ctx context.Context, msg *inboundMessage) bool {
	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}
	var entries []payload.PeerEntry
	for addr, ts := range s.peerBook.GetConnected() {
		if addr == msg.addr {
			continue
		}
		entries = append(entries, payload.PeerEntry{Addr: addr, Timestamp: ts.Unix()})
	}
	out := &payload.Peers{Addrs: entries}
	if err := ch.Write(ctx, wire.Message{Name: wire.NamePeers, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send peers", zap.Error(err))
	}
	return false
}

func (s *Server) handlePeers(msg *inboundMessage) bool {
	var peers payload.Peers
	peers.Decode(wire.NewBinReaderFromBuf(msg.payload))
	local := s.getLocalAddr()
	now := time.Now()
	for _, entry := range peers.Addrs {
		if entry.Addr == local {
			continue
		}
		if s.peerBook.ConnectedContains(entry.Addr) {
			s.peerBook.UpdateConnected(entry.Addr, time.Unix(entry.Timestamp, 0))
			continue
		}
		s.peerBook.UpdateGossiped(entry.Addr, time.Unix(entry.Timestamp, 0))
	}
	s.peerBook.UpdateConnected(msg.addr, now)
	return false
}

func (s *Server) handleGetBlock(ctx context.Context, msg *inboundMessage) bool {
	var req payload.GetBlock
	req.Decode(wire.NewBinReaderFromBuf(msg.payload))

	block, err := s.storage.GetBlock(req.Hash)
	if err != nil {
		return false
	}
	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}
	out := &payload.SyncBlock{Bytes: block.Body}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameSyncBlock, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send syncblock", zap.Error(err))
	}
	return false
}

func (s *Server) handleGetSync(ctx context.Context, msg *inboundMessage) bool {
	var req payload.GetSync
	req.Decode(wire.NewBinReaderFromBuf(msg.payload))

	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}

	ourHeight := s.storage.GetLatestBlockHeight()
	startHeight := uint32(0)
	found := false
	for _, h := range req.Hashes {
		if height, err := s.storage.GetBlockNumber(h); err == nil {
			if !found || height > startHeight {
				startHeight = height
				found = true
			}
		}
	}

	var hashes []wire.Hash
	if found && ourHeight > startHeight {
		end := startHeight + maxSyncBatch
		if end > ourHeight {
			end = ourHeight
		}
		for h := startHeight + 1; h <= end; h++ {
			hash, err := s.storage.GetBlockHash(h)
			if err != nil {
				break
			}
			hashes = append(hashes, hash)
		}
	}

	out := &payload.Sync{Hashes: hashes}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameSync, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send sync", zap.Error(err))
	}
	return false
}

func (s *Server) handleSync(ctx context.Context, msg *inboundMessage) bool {
	if s.syncHandler.SyncNode() != msg.addr {
		s.log.Debug("sync from non-adopted node, ignoring", zap.Stringer("addr", msg.addr))
		return false
	}
	var resp payload.Sync
	resp.Decode(wire.NewBinReaderFromBuf(msg.payload))

	var toRequest []wire.Hash
	for _, h := range resp.Hashes {
		if !s.storage.BlockHashExists(h) {
			toRequest = append(toRequest, h)
		}
	}
	if !s.syncHandler.ReceiveHashes(toRequest) {
		return false
	}
	s.requestNextBlock(ctx, msg.addr)
	return false
}

// requestNextBlock sends GetBlock for the sync handler's first pending
// hash over syncNode's channel. It does not consume the hash; that hash
// leaves the pending list once its block arrives (ClearPending).
func (s *Server) requestNextBlock(ctx context.Context, syncNode netip.AddrPort) {
	hash, ok := s.syncHandler.Increment()
	if !ok {
		return
	}
	ch, ok := s.connections.Get(syncNode)
	if !ok {
		return
	}
	out := &payload.GetBlock{Hash: hash}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameGetBlock, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send getblock", zap.Error(err))
	}
}

func (s *Server) handleGetMemoryPool(ctx context.Context, msg *inboundMessage) bool {
	txs := s.pool.Transactions()
	if len(txs) == 0 {
		return false
	}
	ch, ok := s.connections.Get(msg.addr)
	if !ok {
		return false
	}
	out := &payload.MemoryPool{Txs: txs}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameMemoryPool, Payload: encodePayload(out)}); err != nil {
		s.log.Debug("failed to send memorypool", zap.Error(err))
	}
	return false
}

func (s *Server) handleMemoryPool(msg *inboundMessage) bool {
	var pool payload.MemoryPool
	pool.Decode(wire.NewBinReaderFromBuf(msg.payload))
	for _, tx := range pool.Txs {
		if s.pool.Seen(sha256.Sum256(tx)) {
			continue
		}
		if s.pool.PoolTx(tx) {
			s.log.Debug("inserted transaction from memorypool relay", zap.Stringer("addr", msg.addr))
		}
	}
	return false
}

func (s *Server) handleTransaction(ctx context.Context, msg *inboundMessage) bool {
	var tx payload.Transaction
	tx.Decode(wire.NewBinReaderFromBuf(msg.payload))
	s.processTransaction(ctx, msg.addr, tx.Bytes)
	return false
}

// processTransaction inserts bytes into the mempool (skipping it if
// already seen, per the mempool dedup pre-check) and, if newly
// inserted, relays it to every peer except the sender.
func (s *Server) processTransaction(ctx context.Context, from netip.AddrPort, bytes []byte) {
	if s.pool.Seen(sha256.Sum256(bytes)) {
		return
	}
	if !s.pool.PoolTx(bytes) {
		return
	}
	out := &payload.Transaction{Bytes: bytes}
	s.connections.Broadcast(ctx, from, wire.Message{Name: wire.NameTransaction, Payload: encodePayload(out)})
}

func (s *Server) handleDisconnect(msg *inboundMessage) bool {
	s.peerBook.DisconnectPeer(msg.addr)
	s.connections.Remove(msg.addr)
	s.handshakes.Forget(msg.addr)
	s.pings.Clear(msg.addr)
	if s.syncHandler.SyncNode() == msg.addr {
		s.syncHandler.Abort()
	}
	if s.metrics != nil {
		s.reportMetrics()
	}
	s.log.Info("peer disconnected", zap.Stringer("addr", msg.addr))
	return true
}

// handleBlockReceipt implements the shared Block/SyncBlock logic (§4.10):
// persist via consensus, drop any now-fulfilled sync-handler pending
// hashes, then either propagate (unsolicited Block) or, if a sync batch
// is still in progress, request the next pending hash (SyncBlock only;
// a Block message always takes the propagate path). The sync-node
// spoofing guard requires the sender to be the adopted sync node before
// a non-propagating block is allowed to advance the cursor.
func (s *Server) handleBlockReceipt(ctx context.Context, msg *inboundMessage, propagate bool) bool {
	var blockMsg payload.Block
	if propagate {
		blockMsg.Decode(wire.NewBinReaderFromBuf(msg.payload))
	} else {
		var sb payload.SyncBlock
		sb.Decode(wire.NewBinReaderFromBuf(msg.payload))
		blockMsg.Bytes = sb.Bytes
	}
	block := &ledger.Block{Body: blockMsg.Bytes}
	hash := block.Hash()

	if s.storage.BlockHashExists(hash) {
		return false
	}

	err := s.consensus.ReceiveBlock(s.params, s.storage, s.pool, block)
	inserted := err == nil
	if err != nil {
		s.log.Debug("consensus rejected block", zap.Error(err))
	}

	s.syncHandler.ClearPending(s.storage)

	if inserted && propagate {
		s.connections.Broadcast(ctx, msg.addr, wire.Message{Name: wire.NameBlock, Payload: encodePayload(&blockMsg)})
		return false
	}
	if !propagate && s.syncHandler.IsSyncing() && msg.addr == s.syncHandler.SyncNode() {
		s.requestNextBlock(ctx, msg.addr)
	}
	return false
}

