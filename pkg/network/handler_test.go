package network

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/nspcc-dev/neond/pkg/config"
	"github.com/nspcc-dev/neond/pkg/consensus"
	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/mempool"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/nspcc-dev/neond/pkg/wire/payload"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func pairedChannel(t *testing.T, s *Server, addr netip.AddrPort) (*Channel, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	ch := NewChannel(server)
	ch.SetAddr(addr)
	s.connections.Store(addr, ch)
	return ch, client
}

func readWireMessage(t *testing.T, conn net.Conn) (wire.MessageName, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	name, payload, err := wire.ReadMessage(conn)
	require.NoError(t, err)
	return name, payload
}

func TestHandleGetSyncMatchesLocatorAndCaps(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	var hashes []wire.Hash
	var prev wire.Hash
	for i := uint32(1); i <= 3; i++ {
		h := &ledger.Header{Height: i, PrevHash: prev, Timestamp: int64(i)}
		require.NoError(t, s.storage.PutHeader(h))
		hash := (&ledger.Block{Header: *h}).Hash()
		require.NoError(t, s.storage.PutBlock(&ledger.Block{Header: *h}))
		hashes = append(hashes, hash)
		prev = hash
	}

	addr := mustAddrPort("9.9.9.9:1")
	_, client := pairedChannel(t, s, addr)
	defer client.Close()

	req := &payload.GetSync{Hashes: []wire.Hash{hashes[0]}}
	msg := &inboundMessage{addr: addr, name: wire.NameGetSync, payload: encodePayload(req), ack: make(chan bool, 1)}

	go s.handleGetSync(context.Background(), msg)

	name, respPayload := readWireMessage(t, client)
	require.Equal(t, wire.NameSync, name)
	var resp payload.Sync
	resp.Decode(wire.NewBinReaderFromBuf(respPayload))
	require.Equal(t, []wire.Hash{hashes[1], hashes[2]}, resp.Hashes)
}

func TestHandleSyncRejectsNonAdoptedNode(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	syncNode := mustAddrPort("1.1.1.1:1")
	spoofer := mustAddrPort("2.2.2.2:2")
	require.True(t, s.syncHandler.AdoptNode(syncNode))

	var h wire.Hash
	h[0] = 1
	msg := &inboundMessage{addr: spoofer, name: wire.NameSync, payload: encodePayload(&payload.Sync{Hashes: []wire.Hash{h}})}
	s.handleSync(context.Background(), msg)

	require.False(t, s.syncHandler.IsSyncing())
}

func TestHandleSyncAcceptsAdoptedNodeAndRequestsNextBlock(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	syncNode := mustAddrPort("1.1.1.1:1")
	require.True(t, s.syncHandler.AdoptNode(syncNode))
	_, client := pairedChannel(t, s, syncNode)
	defer client.Close()

	var h wire.Hash
	h[0] = 0xaa
	msg := &inboundMessage{addr: syncNode, name: wire.NameSync, payload: encodePayload(&payload.Sync{Hashes: []wire.Hash{h}})}

	go s.handleSync(context.Background(), msg)

	name, respPayload := readWireMessage(t, client)
	require.Equal(t, wire.NameGetBlock, name)
	var req payload.GetBlock
	req.Decode(wire.NewBinReaderFromBuf(respPayload))
	require.Equal(t, h, req.Hash)
	require.True(t, s.syncHandler.IsSyncing())
}

func TestHandleBlockReceiptSyncBlockRequestsNextPendingHash(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	syncNode := mustAddrPort("1.1.1.1:1")
	require.True(t, s.syncHandler.AdoptNode(syncNode))
	_, client := pairedChannel(t, s, syncNode)
	defer client.Close()

	bodyA := []byte("block-a")
	hashA := (&ledger.Block{Body: bodyA}).Hash()
	hashB := (&ledger.Block{Body: []byte("block-b")}).Hash()
	require.True(t, s.syncHandler.ReceiveHashes([]wire.Hash{hashA, hashB}))

	msg := &inboundMessage{addr: syncNode, name: wire.NameSyncBlock, payload: encodePayload(&payload.SyncBlock{Bytes: bodyA})}
	go s.handleBlockReceipt(context.Background(), msg, false)

	name, respPayload := readWireMessage(t, client)
	require.Equal(t, wire.NameGetBlock, name)
	var req payload.GetBlock
	req.Decode(wire.NewBinReaderFromBuf(respPayload))
	require.Equal(t, hashB, req.Hash)
	require.True(t, s.syncHandler.IsSyncing())
	require.Equal(t, syncNode, s.syncHandler.SyncNode())
}

func TestHandleBlockReceiptSyncBlockFinishesGoesIdle(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	syncNode := mustAddrPort("1.1.1.1:1")
	require.True(t, s.syncHandler.AdoptNode(syncNode))

	body := []byte("only-block")
	hash := (&ledger.Block{Body: body}).Hash()
	require.True(t, s.syncHandler.ReceiveHashes([]wire.Hash{hash}))

	msg := &inboundMessage{addr: syncNode, name: wire.NameSyncBlock, payload: encodePayload(&payload.SyncBlock{Bytes: body})}
	s.handleBlockReceipt(context.Background(), msg, false)

	require.False(t, s.syncHandler.IsSyncing())
	require.Equal(t, syncNode, s.syncHandler.SyncNode())
}

func TestHandleVersionAdoptsSyncNodeWhenPeerAhead(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	addr := mustAddrPort("1.1.1.1:1")
	_, client := pairedChannel(t, s, addr)
	defer client.Close()

	v := &payload.Version{Height: 100}
	msg := &inboundMessage{addr: addr, name: wire.NameVersion, payload: encodePayload(v)}
	go s.handleVersion(context.Background(), msg)

	name, _ := readWireMessage(t, client)
	require.Equal(t, wire.NameGetSync, name)
	require.False(t, s.syncHandler.IsSyncing())
	require.Equal(t, addr, s.syncHandler.SyncNode())
}

func TestHandleVersionNoopWhenSyncingAlready(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	existing := mustAddrPort("9.9.9.9:1")
	require.True(t, s.syncHandler.AdoptNode(existing))
	require.True(t, s.syncHandler.ReceiveHashes(hashes(1)))

	addr := mustAddrPort("1.1.1.1:1")
	_, client := pairedChannel(t, s, addr)
	defer client.Close()

	v := &payload.Version{Height: 100}
	msg := &inboundMessage{addr: addr, name: wire.NameVersion, payload: encodePayload(v)}
	s.handleVersion(context.Background(), msg)

	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := wire.ReadMessage(client)
	require.Error(t, err)
	require.Equal(t, existing, s.syncHandler.SyncNode())
}

func TestHandleVerackSendsGetPeers(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	addr := mustAddrPort("1.1.1.1:1")
	_, client := pairedChannel(t, s, addr)
	defer client.Close()

	msg := &inboundMessage{addr: addr, name: wire.NameVerack, payload: encodePayload(&payload.Verack{})}
	go s.handleVerack(context.Background(), msg)

	name, _ := readWireMessage(t, client)
	require.Equal(t, wire.NameGetPeers, name)
}

func TestHandleBlockReceiptPropagateBroadcasts(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	sender := mustAddrPort("1.1.1.1:1")
	other := mustAddrPort("2.2.2.2:2")
	_, senderClient := pairedChannel(t, s, sender)
	defer senderClient.Close()
	_, otherClient := pairedChannel(t, s, other)
	defer otherClient.Close()

	block := &payload.Block{Bytes: []byte("block-body")}
	msg := &inboundMessage{addr: sender, name: wire.NameBlock, payload: encodePayload(block)}

	go s.handleBlockReceipt(context.Background(), msg, true)

	name, respPayload := readWireMessage(t, otherClient)
	require.Equal(t, wire.NameBlock, name)
	var got payload.Block
	got.Decode(wire.NewBinReaderFromBuf(respPayload))
	require.Equal(t, block.Bytes, got.Bytes)

	require.True(t, s.storage.BlockHashExists((&ledger.Block{Body: block.Bytes}).Hash()))
}

func TestHandleBlockReceiptDuplicateSkipsInsertAndBroadcast(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	body := []byte("dup-body")
	require.NoError(t, s.storage.PutBlock(&ledger.Block{Body: body}))

	sender := mustAddrPort("1.1.1.1:1")
	other := mustAddrPort("2.2.2.2:2")
	_, senderClient := pairedChannel(t, s, sender)
	defer senderClient.Close()
	_, otherClient := pairedChannel(t, s, other)
	defer otherClient.Close()

	block := &payload.Block{Bytes: body}
	msg := &inboundMessage{addr: sender, name: wire.NameBlock, payload: encodePayload(block)}
	s.handleBlockReceipt(context.Background(), msg, true)

	otherClient.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := wire.ReadMessage(otherClient)
	require.Error(t, err)
}

func TestHandleMemoryPoolDedupSkipsSeenTransactions(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	tx := []byte("tx-1")
	require.True(t, s.pool.PoolTx(tx))
	require.Equal(t, 1, s.pool.Len())

	sender := mustAddrPort("1.1.1.1:1")
	msg := &inboundMessage{addr: sender, name: wire.NameMemoryPool, payload: encodePayload(&payload.MemoryPool{Txs: [][]byte{tx}})}
	s.handleMemoryPool(msg)

	require.Equal(t, 1, s.pool.Len())
}

func TestProcessTransactionRelaysToOthersNotSender(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	sender := mustAddrPort("1.1.1.1:1")
	other := mustAddrPort("2.2.2.2:2")
	_, senderClient := pairedChannel(t, s, sender)
	defer senderClient.Close()
	_, otherClient := pairedChannel(t, s, other)
	defer otherClient.Close()

	go s.processTransaction(context.Background(), sender, []byte("new-tx"))

	name, respPayload := readWireMessage(t, otherClient)
	require.Equal(t, wire.NameTransaction, name)
	var got payload.Transaction
	got.Decode(wire.NewBinReaderFromBuf(respPayload))
	require.Equal(t, []byte("new-tx"), got.Bytes)

	senderClient.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	_, _, err := wire.ReadMessage(senderClient)
	require.Error(t, err)
}

func TestHandleDisconnectClearsPeerState(t *testing.T) {
	cfg := config.P2P{MaxPeers: 10}
	s := New(cfg, zaptest.NewLogger(t), ledger.NewMemStore(), mempool.NewPool(100), consensus.AcceptAllConsensus{}, nil)

	addr := mustAddrPort("1.1.1.1:1")
	_, client := pairedChannel(t, s, addr)
	defer client.Close()
	s.peerBook.UpdateConnected(addr, time.Now())
	require.True(t, s.syncHandler.AdoptNode(addr))

	disconnect := s.handleDisconnect(&inboundMessage{addr: addr})
	require.True(t, disconnect)
	require.False(t, s.connections.Contains(addr))
	require.False(t, s.peerBook.ConnectedContains(addr))
	require.False(t, s.syncHandler.IsSyncing())
}
