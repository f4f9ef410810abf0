package network

import (
	"testing"

	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/stretchr/testify/require"
)

func hashes(n ...byte) []wire.Hash {
	out := make([]wire.Hash, len(n))
	for i, b := range n {
		out[i][0] = b
	}
	return out
}

func TestSyncHandlerAdoptNode(t *testing.T) {
	s := NewSyncHandler()
	node := mustAddrPort("1.1.1.1:1")
	require.True(t, s.AdoptNode(node))
	require.Equal(t, node, s.SyncNode())
	require.False(t, s.IsSyncing())
}

func TestSyncHandlerReceiveHashesStartsSync(t *testing.T) {
	s := NewSyncHandler()
	node := mustAddrPort("1.1.1.1:1")
	s.AdoptNode(node)
	require.True(t, s.ReceiveHashes(hashes(1, 2, 3)))
	require.True(t, s.IsSyncing())
	require.Equal(t, node, s.SyncNode())

	h, ok := s.Increment()
	require.True(t, ok)
	require.Equal(t, hashes(1)[0], h)
}

func TestSyncHandlerRejectsSecondNodeWhileSyncing(t *testing.T) {
	s := NewSyncHandler()
	node := mustAddrPort("1.1.1.1:1")
	other := mustAddrPort("2.2.2.2:2")
	s.AdoptNode(node)
	require.True(t, s.ReceiveHashes(hashes(1, 2)))
	require.False(t, s.AdoptNode(other))
	require.Equal(t, node, s.SyncNode())
}

func TestSyncHandlerIncrementPeeksWithoutDraining(t *testing.T) {
	s := NewSyncHandler()
	s.AdoptNode(mustAddrPort("1.1.1.1:1"))
	s.ReceiveHashes(hashes(1, 2))

	h, ok := s.Increment()
	require.True(t, ok)
	require.Equal(t, hashes(1)[0], h)
	require.True(t, s.IsSyncing())

	// Increment alone never consumes pending; only ClearPending does,
	// once the corresponding block actually lands in storage.
	h, ok = s.Increment()
	require.True(t, ok)
	require.Equal(t, hashes(1)[0], h)
	require.True(t, s.IsSyncing())
}

func TestSyncHandlerIncrementGoesIdleWhenExhausted(t *testing.T) {
	s := NewSyncHandler()
	_, ok := s.Increment()
	require.False(t, ok)
	require.False(t, s.IsSyncing())
}

func TestSyncHandlerClearPendingDropsFulfilledKeepsNodeAndRemaining(t *testing.T) {
	s := NewSyncHandler()
	node := mustAddrPort("1.1.1.1:1")
	s.AdoptNode(node)

	store := ledger.NewMemStore()
	first := &ledger.Block{Header: ledger.Header{Height: 1}, Body: []byte("a")}
	second := &ledger.Block{Header: ledger.Header{Height: 2}, Body: []byte("b")}

	require.True(t, s.ReceiveHashes([]wire.Hash{first.Hash(), second.Hash()}))
	require.NoError(t, store.PutBlock(first))

	s.ClearPending(store)
	require.True(t, s.IsSyncing())
	require.Equal(t, node, s.SyncNode())

	h, ok := s.Increment()
	require.True(t, ok)
	require.Equal(t, second.Hash(), h)
}

func TestSyncHandlerClearPendingGoesIdleWhenAllFulfilled(t *testing.T) {
	s := NewSyncHandler()
	node := mustAddrPort("1.1.1.1:1")
	s.AdoptNode(node)

	store := ledger.NewMemStore()
	block := &ledger.Block{Header: ledger.Header{Height: 1}, Body: []byte("a")}

	require.True(t, s.ReceiveHashes([]wire.Hash{block.Hash()}))
	require.NoError(t, store.PutBlock(block))

	s.ClearPending(store)
	require.False(t, s.IsSyncing())
	require.Equal(t, node, s.SyncNode())

	_, ok := s.Increment()
	require.False(t, ok)
}

func TestSyncHandlerAbortResetsEverything(t *testing.T) {
	s := NewSyncHandler()
	s.AdoptNode(mustAddrPort("1.1.1.1:1"))
	s.ReceiveHashes(hashes(1, 2, 3))
	s.Abort()
	require.False(t, s.IsSyncing())
	_, ok := s.Increment()
	require.False(t, ok)
	require.False(t, s.SyncNode().IsValid())
}

func TestSyncHandlerEmptyHashesStaysIdle(t *testing.T) {
	s := NewSyncHandler()
	s.AdoptNode(mustAddrPort("1.1.1.1:1"))
	require.True(t, s.ReceiveHashes(nil))
	require.False(t, s.IsSyncing())
}
