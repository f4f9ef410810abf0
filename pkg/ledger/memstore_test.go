package ledger

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemStorePutAndGetBlock(t *testing.T) {
	s := NewMemStore()
	b := &Block{Header: Header{Height: 1, Timestamp: 100}, Body: []byte("hello")}
	require.NoError(t, s.PutBlock(b))

	hash := b.Hash()
	require.True(t, s.BlockHashExists(hash))

	got, err := s.GetBlock(hash)
	require.NoError(t, err)
	require.Equal(t, b.Body, got.Body)

	height, err := s.GetBlockNumber(hash)
	require.NoError(t, err)
	require.Equal(t, uint32(1), height)

	h2, err := s.GetBlockHash(1)
	require.NoError(t, err)
	require.Equal(t, hash, h2)

	require.Equal(t, uint32(1), s.GetLatestBlockHeight())
}

func TestMemStoreGetBlockNotFound(t *testing.T) {
	s := NewMemStore()
	_, err := s.GetBlock([32]byte{1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreLocatorHashesEmptyWhenNoBlocks(t *testing.T) {
	s := NewMemStore()
	require.Empty(t, s.GetBlockLocatorHashes())
}

func TestMemStoreLocatorHashesIncludesTipAndGenesis(t *testing.T) {
	s := NewMemStore()
	for h := uint32(0); h <= 20; h++ {
		require.NoError(t, s.PutBlock(&Block{Header: Header{Height: h}}))
	}
	locator := s.GetBlockLocatorHashes()
	require.NotEmpty(t, locator)
	tipHash, _ := s.GetBlockHash(20)
	require.Equal(t, tipHash, locator[0])
	genesisHash, _ := s.GetBlockHash(0)
	require.Equal(t, genesisHash, locator[len(locator)-1])
}

func TestMemStorePeerBookRoundTrip(t *testing.T) {
	s := NewMemStore()
	addr := netip.MustParseAddrPort("1.2.3.4:80")
	ts := time.Now().Truncate(time.Second)
	require.NoError(t, s.PutPeerBook(map[netip.AddrPort]time.Time{addr: ts}))

	book, err := s.GetPeerBook()
	require.NoError(t, err)
	require.Equal(t, ts, book[addr])
}
