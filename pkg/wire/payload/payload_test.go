package payload

import (
	"net/netip"
	"testing"

	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, enc func(*wire.BinWriter), dec func(*wire.BinReader)) {
	t.Helper()
	bw := wire.NewBufBinWriter()
	enc(bw.BinWriter)
	require.NoError(t, bw.Error())
	br := wire.NewBinReaderFromBuf(bw.Bytes())
	dec(br)
	require.NoError(t, br.Err)
}

func TestVersionRoundTrip(t *testing.T) {
	v := &Version{
		Version:   1,
		Height:    42,
		Nonce:     0xdeadbeef,
		Timestamp: 1700000000,
		AddrRecv:  netip.MustParseAddrPort("1.2.3.4:3000"),
		AddrSend:  netip.MustParseAddrPort("5.6.7.8:3001"),
		UserAgent: "neond:0.1",
	}
	var got Version
	roundTrip(t, v.Encode, got.Decode)
	require.Equal(t, *v, got)
}

func TestVerackPingPongRoundTrip(t *testing.T) {
	verack := &Verack{Nonce: 7}
	var gotVerack Verack
	roundTrip(t, verack.Encode, gotVerack.Decode)
	require.Equal(t, *verack, gotVerack)

	ping := &Ping{Nonce: 11}
	var gotPing Ping
	roundTrip(t, ping.Encode, gotPing.Decode)
	require.Equal(t, *ping, gotPing)

	pong := &Pong{Nonce: 11}
	var gotPong Pong
	roundTrip(t, pong.Encode, gotPong.Decode)
	require.Equal(t, *pong, gotPong)
}

func TestPeersRoundTrip(t *testing.T) {
	p := &Peers{Addrs: []PeerEntry{
		{Addr: netip.MustParseAddrPort("1.1.1.1:1"), Timestamp: 100},
		{Addr: netip.MustParseAddrPort("2.2.2.2:2"), Timestamp: 200},
	}}
	var got Peers
	roundTrip(t, p.Encode, got.Decode)
	require.Equal(t, *p, got)
}

func TestGetPeersRoundTrip(t *testing.T) {
	g := &GetPeers{}
	var got GetPeers
	roundTrip(t, g.Encode, got.Decode)
	require.Equal(t, *g, got)
}

func TestGetBlockRoundTrip(t *testing.T) {
	var hash wire.Hash
	hash[0] = 0xaa
	g := &GetBlock{Hash: hash}
	var got GetBlock
	roundTrip(t, g.Encode, got.Decode)
	require.Equal(t, *g, got)
}

func TestBlockAndSyncBlockRoundTrip(t *testing.T) {
	b := &Block{Bytes: []byte{1, 2, 3, 4}}
	var gotB Block
	roundTrip(t, b.Encode, gotB.Decode)
	require.Equal(t, *b, gotB)

	sb := &SyncBlock{Bytes: []byte{5, 6, 7}}
	var gotSB SyncBlock
	roundTrip(t, sb.Encode, gotSB.Decode)
	require.Equal(t, *sb, gotSB)
}

func TestEmptyBlockRoundTrip(t *testing.T) {
	b := &Block{Bytes: []byte{}}
	var got Block
	roundTrip(t, b.Encode, got.Decode)
	require.Empty(t, got.Bytes)
}

func TestGetSyncAndSyncRoundTrip(t *testing.T) {
	hashes := make([]wire.Hash, 3)
	for i := range hashes {
		hashes[i][0] = byte(i + 1)
	}
	gs := &GetSync{Hashes: hashes}
	var gotGS GetSync
	roundTrip(t, gs.Encode, gotGS.Decode)
	require.Equal(t, *gs, gotGS)

	s := &Sync{Hashes: hashes}
	var gotS Sync
	roundTrip(t, s.Encode, gotS.Decode)
	require.Equal(t, *s, gotS)
}

func TestMemoryPoolRoundTrip(t *testing.T) {
	m := &MemoryPool{Txs: [][]byte{{1, 2}, {3, 4, 5}}}
	var got MemoryPool
	roundTrip(t, m.Encode, got.Decode)
	require.Equal(t, *m, got)
}

func TestGetMemoryPoolRoundTrip(t *testing.T) {
	g := &GetMemoryPool{}
	var got GetMemoryPool
	roundTrip(t, g.Encode, got.Decode)
	require.Equal(t, *g, got)
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := &Transaction{Bytes: []byte{9, 9, 9}}
	var got Transaction
	roundTrip(t, tx.Encode, got.Decode)
	require.Equal(t, *tx, got)
}
