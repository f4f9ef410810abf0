package wire

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddrRoundTripV4(t *testing.T) {
	addr := netip.MustParseAddrPort("10.0.0.5:3000")
	bw := NewBufBinWriter()
	EncodeAddr(bw.BinWriter, addr)
	require.NoError(t, bw.Error())
	require.Equal(t, AddrSize, bw.Len())

	br := NewBinReaderFromBuf(bw.Bytes())
	got := DecodeAddr(br)
	require.NoError(t, br.Err)
	require.Equal(t, addr, got)
}

func TestAddrRoundTripV6(t *testing.T) {
	addr := netip.MustParseAddrPort("[2001:db8::1]:9000")
	bw := NewBufBinWriter()
	EncodeAddr(bw.BinWriter, addr)
	require.NoError(t, bw.Error())

	br := NewBinReaderFromBuf(bw.Bytes())
	got := DecodeAddr(br)
	require.NoError(t, br.Err)
	require.Equal(t, addr, got)
}

func TestHashRoundTrip(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}
	bw := NewBufBinWriter()
	EncodeHash(bw.BinWriter, h)
	require.NoError(t, bw.Error())

	br := NewBinReaderFromBuf(bw.Bytes())
	got := DecodeHash(br)
	require.NoError(t, br.Err)
	require.Equal(t, h, got)
}
