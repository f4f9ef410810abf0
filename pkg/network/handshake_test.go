package network

import (
	"net/netip"
	"testing"

	"github.com/nspcc-dev/neond/pkg/wire/payload"
	"github.com/stretchr/testify/require"
)

func TestHandshakeOutboundCompletes(t *testing.T) {
	h := NewHandshakeRegistry()
	addr := mustAddrPort("1.1.1.1:1")
	h.BeginOutbound(addr, 42, 10, mustAddrPort("5.5.5.5:5"))
	require.False(t, h.IsCompleted(addr))

	require.NoError(t, h.AcceptVerack(addr, &payload.Verack{Nonce: 42}))
	require.True(t, h.IsCompleted(addr))
}

func TestHandshakeOutboundWrongNonce(t *testing.T) {
	h := NewHandshakeRegistry()
	addr := mustAddrPort("1.1.1.1:1")
	h.BeginOutbound(addr, 42, 10, mustAddrPort("5.5.5.5:5"))

	err := h.AcceptVerack(addr, &payload.Verack{Nonce: 1})
	require.ErrorIs(t, err, ErrHandshake)
	require.False(t, h.IsCompleted(addr))
}

func TestHandshakeInboundRequest(t *testing.T) {
	h := NewHandshakeRegistry()
	addr := mustAddrPort("2.2.2.2:2")
	h.ReceiveRequest(addr, &payload.Version{Nonce: 7})
	require.False(t, h.IsCompleted(addr))

	require.NoError(t, h.AcceptVerack(addr, &payload.Verack{Nonce: 7}))
	require.True(t, h.IsCompleted(addr))
}

func TestHandshakeNoPending(t *testing.T) {
	h := NewHandshakeRegistry()
	addr := mustAddrPort("3.3.3.3:3")
	err := h.AcceptVerack(addr, &payload.Verack{Nonce: 1})
	require.ErrorIs(t, err, ErrHandshake)
}

func TestHandshakeForget(t *testing.T) {
	h := NewHandshakeRegistry()
	addr := mustAddrPort("4.4.4.4:4")
	h.BeginOutbound(addr, 1, 0, netip.AddrPort{})
	h.Forget(addr)
	require.False(t, h.IsCompleted(addr))
	err := h.AcceptVerack(addr, &payload.Verack{Nonce: 1})
	require.ErrorIs(t, err, ErrHandshake)
}
