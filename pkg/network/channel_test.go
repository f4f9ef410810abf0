package network

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/stretchr/testify/require"
)

func mustAddrPort(s string) netip.AddrPort {
	return netip.MustParseAddrPort(s)
}

func TestChannelWriteRead(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sch := NewChannel(server)
	cch := NewChannel(client)

	go func() {
		_ = sch.Write(context.Background(), wire.Message{Name: wire.NamePing, Payload: []byte{1, 2, 3}})
	}()

	name, payload, err := cch.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, wire.NamePing, name)
	require.Equal(t, []byte{1, 2, 3}, payload)
}

func TestChannelReadDisconnected(t *testing.T) {
	server, client := net.Pipe()
	cch := NewChannel(client)
	require.NoError(t, server.Close())

	_, _, err := cch.Read(context.Background())
	require.ErrorIs(t, err, ErrPeerDisconnected)
}

func TestChannelReadContextCanceled(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	cch := NewChannel(client)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := cch.Read(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelAddr(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	ch := NewChannel(server)
	// net.Pipe endpoints report a synthetic "pipe" address that doesn't
	// parse as an AddrPort; SetAddr is how real TCP connections and
	// tests alike establish the address a Channel is known by.
	ch.SetAddr(mustAddrPort("127.0.0.1:4000"))
	require.Equal(t, mustAddrPort("127.0.0.1:4000"), ch.Addr())
}
