package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnectionsStoreGetRemove(t *testing.T) {
	c := NewConnections(zap.NewNop())
	addr := mustAddrPort("1.1.1.1:1")
	server, client := net.Pipe()
	defer client.Close()
	ch := NewChannel(server)

	c.Store(addr, ch)
	require.True(t, c.Contains(addr))
	require.Equal(t, 1, c.Len())

	got, ok := c.Get(addr)
	require.True(t, ok)
	require.Same(t, ch, got)

	c.Remove(addr)
	require.False(t, c.Contains(addr))
	require.Equal(t, 0, c.Len())
}

func TestConnectionsStoreReplacesAndClosesOld(t *testing.T) {
	c := NewConnections(zap.NewNop())
	addr := mustAddrPort("1.1.1.1:1")
	s1, cl1 := net.Pipe()
	defer cl1.Close()
	s2, cl2 := net.Pipe()
	defer cl2.Close()

	ch1 := NewChannel(s1)
	ch2 := NewChannel(s2)
	c.Store(addr, ch1)
	c.Store(addr, ch2)

	got, ok := c.Get(addr)
	require.True(t, ok)
	require.Same(t, ch2, got)

	_, _, err := ch1.Read(context.Background())
	require.Error(t, err)
}

func TestConnectionsAddrs(t *testing.T) {
	c := NewConnections(zap.NewNop())
	a1, a2 := mustAddrPort("1.1.1.1:1"), mustAddrPort("2.2.2.2:2")
	s1, cl1 := net.Pipe()
	defer cl1.Close()
	s2, cl2 := net.Pipe()
	defer cl2.Close()
	c.Store(a1, NewChannel(s1))
	c.Store(a2, NewChannel(s2))

	addrs := c.Addrs()
	require.ElementsMatch(t, []interface{}{a1, a2}, []interface{}{addrs[0], addrs[1]})
}

func TestConnectionsBroadcastExcludesGivenAddr(t *testing.T) {
	c := NewConnections(zap.NewNop())
	a1, a2 := mustAddrPort("1.1.1.1:1"), mustAddrPort("2.2.2.2:2")
	s1, cl1 := net.Pipe()
	s2, cl2 := net.Pipe()
	defer s1.Close()
	defer s2.Close()
	c.Store(a1, NewChannel(s1))
	c.Store(a2, NewChannel(s2))

	done := make(chan struct{})
	go func() {
		c.Broadcast(context.Background(), a1, wire.Message{Name: wire.NameGetPeers})
		close(done)
	}()

	name, _, err := NewChannel(cl2).Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, wire.NameGetPeers, name)
	<-done

	require.NoError(t, cl1.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, _, err = NewChannel(cl1).Read(context.Background())
	require.Error(t, err)
}
