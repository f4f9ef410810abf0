package network

import (
	"context"
	"testing"
	"time"

	"github.com/nspcc-dev/neond/pkg/config"
	"github.com/nspcc-dev/neond/pkg/consensus"
	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/mempool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, cfg config.P2P) *Server {
	t.Helper()
	store := ledger.NewMemStore()
	pool := mempool.NewPool(100)
	return New(cfg, zaptest.NewLogger(t), store, pool, consensus.AcceptAllConsensus{}, nil)
}

func baseTestConfig() config.P2P {
	return config.P2P{
		ListenAddress:       "127.0.0.1:0",
		MaxPeers:            10,
		MinPeers:            0,
		ConnectionFrequency: time.Hour,
		DialTimeout:         2 * time.Second,
		HandshakeTimeout:    2 * time.Second,
		PingInterval:        time.Minute,
		PingTimeout:         time.Minute,
		IsBootnode:          true,
	}
}

func TestServerHandshakeAndAdmission(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newTestServer(t, baseTestConfig())
	go a.Run(ctx)

	cfgB := baseTestConfig()
	cfgB.Bootnodes = []string{a.Addr().String()}
	b := newTestServer(t, cfgB)
	go b.Run(ctx)

	require.Eventually(t, func() bool {
		return a.connections.Len() == 1 && b.connections.Len() == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.Equal(t, 1, a.peerBook.ConnectedTotal())
	require.Equal(t, 1, b.peerBook.ConnectedTotal())
}

func TestServerRejectsAtCapacity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgA := baseTestConfig()
	cfgA.MaxPeers = 0
	a := newTestServer(t, cfgA)
	go a.Run(ctx)

	cfgB := baseTestConfig()
	cfgB.Bootnodes = []string{a.Addr().String()}
	b := newTestServer(t, cfgB)
	go b.Run(ctx)

	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 0, a.connections.Len())
	require.Equal(t, 0, b.connections.Len())
}

func TestServerDisconnectRemovesPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := newTestServer(t, baseTestConfig())
	go a.Run(ctx)

	cfgB := baseTestConfig()
	cfgB.Bootnodes = []string{a.Addr().String()}
	b := newTestServer(t, cfgB)
	go b.Run(ctx)

	require.Eventually(t, func() bool {
		return a.connections.Len() == 1 && b.connections.Len() == 1
	}, 2*time.Second, 20*time.Millisecond)

	for addr := range b.connections.m {
		b.connections.Remove(addr)
	}

	require.Eventually(t, func() bool {
		return a.connections.Len() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
