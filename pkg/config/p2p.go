package config

import "time"

// P2P holds the settings that govern the peer-to-peer networking layer:
// listen address, peer-count bounds, and the timers that drive handshake,
// ping and sync-catchup behavior.
type P2P struct {
	// ListenAddress is the local "[host]:port" the node accepts inbound
	// connections on.
	ListenAddress string `yaml:"ListenAddress"`
	// Bootnodes lists "host:port" addresses dialed on every startup,
	// whether or not the peer book holds restored addresses.
	Bootnodes []string `yaml:"Bootnodes"`
	// IsBootnode skips restoring the persisted peer book at startup. It
	// does not stop outbound dialing: Bootnodes and gossiped addresses are
	// still dialed.
	IsBootnode bool `yaml:"IsBootnode"`
	// MaxPeers is the hard cap on simultaneously connected peers; the
	// acceptor rejects inbound connections once it is reached.
	MaxPeers int `yaml:"MaxPeers"`
	// MinPeers is the floor below which startup dials addresses from the
	// gossiped set; periodic maintenance replenishes toward MaxPeers.
	MinPeers int `yaml:"MinPeers"`
	// ConnectionFrequency is how often periodic maintenance runs (ping
	// sweep, dropping peers with expired pings, dialing gossiped
	// addresses, persisting the peer book).
	ConnectionFrequency time.Duration `yaml:"ConnectionFrequency"`
	// DialTimeout bounds a single outbound TCP dial attempt.
	DialTimeout time.Duration `yaml:"DialTimeout"`
	// HandshakeTimeout bounds the version/verack exchange for a single
	// connection before it is abandoned.
	HandshakeTimeout time.Duration `yaml:"HandshakeTimeout"`
	// PingInterval is not read by the networking layer; pings go out to
	// every connected peer once per ConnectionFrequency tick.
	PingInterval time.Duration `yaml:"PingInterval"`
	// PingTimeout bounds how long a ping may go unanswered before the
	// peer is dropped by periodic maintenance; a later pong is rejected.
	PingTimeout time.Duration `yaml:"PingTimeout"`
	// MempoolInterval is the spacing between unsolicited GetMemoryPool
	// requests sent to a random connected peer.
	MempoolInterval time.Duration `yaml:"MempoolInterval"`
	// MaxFailures is the number of failed reads a peer's reader tolerates
	// before the peer is disconnected and moved to the disconnected set.
	MaxFailures int `yaml:"MaxFailures"`
}
