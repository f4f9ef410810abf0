package network

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nspcc-dev/neond/internal/random"
	"github.com/nspcc-dev/neond/pkg/config"
	"github.com/nspcc-dev/neond/pkg/consensus"
	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/mempool"
	"github.com/nspcc-dev/neond/pkg/metrics"
	"github.com/nspcc-dev/neond/pkg/wire"
	"github.com/nspcc-dev/neond/pkg/wire/payload"
)

// inboundQueueCapacity bounds the central handler's MPSC; once full,
// reader goroutines block on send, naturally throttling fast peers.
const inboundQueueCapacity = 1024

// maxSyncBatch is the largest number of hashes a single Sync response
// may carry.
const maxSyncBatch = 4000

// Server is the Context of the networking core: it owns every
// collaborator (PeerBook, Connections, Handshakes, Pings, SyncHandler)
// plus the external collaborators (Storage, Consensus, Mempool) and
// drives the acceptor, central handler and maintenance tasks.
type Server struct {
	cfg    config.P2P
	log    *zap.Logger
	params *consensus.Parameters

	storage   ledger.Storage
	consensus consensus.Consensus
	pool      *mempool.Pool
	metrics   *metrics.Collector

	peerBook    *PeerBook
	connections *Connections
	handshakes  *HandshakeRegistry
	pings       *PingRegistry
	syncHandler *SyncHandler

	localAddrMu sync.RWMutex
	localAddr   netip.AddrPort

	inbound chan *inboundMessage

	listener net.Listener
	ready    chan struct{}
	group    *errgroup.Group
}

// New builds a Server around its collaborators. The Server does not
// start listening or dialing until Run is called.
func New(cfg config.P2P, log *zap.Logger, storage ledger.Storage, pool *mempool.Pool, cons consensus.Consensus, mcol *metrics.Collector) *Server {
	return &Server{
		cfg:         cfg,
		log:         log,
		params:      &consensus.Parameters{},
		storage:     storage,
		consensus:   cons,
		pool:        pool,
		metrics:     mcol,
		peerBook:    NewPeerBook(cfg.MaxPeers),
		connections: NewConnections(log),
		handshakes:  NewHandshakeRegistry(),
		pings:       NewPingRegistry(cfg.PingTimeout),
		syncHandler: NewSyncHandler(),
		inbound:     make(chan *inboundMessage, inboundQueueCapacity),
		ready:       make(chan struct{}),
	}
}

// Run opens the listener, restores persisted peer-book state, and
// blocks running the acceptor, central handler and maintenance loop
// until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return err
	}
	s.listener = ln
	close(s.ready)
	s.log.Info("listening", zap.String("address", ln.Addr().String()))

	if !s.cfg.IsBootnode {
		s.restorePeerBook()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	s.group = group
	group.Go(func() error { s.centralHandler(groupCtx); return nil })
	group.Go(func() error { s.acceptLoop(groupCtx); return nil })
	group.Go(func() error { s.maintenanceLoop(groupCtx); return nil })

	s.connectBootnodes(groupCtx)
	s.connectStoredPeers(groupCtx)

	<-ctx.Done()
	_ = s.listener.Close()
	s.persistPeerBook()
	return group.Wait()
}

func (s *Server) restorePeerBook() {
	book, err := s.storage.GetPeerBook()
	if err != nil {
		s.log.Warn("failed to restore peer book", zap.Error(err))
		return
	}
	s.peerBook.Seed(book)
	s.log.Info("restored peer book", zap.Int("count", len(book)))
}

func (s *Server) persistPeerBook() {
	if err := s.storage.PutPeerBook(s.peerBook.Snapshot()); err != nil {
		s.log.Warn("failed to persist peer book", zap.Error(err))
	}
}

func (s *Server) setLocalAddr(addr netip.AddrPort) {
	s.localAddrMu.Lock()
	defer s.localAddrMu.Unlock()
	if s.localAddr == addr {
		return
	}
	old := s.localAddr
	s.localAddr = addr
	s.log.Info("self address discovered", zap.Stringer("old", old), zap.Stringer("new", addr))
}

func (s *Server) getLocalAddr() netip.AddrPort {
	s.localAddrMu.RLock()
	defer s.localAddrMu.RUnlock()
	return s.localAddr
}

// acceptLoop accepts inbound TCP connections, enforcing the peer cap
// before running the inbound handshake.
func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Debug("accept error", zap.Error(err))
			continue
		}
		if s.peerBook.ConnectedTotal() >= s.peerBook.MaxPeers() {
			s.log.Debug("rejecting inbound connection, at capacity", zap.String("remote", conn.RemoteAddr().String()))
			if tc, ok := conn.(*net.TCPConn); ok {
				_ = tc.CloseWrite()
			}
			_ = conn.Close()
			continue
		}
		go s.handleInbound(ctx, conn)
	}
}

func (s *Server) handleInbound(ctx context.Context, conn net.Conn) {
	hctx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer cancel()

	ch := NewChannel(conn)
	addr, receiverAddr, peerVersion, err := s.inboundHandshake(hctx, ch)
	if err != nil {
		s.log.Debug("inbound handshake failed", zap.Error(err))
		_ = ch.Close()
		return
	}
	s.admitPeer(ctx, addr, receiverAddr, ch, peerVersion)
}

// inboundHandshake runs the responder side of the two-party handshake:
// receive Version, reply Verack+Version, receive peer's Verack.
func (s *Server) inboundHandshake(ctx context.Context, ch *Channel) (netip.AddrPort, netip.AddrPort, *payload.Version, error) {
	name, raw, err := ch.Read(ctx)
	if err != nil {
		return netip.AddrPort{}, netip.AddrPort{}, nil, err
	}
	if name != wire.NameVersion {
		return netip.AddrPort{}, netip.AddrPort{}, nil, ErrHandshake
	}
	var v payload.Version
	v.Decode(wire.NewBinReaderFromBuf(raw))

	addr := ch.Addr()
	ch.SetAddr(netip.AddrPortFrom(addr.Addr(), v.AddrSend.Port()))
	addr = ch.Addr()

	s.handshakes.ReceiveRequest(addr, &v)

	if err := ch.Write(ctx, wire.Message{Name: wire.NameVerack, Payload: encodePayload(&payload.Verack{Nonce: v.Nonce})}); err != nil {
		return netip.AddrPort{}, netip.AddrPort{}, nil, err
	}
	ourVersion := s.buildVersion(addr)
	// The peer's Verack echoes the nonce of our Version and the registry
	// awaits v.Nonce, so our Version carries the peer's nonce.
	ourVersion.Nonce = v.Nonce
	if err := ch.Write(ctx, wire.Message{Name: wire.NameVersion, Payload: encodePayload(ourVersion)}); err != nil {
		return netip.AddrPort{}, netip.AddrPort{}, nil, err
	}

	name, raw, err = ch.Read(ctx)
	if err != nil {
		return netip.AddrPort{}, netip.AddrPort{}, nil, err
	}
	if name != wire.NameVerack {
		return netip.AddrPort{}, netip.AddrPort{}, nil, ErrHandshake
	}
	var peerVerack payload.Verack
	peerVerack.Decode(wire.NewBinReaderFromBuf(raw))
	if err := s.handshakes.AcceptVerack(addr, &peerVerack); err != nil {
		return netip.AddrPort{}, netip.AddrPort{}, nil, err
	}
	s.handshakes.Forget(addr)

	return addr, v.AddrRecv, &v, nil
}

// outboundHandshake runs the initiator side: send Version, receive the
// peer's Verack and Version in either order, reply with our Verack.
func (s *Server) outboundHandshake(ctx context.Context, ch *Channel) (netip.AddrPort, *payload.Version, error) {
	addr := ch.Addr()
	nonce := random.Uint64()
	s.handshakes.BeginOutbound(addr, nonce, s.storage.GetLatestBlockHeight(), s.getLocalAddr())

	ourVersion := s.buildVersion(addr)
	ourVersion.Nonce = nonce
	if err := ch.Write(ctx, wire.Message{Name: wire.NameVersion, Payload: encodePayload(ourVersion)}); err != nil {
		return netip.AddrPort{}, nil, err
	}

	var peerVersion *payload.Version
	var verackSeen bool
	for !verackSeen || peerVersion == nil {
		name, raw, err := ch.Read(ctx)
		if err != nil {
			return netip.AddrPort{}, nil, err
		}
		switch name {
		case wire.NameVersion:
			var v payload.Version
			v.Decode(wire.NewBinReaderFromBuf(raw))
			peerVersion = &v
		case wire.NameVerack:
			var va payload.Verack
			va.Decode(wire.NewBinReaderFromBuf(raw))
			if err := s.handshakes.AcceptVerack(addr, &va); err != nil {
				return netip.AddrPort{}, nil, err
			}
			verackSeen = true
		default:
			return netip.AddrPort{}, nil, ErrHandshake
		}
	}
	s.handshakes.Forget(addr)

	if err := ch.Write(ctx, wire.Message{Name: wire.NameVerack, Payload: encodePayload(&payload.Verack{Nonce: peerVersion.Nonce})}); err != nil {
		return netip.AddrPort{}, nil, err
	}
	return addr, peerVersion, nil
}

func (s *Server) buildVersion(peerAddr netip.AddrPort) *payload.Version {
	return &payload.Version{
		Version:   1,
		Height:    s.storage.GetLatestBlockHeight(),
		Nonce:     random.Uint64(),
		Timestamp: time.Now().Unix(),
		AddrRecv:  peerAddr,
		AddrSend:  s.getLocalAddr(),
	}
}

// admitPeer finalizes a completed handshake: self-address discovery,
// connection-table/peer-book admission, sync-node adoption, and
// spawning the per-peer reader.
func (s *Server) admitPeer(ctx context.Context, addr, receiverAddr netip.AddrPort, ch *Channel, peerVersion *payload.Version) {
	if receiverAddr.IsValid() && receiverAddr != s.getLocalAddr() {
		s.setLocalAddr(receiverAddr)
		s.peerBook.ForgetPeer(receiverAddr)
	}

	s.connections.Store(addr, ch)
	s.peerBook.UpdateConnected(addr, time.Now())
	if s.metrics != nil {
		s.reportMetrics()
	}
	s.log.Info("peer connected", zap.Stringer("addr", addr))

	if peerVersion != nil && peerVersion.Height > s.storage.GetLatestBlockHeight() && !s.syncHandler.IsSyncing() {
		s.adoptSyncNode(ctx, addr)
	}

	r := &peerReader{addr: addr, ch: ch, out: s.inbound, log: s.log, maxFailures: s.cfg.MaxFailures}
	s.group.Go(func() error { r.run(ctx); return nil })
}

func (s *Server) adoptSyncNode(ctx context.Context, addr netip.AddrPort) {
	if !s.syncHandler.AdoptNode(addr) {
		return
	}
	ch, ok := s.connections.Get(addr)
	if !ok {
		return
	}
	locator := s.storage.GetBlockLocatorHashes()
	msg := &payload.GetSync{Hashes: locator}
	if err := ch.Write(ctx, wire.Message{Name: wire.NameGetSync, Payload: encodePayload(msg)}); err != nil {
		s.log.Debug("failed to send getsync", zap.Error(err))
	}
}

func (s *Server) reportMetrics() {
	connected := s.peerBook.ConnectedTotal()
	gossiped := len(s.peerBook.GetGossiped())
	s.peerBook.mu.RLock()
	disconnected := len(s.peerBook.disconnected)
	s.peerBook.mu.RUnlock()
	s.metrics.SetPeerCounts(connected, gossiped, disconnected)
	s.metrics.SetSyncing(s.syncHandler.IsSyncing())
}

// connectBootnodes dials every configured bootnode on startup.
func (s *Server) connectBootnodes(ctx context.Context) {
	for _, addr := range s.cfg.Bootnodes {
		go s.dial(ctx, addr)
	}
}

// connectStoredPeers dials gossiped addresses toward MinPeers.
func (s *Server) connectStoredPeers(ctx context.Context) {
	if s.peerBook.ConnectedTotal() >= s.cfg.MinPeers {
		return
	}
	for addr := range s.peerBook.GetGossiped() {
		if s.peerBook.ConnectedTotal() >= s.cfg.MinPeers {
			return
		}
		go s.dial(ctx, addr.String())
	}
}

func (s *Server) dial(ctx context.Context, hostport string) {
	dctx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", hostport)
	if err != nil {
		s.log.Debug("dial failed", zap.String("address", hostport), zap.Error(err))
		return
	}

	hctx, hcancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer hcancel()

	ch := NewChannel(conn)
	addr, peerVersion, err := s.outboundHandshake(hctx, ch)
	if err != nil {
		s.log.Debug("outbound handshake failed", zap.String("address", hostport), zap.Error(err))
		_ = ch.Close()
		return
	}
	s.admitPeer(ctx, addr, netip.AddrPort{}, ch, peerVersion)
}

// Addr blocks until the listener is open and returns its address. It is
// meant for tests and for a caller that dialed ":0" and needs the
// assigned port.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.listener.Addr()
}

// Shutdown stops accepting new connections. Run's deferred cleanup still
// runs when its ctx is canceled; Shutdown is for closing the listener
// early while leaving existing connections intact.
func (s *Server) Shutdown() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}
