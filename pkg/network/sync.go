package network

import (
	"net/netip"
	"sync"

	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/wire"
)

// SyncState is the block-sync state machine's current phase.
type SyncState int

const (
	// Idle means no sync is in progress; any peer may initiate one.
	Idle SyncState = iota
	// Syncing means hashes have been requested from SyncNode and blocks
	// are being pulled in for them one at a time.
	Syncing
)

// SyncHandler tracks the single outstanding block-download sequence: the
// peer we are syncing from and the hashes still pending, in request
// order. Only one sync can be in progress at a time. The chosen sync
// node is recorded separately from the Syncing transition itself: it is
// adopted at handshake-completion time (before any hashes exist), and
// the caller guards against a different peer's unsolicited Sync
// response being treated as authoritative by checking SyncNode() before
// calling ReceiveHashes.
type SyncHandler struct {
	mu      sync.Mutex
	state   SyncState
	node    netip.AddrPort
	pending []wire.Hash
}

// NewSyncHandler creates an idle SyncHandler.
func NewSyncHandler() *SyncHandler {
	return &SyncHandler{state: Idle}
}

// IsSyncing reports whether a sync is currently in progress.
func (s *SyncHandler) IsSyncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Syncing
}

// SyncNode returns the peer currently designated to sync from. The zero
// value is returned when none is adopted.
func (s *SyncHandler) SyncNode() netip.AddrPort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.node
}

// AdoptNode designates node as the sync node, provided no sync is
// currently in progress. It returns false, changing nothing, if a sync
// is already underway.
func (s *SyncHandler) AdoptNode(node netip.AddrPort) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Syncing {
		return false
	}
	s.node = node
	return true
}

// ReceiveHashes resets the pending hash list to hashes and transitions
// to Syncing if it is nonempty. It is a no-op, returning false, if a
// sync is already in progress.
func (s *SyncHandler) ReceiveHashes(hashes []wire.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Syncing {
		return false
	}
	if len(hashes) == 0 {
		return true
	}
	s.state = Syncing
	s.pending = append([]wire.Hash(nil), hashes...)
	return true
}

// Increment returns the hash at the head of the pending list — the one
// to request next — or reports the sequence exhausted and transitions
// to Idle if nothing remains pending. It does not itself discard
// anything; consumed hashes are dropped by ClearPending once their
// blocks actually land in storage.
func (s *SyncHandler) Increment() (wire.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		s.state = Idle
		return wire.Hash{}, false
	}
	return s.pending[0], true
}

// ClearPending discards pending hashes whose blocks are now present in
// storage; if none remain, state returns to Idle. It does not touch the
// adopted sync node — that stays in place across a partially-drained
// batch, and across batches, until the peer disconnects or times out.
func (s *SyncHandler) ClearPending(storage ledger.Storage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, h := range s.pending {
		if !storage.BlockHashExists(h) {
			kept = append(kept, h)
		}
	}
	s.pending = kept
	if len(s.pending) == 0 {
		s.state = Idle
	}
}

// Abort unconditionally ends any in-progress sync and forgets the
// adopted node, e.g. when SyncNode disconnects or times out.
func (s *SyncHandler) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	s.node = netip.AddrPort{}
	s.pending = nil
}
