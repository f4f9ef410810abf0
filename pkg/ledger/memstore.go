package ledger

import (
	"net/netip"
	"sync"
	"time"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// MemStore is an in-memory Storage implementation used by tests, the
// same role the project's own testChain fake plays for pkg/network's
// test suite.
type MemStore struct {
	mu        sync.RWMutex
	byHash    map[wire.Hash]*Block
	byHeight  map[uint32]wire.Hash
	height    uint32
	hasBlocks bool
	peerBook  map[netip.AddrPort]time.Time
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		byHash:   make(map[wire.Hash]*Block),
		byHeight: make(map[uint32]wire.Hash),
		peerBook: make(map[netip.AddrPort]time.Time),
	}
}

func (m *MemStore) BlockHashExists(hash wire.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byHash[hash]
	return ok
}

func (m *MemStore) GetBlock(hash wire.Hash) (*Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemStore) GetBlockHash(height uint32) (wire.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byHeight[height]
	if !ok {
		return wire.Hash{}, ErrNotFound
	}
	return h, nil
}

func (m *MemStore) GetBlockNumber(hash wire.Hash) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.byHash[hash]
	if !ok {
		return 0, ErrNotFound
	}
	return b.Header.Height, nil
}

func (m *MemStore) GetLatestBlockHeight() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height
}

// GetBlockLocatorHashes returns a set of hashes walking back from the
// tip: one step at a time for the first ten entries, then with a step
// that doubles after each entry (tip, tip-1, ..., tip-10, tip-12,
// tip-16, tip-24, ...), always ending at genesis. This is the same
// backoff shape as the project's own block locator construction.
func (m *MemStore) GetBlockLocatorHashes() []wire.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasBlocks {
		return nil
	}
	var out []wire.Hash
	step := uint32(1)
	height := m.height
	for {
		if h, ok := m.byHeight[height]; ok {
			out = append(out, h)
		}
		if height == 0 {
			break
		}
		if height < step {
			height = 0
			continue
		}
		height -= step
		if len(out) >= 10 {
			step *= 2
		}
	}
	return out
}

func (m *MemStore) GetPeerBook() (map[netip.AddrPort]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[netip.AddrPort]time.Time, len(m.peerBook))
	for k, v := range m.peerBook {
		out[k] = v
	}
	return out, nil
}

func (m *MemStore) PutPeerBook(book map[netip.AddrPort]time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peerBook = make(map[netip.AddrPort]time.Time, len(book))
	for k, v := range book {
		m.peerBook[k] = v
	}
	return nil
}

func (m *MemStore) PutBlock(block *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash := block.Hash()
	m.byHash[hash] = block
	m.byHeight[block.Header.Height] = hash
	m.hasBlocks = true
	if block.Header.Height >= m.height || m.height == 0 {
		m.height = block.Header.Height
	}
	return nil
}

func (m *MemStore) PutHeader(header *Header) error {
	return m.PutBlock(&Block{Header: *header})
}
