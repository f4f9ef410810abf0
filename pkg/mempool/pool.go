package mempool

import (
	"crypto/sha256"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// defaultSeenCacheSize bounds the recently-seen-hash dedup cache; sized
// generously relative to MaxPeers so a full gossip burst from every
// connected peer still fits without evicting entries mid-burst.
const defaultSeenCacheSize = 8192

// Pool is the minimal mempool collaborator the network core needs:
// bounded storage for pending transactions plus a dedup cache of
// recently-seen hashes so ReceiveMemoryPool/ReceiveTransaction can
// cheaply skip already-known transactions before paying validation cost.
type Pool struct {
	mu      sync.RWMutex
	maxSize int
	txs     map[[32]byte][]byte
	order   [][32]byte
	seen    *lru.Cache
}

// NewPool creates a Pool bounded at maxSize pending transactions.
func NewPool(maxSize int) *Pool {
	cache, err := lru.New(defaultSeenCacheSize)
	if err != nil {
		panic(err)
	}
	return &Pool{
		maxSize: maxSize,
		txs:     make(map[[32]byte][]byte),
		seen:    cache,
	}
}

// Seen reports whether hash was already recorded by PoolTx; it does not
// record hash itself. It satisfies the pre-check the dedup-check open question
// calls for.
func (p *Pool) Seen(hash [32]byte) bool {
	return p.seen.Contains(hash)
}

// PoolTx records tx (keyed by its SHA-256 hash) if it is not already
// known and there is room, evicting the oldest entry when full. It
// returns false if tx was already seen, in which case the caller should
// skip it.
func (p *Pool) PoolTx(tx []byte) bool {
	hash := sha256.Sum256(tx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen.Get(hash); ok {
		return false
	}
	p.seen.Add(hash, struct{}{})

	if _, ok := p.txs[hash]; ok {
		return false
	}
	if len(p.order) >= p.maxSize && p.maxSize > 0 {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.txs, oldest)
	}
	p.txs[hash] = tx
	p.order = append(p.order, hash)
	return true
}

// Transactions returns a snapshot of all currently pooled transactions.
func (p *Pool) Transactions() [][]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([][]byte, 0, len(p.order))
	for _, h := range p.order {
		out = append(out, p.txs[h])
	}
	return out
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}
