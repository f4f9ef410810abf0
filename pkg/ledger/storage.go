package ledger

import (
	"errors"
	"net/netip"
	"time"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// ErrNotFound is returned by lookups that find nothing at the given key.
var ErrNotFound = errors.New("ledger: not found")

// Storage is the external ledger collaborator the network core consumes
// without implementing: block lookups by hash or height, the locator
// used to start a sync, and the persisted peer-book blob. Full ledger
// storage format and block validation are out of scope; this interface
// only names the surface the core actually calls.
type Storage interface {
	BlockHashExists(hash wire.Hash) bool
	GetBlock(hash wire.Hash) (*Block, error)
	GetBlockHash(height uint32) (wire.Hash, error)
	GetBlockNumber(hash wire.Hash) (uint32, error)
	GetLatestBlockHeight() uint32
	GetBlockLocatorHashes() []wire.Hash
	GetPeerBook() (map[netip.AddrPort]time.Time, error)
	PutPeerBook(map[netip.AddrPort]time.Time) error

	PutBlock(block *Block) error
	PutHeader(header *Header) error
}
