package consensus

import (
	"github.com/nspcc-dev/neond/pkg/ledger"
	"github.com/nspcc-dev/neond/pkg/mempool"
)

// Parameters stands in for the DPC public parameters the real consensus
// protocol would need; full consensus is out of scope here, so it
// carries no fields.
type Parameters struct{}

// Consensus is the external collaborator that validates and admits a
// newly received block. Full block validation, transaction cryptography
// and the dBFT protocol itself are out of scope; implementations are
// expected to persist accepted blocks into storage.
type Consensus interface {
	ReceiveBlock(params *Parameters, storage ledger.Storage, pool *mempool.Pool, block *ledger.Block) error
}

// AcceptAllConsensus is a reference Consensus implementation used by the
// runnable binary and by tests: it accepts every block that is not
// already known and persists it into storage unconditionally.
type AcceptAllConsensus struct{}

// ReceiveBlock persists block into storage unless its hash already
// exists there.
func (AcceptAllConsensus) ReceiveBlock(_ *Parameters, storage ledger.Storage, _ *mempool.Pool, block *ledger.Block) error {
	if storage.BlockHashExists(block.Hash()) {
		return nil
	}
	return storage.PutBlock(block)
}
