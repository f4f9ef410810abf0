package ledger

import (
	"crypto/sha256"

	"github.com/nspcc-dev/neond/pkg/io"
	"github.com/nspcc-dev/neond/pkg/wire"
)

// Header is the minimal block header the network core needs to carry
// locator/sync bookkeeping. Full block and transaction structure is out
// of scope; Block.Body holds whatever opaque payload the consensus layer
// wants to persist alongside it.
type Header struct {
	Height    uint32
	PrevHash  wire.Hash
	Timestamp int64
}

// EncodeBinary writes the header in the project's little-endian wire
// convention.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(h.Height)
	w.WriteBytes(h.PrevHash[:])
	w.WriteU64LE(uint64(h.Timestamp))
}

// DecodeBinary reads a header written by EncodeBinary.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Height = r.ReadU32LE()
	r.ReadBytes(h.PrevHash[:])
	h.Timestamp = int64(r.ReadU64LE())
}

// Block is a header plus its raw body bytes, addressed by the
// double-SHA256 of its header-plus-body encoding (the same construction
// the project uses for Uint256 block hashes, simplified since full
// transaction structure is out of scope here; Body is included because
// a block arriving over the wire carries no structured header at all,
// only opaque bytes, so the hash must still distinguish blocks that
// share a zero-value Header).
type Block struct {
	Header Header
	Body   []byte
}

// Hash returns the double-SHA256 of the block's header encoding
// followed by its length-prefixed body.
func (b *Block) Hash() wire.Hash {
	bw := io.NewBufBinWriter()
	b.Header.EncodeBinary(bw.BinWriter)
	bw.WriteVarBytes(b.Body)
	first := sha256.Sum256(bw.Bytes())
	second := sha256.Sum256(first[:])
	return wire.Hash(second)
}
