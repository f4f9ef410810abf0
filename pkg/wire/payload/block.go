package payload

import "github.com/nspcc-dev/neond/pkg/wire"

// GetBlock requests a single block by hash.
type GetBlock struct {
	Hash wire.Hash
}

// Encode implements the payload codec.
func (g *GetBlock) Encode(w *wire.BinWriter) { wire.EncodeHash(w, g.Hash) }

// Decode implements the payload codec.
func (g *GetBlock) Decode(r *wire.BinReader) { g.Hash = wire.DecodeHash(r) }

// Block carries an opaque, already-encoded block. Block bodies are a
// Non-goal here: the core treats them as bytes plus a hash.
type Block struct {
	Bytes []byte
}

// Encode implements the payload codec.
func (b *Block) Encode(w *wire.BinWriter) { encodeLenPrefixed(w, b.Bytes) }

// Decode implements the payload codec.
func (b *Block) Decode(r *wire.BinReader) { b.Bytes = decodeLenPrefixed(r) }

// SyncBlock carries a block delivered in answer to a sync-mode GetBlock;
// it is handled like Block but never triggers propagation (see the
// central handler's block-receipt rule).
type SyncBlock struct {
	Bytes []byte
}

// Encode implements the payload codec.
func (b *SyncBlock) Encode(w *wire.BinWriter) { encodeLenPrefixed(w, b.Bytes) }

// Decode implements the payload codec.
func (b *SyncBlock) Decode(r *wire.BinReader) { b.Bytes = decodeLenPrefixed(r) }

func encodeLenPrefixed(w *wire.BinWriter, b []byte) {
	w.WriteU32LE(uint32(len(b)))
	w.WriteBytes(b)
}

func decodeLenPrefixed(r *wire.BinReader) []byte {
	n := r.ReadU32LE()
	if r.Err != nil {
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	if r.Err != nil {
		return nil
	}
	return b
}
