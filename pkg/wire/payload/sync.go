package payload

import "github.com/nspcc-dev/neond/pkg/wire"

// GetSync carries a block locator: an exponentially spaced list of recent
// block hashes, newest first, so the responder can find the most recent
// common ancestor cheaply.
type GetSync struct {
	Hashes []wire.Hash
}

// Encode implements the payload codec.
func (g *GetSync) Encode(w *wire.BinWriter) { encodeHashes(w, g.Hashes) }

// Decode implements the payload codec.
func (g *GetSync) Decode(r *wire.BinReader) { g.Hashes = decodeHashes(r) }

// Sync answers GetSync with the hashes of the blocks the requester is
// missing, capped at 4000 per response (enforced by the getsync handler,
// not here).
type Sync struct {
	Hashes []wire.Hash
}

// Encode implements the payload codec.
func (s *Sync) Encode(w *wire.BinWriter) { encodeHashes(w, s.Hashes) }

// Decode implements the payload codec.
func (s *Sync) Decode(r *wire.BinReader) { s.Hashes = decodeHashes(r) }

func encodeHashes(w *wire.BinWriter, hashes []wire.Hash) {
	w.WriteU32LE(uint32(len(hashes)))
	for _, h := range hashes {
		wire.EncodeHash(w, h)
	}
}

func decodeHashes(r *wire.BinReader) []wire.Hash {
	count := r.ReadU32LE()
	if r.Err != nil {
		return nil
	}
	hashes := make([]wire.Hash, 0, count)
	for i := uint32(0); i < count; i++ {
		hashes = append(hashes, wire.DecodeHash(r))
		if r.Err != nil {
			return nil
		}
	}
	return hashes
}
