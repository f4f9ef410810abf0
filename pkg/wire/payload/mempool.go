package payload

import "github.com/nspcc-dev/neond/pkg/wire"

// GetMemoryPool requests every transaction currently pooled by the
// responder; it carries no payload.
type GetMemoryPool struct{}

// Encode implements the payload codec.
func (*GetMemoryPool) Encode(*wire.BinWriter) {}

// Decode implements the payload codec.
func (*GetMemoryPool) Decode(*wire.BinReader) {}

// MemoryPool answers GetMemoryPool with the responder's pooled
// transactions, each as an opaque length-prefixed blob.
type MemoryPool struct {
	Txs [][]byte
}

// Encode implements the payload codec.
func (m *MemoryPool) Encode(w *wire.BinWriter) {
	w.WriteU32LE(uint32(len(m.Txs)))
	for _, tx := range m.Txs {
		encodeLenPrefixed(w, tx)
	}
}

// Decode implements the payload codec.
func (m *MemoryPool) Decode(r *wire.BinReader) {
	count := r.ReadU32LE()
	if r.Err != nil {
		return
	}
	txs := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		tx := decodeLenPrefixed(r)
		if r.Err != nil {
			return
		}
		txs = append(txs, tx)
	}
	m.Txs = txs
}

// Transaction relays a single unconfirmed transaction.
type Transaction struct {
	Bytes []byte
}

// Encode implements the payload codec.
func (t *Transaction) Encode(w *wire.BinWriter) { encodeLenPrefixed(w, t.Bytes) }

// Decode implements the payload codec.
func (t *Transaction) Decode(r *wire.BinReader) { t.Bytes = decodeLenPrefixed(r) }
