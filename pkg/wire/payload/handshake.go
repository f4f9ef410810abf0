package payload

import "github.com/nspcc-dev/neond/pkg/wire"

// Verack completes a handshake, echoing the nonce from the Version it
// answers.
type Verack struct {
	Nonce uint64
}

// Encode implements the payload codec.
func (v *Verack) Encode(w *wire.BinWriter) { w.WriteU64LE(v.Nonce) }

// Decode implements the payload codec.
func (v *Verack) Decode(r *wire.BinReader) { v.Nonce = r.ReadU64LE() }

// Ping carries a fresh nonce a peer must echo back in a matching Pong.
type Ping struct {
	Nonce uint64
}

// Encode implements the payload codec.
func (p *Ping) Encode(w *wire.BinWriter) { w.WriteU64LE(p.Nonce) }

// Decode implements the payload codec.
func (p *Ping) Decode(r *wire.BinReader) { p.Nonce = r.ReadU64LE() }

// Pong echoes a Ping's nonce.
type Pong struct {
	Nonce uint64
}

// Encode implements the payload codec.
func (p *Pong) Encode(w *wire.BinWriter) { w.WriteU64LE(p.Nonce) }

// Decode implements the payload codec.
func (p *Pong) Decode(r *wire.BinReader) { p.Nonce = r.ReadU64LE() }
