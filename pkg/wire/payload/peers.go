package payload

import (
	"net/netip"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// GetPeers requests the responder's connected-peer set; it carries no
// payload.
type GetPeers struct{}

// Encode implements the payload codec.
func (*GetPeers) Encode(*wire.BinWriter) {}

// Decode implements the payload codec.
func (*GetPeers) Decode(*wire.BinReader) {}

// PeerEntry is one gossiped address and the timestamp it was last seen
// connected at.
type PeerEntry struct {
	Addr      netip.AddrPort
	Timestamp int64
}

// Peers answers GetPeers with the responder's known addresses.
type Peers struct {
	Addrs []PeerEntry
}

// Encode implements the payload codec.
func (p *Peers) Encode(w *wire.BinWriter) {
	w.WriteU32LE(uint32(len(p.Addrs)))
	for _, e := range p.Addrs {
		wire.EncodeAddr(w, e.Addr)
		w.WriteU64LE(uint64(e.Timestamp))
	}
}

// Decode implements the payload codec.
func (p *Peers) Decode(r *wire.BinReader) {
	count := r.ReadU32LE()
	if r.Err != nil {
		return
	}
	entries := make([]PeerEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		addr := wire.DecodeAddr(r)
		ts := int64(r.ReadU64LE())
		if r.Err != nil {
			return
		}
		entries = append(entries, PeerEntry{Addr: addr, Timestamp: ts})
	}
	p.Addrs = entries
}
