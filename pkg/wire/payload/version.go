// Package payload implements the per-variant wire payloads exchanged over
// a Channel: the version/verack handshake, ping/pong liveness, peer
// gossip, block-locator sync, and mempool/transaction relay.
package payload

import (
	"net/netip"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// Version announces protocol version, chain height, and the address each
// side believes the other is reachable at; AddrRecv is how the node
// bootstraps its own public address (see the handshake registry).
type Version struct {
	Version   uint64
	Height    uint32
	Nonce     uint64
	Timestamp int64
	AddrRecv  netip.AddrPort
	AddrSend  netip.AddrPort
	UserAgent string
}

// Encode implements the payload codec.
func (v *Version) Encode(w *wire.BinWriter) {
	w.WriteU64LE(v.Version)
	w.WriteU32LE(v.Height)
	w.WriteU64LE(v.Nonce)
	w.WriteU64LE(uint64(v.Timestamp))
	wire.EncodeAddr(w, v.AddrRecv)
	wire.EncodeAddr(w, v.AddrSend)
	w.WriteString(v.UserAgent)
}

// Decode implements the payload codec.
func (v *Version) Decode(r *wire.BinReader) {
	v.Version = r.ReadU64LE()
	v.Height = r.ReadU32LE()
	v.Nonce = r.ReadU64LE()
	v.Timestamp = int64(r.ReadU64LE())
	v.AddrRecv = wire.DecodeAddr(r)
	v.AddrSend = wire.DecodeAddr(r)
	v.UserAgent = r.ReadString()
}
