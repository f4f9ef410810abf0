package wire

import "net/netip"

// AddrSize is the wire size of a PeerAddr: a 1-byte family tag, 16 bytes
// of address (zero-padded for IPv4), and a big-endian port.
const AddrSize = 17

// EncodeAddr writes addr in its 17-byte wire form. Port and the raw
// address bytes are big-endian/network order, unlike the rest of the
// protocol's little-endian integers.
func EncodeAddr(w *BinWriter, addr netip.AddrPort) {
	a := addr.Addr()
	var tag byte = 4
	var raw [16]byte
	if a.Is4() || a.Is4In6() {
		b := a.As4()
		copy(raw[:4], b[:])
	} else {
		tag = 6
		raw = a.As16()
	}
	w.WriteB(tag)
	w.WriteBytes(raw[:])
	w.WriteU16BE(addr.Port())
}

// DecodeAddr reads the 17-byte wire form written by EncodeAddr.
func DecodeAddr(r *BinReader) netip.AddrPort {
	tag := r.ReadB()
	var raw [16]byte
	r.ReadBytes(raw[:])
	port := r.ReadU16BE()
	if r.Err != nil {
		return netip.AddrPort{}
	}
	var a netip.Addr
	if tag == 4 {
		var b [4]byte
		copy(b[:], raw[:4])
		a = netip.AddrFrom4(b)
	} else {
		a = netip.AddrFrom16(raw)
	}
	return netip.AddrPortFrom(a, port)
}

// Hash32Size is the width of a block hash on the wire.
const Hash32Size = 32

// Hash identifies a block by its header hash.
type Hash [Hash32Size]byte

// EncodeHash writes h verbatim.
func EncodeHash(w *BinWriter, h Hash) {
	w.WriteBytes(h[:])
}

// DecodeHash reads a Hash written by EncodeHash.
func DecodeHash(r *BinReader) Hash {
	var h Hash
	r.ReadBytes(h[:])
	return h
}
