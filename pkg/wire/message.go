// Package wire implements the peer-to-peer message envelope: a fixed
// 16-byte name, a big-endian length prefix, and the variant-specific
// payload (see package payload). It never allocates beyond the declared
// payload length when decoding.
package wire

import (
	"errors"
	"fmt"
	"io"
	"strings"

	bio "github.com/nspcc-dev/neond/pkg/io"
)

// NameSize is the fixed width of a MessageName on the wire, wide enough
// to hold the longest variant name ("getmemorypool", 13 bytes) with NUL
// padding to spare.
const NameSize = 16

// MaxPayloadSize bounds the length prefix accepted from a remote peer,
// guarding against a hostile or corrupt length field forcing a huge
// allocation before the payload is even validated.
const MaxPayloadSize = 32 * 1024 * 1024

// ErrInvalidFormat is returned for a truncated envelope, a length prefix
// that exceeds MaxPayloadSize, or (from payload decoders) a payload whose
// length doesn't match what the variant expects.
var ErrInvalidFormat = errors.New("wire: invalid message format")

// MessageName is the fixed NameSize-byte ASCII tag identifying a message
// variant; it is compared by value.
type MessageName [NameSize]byte

// NewMessageName builds a MessageName from s, NUL-padding it to NameSize.
// It panics if s is longer than NameSize; all names used by this package
// are compile-time constants, so that can only indicate a bug here.
func NewMessageName(s string) MessageName {
	if len(s) > NameSize {
		panic(fmt.Sprintf("wire: message name %q exceeds %d bytes", s, NameSize))
	}
	var n MessageName
	copy(n[:], s)
	return n
}

// String returns the name with trailing NUL padding trimmed.
func (n MessageName) String() string {
	return strings.TrimRight(string(n[:]), "\x00")
}

// Known message names. Disconnect is synthetic: it is never encoded onto
// the wire, only passed internally from a reader to the central handler
// to signal that the peer's stream has failed.
var (
	NameVersion       = NewMessageName("version")
	NameVerack        = NewMessageName("verack")
	NamePing          = NewMessageName("ping")
	NamePong          = NewMessageName("pong")
	NameGetPeers      = NewMessageName("getpeers")
	NamePeers         = NewMessageName("peers")
	NameGetBlock      = NewMessageName("getblock")
	NameBlock         = NewMessageName("block")
	NameSyncBlock     = NewMessageName("syncblock")
	NameGetSync       = NewMessageName("getsync")
	NameSync          = NewMessageName("sync")
	NameGetMemoryPool = NewMessageName("getmemorypool")
	NameMemoryPool    = NewMessageName("memorypool")
	NameTransaction   = NewMessageName("transaction")
	NameDisconnect    = NewMessageName("disconnect")
)

var knownNames = map[MessageName]bool{
	NameVersion: true, NameVerack: true, NamePing: true, NamePong: true,
	NameGetPeers: true, NamePeers: true, NameGetBlock: true, NameBlock: true,
	NameSyncBlock: true, NameGetSync: true, NameSync: true,
	NameGetMemoryPool: true, NameMemoryPool: true, NameTransaction: true,
}

// IsKnown reports whether name is one of the wire-encodable variants this
// package recognizes. NameDisconnect is deliberately excluded: it never
// appears on the wire.
func IsKnown(name MessageName) bool {
	return knownNames[name]
}

// Message pairs a MessageName with its encoded payload, the unit a
// Channel reads and writes.
type Message struct {
	Name    MessageName
	Payload []byte
}

// WriteMessage frames payload under name and writes it to w.
func WriteMessage(w io.Writer, name MessageName, payload []byte) error {
	bw := bio.NewBinWriterFromIO(w)
	bw.WriteBytes(name[:])
	bw.WriteU32BE(uint32(len(payload)))
	bw.WriteBytes(payload)
	return bw.Error()
}

// ReadMessage blocks until a full framed message has arrived on r, or
// fails with ErrInvalidFormat on truncation or an oversized length
// prefix. The returned payload slice is exactly the declared length;
// ReadMessage never reads or allocates more than that.
func ReadMessage(r io.Reader) (MessageName, []byte, error) {
	br := bio.NewBinReaderFromIO(r)
	var name MessageName
	br.ReadBytes(name[:])
	if br.Err != nil {
		return MessageName{}, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, br.Err)
	}
	length := br.ReadU32BE()
	if br.Err != nil {
		return MessageName{}, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, br.Err)
	}
	if length > MaxPayloadSize {
		return MessageName{}, nil, fmt.Errorf("%w: payload length %d exceeds maximum %d", ErrInvalidFormat, length, MaxPayloadSize)
	}
	payload := make([]byte, length)
	br.ReadBytes(payload)
	if br.Err != nil {
		return MessageName{}, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, br.Err)
	}
	return name, payload, nil
}
