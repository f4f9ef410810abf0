package wire

import bio "github.com/nspcc-dev/neond/pkg/io"

// BinWriter and BinReader alias the shared binary codec types so payload
// encoders/decoders in this package and its payload subpackage can refer
// to them without importing pkg/io directly under another name.
type (
	BinWriter    = bio.BinWriter
	BinReader    = bio.BinReader
	BufBinWriter = bio.BufBinWriter
)

// NewBufBinWriter and NewBinReaderFromBuf alias the pkg/io constructors
// for convenience in this package's own tests.
var (
	NewBufBinWriter    = bio.NewBufBinWriter
	NewBinReaderFromBuf = bio.NewBinReaderFromBuf
)
