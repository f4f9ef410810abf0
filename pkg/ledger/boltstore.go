package ledger

import (
	"net/netip"
	"time"

	"go.etcd.io/bbolt"

	"github.com/nspcc-dev/neond/pkg/io"
	"github.com/nspcc-dev/neond/pkg/wire"
)

var (
	bucketBlocks  = []byte("blocks")
	bucketHeights = []byte("heights")
	bucketMeta    = []byte("meta")

	keyLatestHeight = []byte("latest_height")
	keyPeerBook     = []byte("peer_book")
)

// BoltStore is a bbolt-backed Storage: it persists the block index (by
// hash and by height) and the peer-book blob named in the persisted
// state, the one slice of the otherwise out-of-scope ledger the network
// core needs a real backing store for.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if absent) a bbolt database at path and
// ensures its buckets exist.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := io.MakeDirForFile(path, "bolt store"); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketHeights, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) BlockHashExists(hash wire.Hash) bool {
	var exists bool
	_ = s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(bucketBlocks).Get(hash[:]) != nil
		return nil
	})
	return exists
}

func (s *BoltStore) GetBlock(hash wire.Hash) (*Block, error) {
	var block *Block
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketBlocks).Get(hash[:])
		if raw == nil {
			return ErrNotFound
		}
		block = decodeBlock(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (s *BoltStore) GetBlockHash(height uint32) (wire.Hash, error) {
	var hash wire.Hash
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketHeights).Get(heightKey(height))
		if raw == nil {
			return ErrNotFound
		}
		copy(hash[:], raw)
		return nil
	})
	return hash, err
}

func (s *BoltStore) GetBlockNumber(hash wire.Hash) (uint32, error) {
	block, err := s.GetBlock(hash)
	if err != nil {
		return 0, err
	}
	return block.Header.Height, nil
}

func (s *BoltStore) GetLatestBlockHeight() uint32 {
	var height uint32
	_ = s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyLatestHeight)
		if raw == nil || len(raw) < 4 {
			return nil
		}
		r := io.NewBinReaderFromBuf(raw)
		height = r.ReadU32LE()
		return nil
	})
	return height
}

func (s *BoltStore) GetBlockLocatorHashes() []wire.Hash {
	height := s.GetLatestBlockHeight()
	if height == 0 {
		if _, err := s.GetBlockHash(0); err != nil {
			return nil
		}
	}
	var out []wire.Hash
	step := uint32(1)
	h := height
	for {
		if hash, err := s.GetBlockHash(h); err == nil {
			out = append(out, hash)
		}
		if h == 0 {
			break
		}
		if h < step {
			h = 0
			continue
		}
		h -= step
		if len(out) >= 10 {
			step *= 2
		}
	}
	return out
}

func (s *BoltStore) GetPeerBook() (map[netip.AddrPort]time.Time, error) {
	book := make(map[netip.AddrPort]time.Time)
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketMeta).Get(keyPeerBook)
		if raw == nil {
			return nil
		}
		r := io.NewBinReaderFromBuf(raw)
		count := r.ReadVarUint()
		for i := uint64(0); i < count; i++ {
			addr := wire.DecodeAddr(r)
			ts := int64(r.ReadU64LE())
			if r.Err != nil {
				return r.Err
			}
			book[addr] = time.Unix(ts, 0).UTC()
		}
		return r.Err
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BoltStore) PutPeerBook(book map[netip.AddrPort]time.Time) error {
	bw := io.NewBufBinWriter()
	bw.WriteVarUint(uint64(len(book)))
	for addr, ts := range book {
		wire.EncodeAddr(bw.BinWriter, addr)
		bw.WriteU64LE(uint64(ts.Unix()))
	}
	if bw.Error() != nil {
		return bw.Error()
	}
	raw := bw.Bytes()
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyPeerBook, raw)
	})
}

func (s *BoltStore) PutBlock(block *Block) error {
	raw := encodeBlock(block)
	hash := block.Hash()
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketBlocks).Put(hash[:], raw); err != nil {
			return err
		}
		if err := tx.Bucket(bucketHeights).Put(heightKey(block.Header.Height), hash[:]); err != nil {
			return err
		}
		raw := tx.Bucket(bucketMeta).Get(keyLatestHeight)
		var cur uint32
		if len(raw) >= 4 {
			cur = io.NewBinReaderFromBuf(raw).ReadU32LE()
		}
		if block.Header.Height >= cur {
			bw := io.NewBufBinWriter()
			bw.WriteU32LE(block.Header.Height)
			if err := tx.Bucket(bucketMeta).Put(keyLatestHeight, bw.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) PutHeader(header *Header) error {
	return s.PutBlock(&Block{Header: *header})
}

func heightKey(height uint32) []byte {
	bw := io.NewBufBinWriter()
	bw.WriteU32LE(height)
	return bw.Bytes()
}

func encodeBlock(b *Block) []byte {
	bw := io.NewBufBinWriter()
	b.Header.EncodeBinary(bw.BinWriter)
	bw.WriteVarBytes(b.Body)
	return bw.Bytes()
}

func decodeBlock(raw []byte) *Block {
	r := io.NewBinReaderFromBuf(raw)
	var b Block
	b.Header.DecodeBinary(r)
	b.Body = r.ReadVarBytes()
	return &b
}
