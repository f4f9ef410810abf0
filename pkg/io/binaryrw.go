// Package io implements the binary (de)serialization primitives used
// throughout the wire protocol: fixed-width integers in both endiannesses,
// length-prefixed byte strings, and reflection-driven helpers for arrays of
// Serializable elements. Errors accumulate on the reader/writer instead of
// being returned from every call, mirroring the style used for the rest of
// the protocol codec.
package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"reflect"
)

// Serializable is the interface implemented by every wire type that can
// encode and decode itself onto a BinWriter/BinReader pair.
type Serializable interface {
	EncodeBinary(BinaryWriter)
	DecodeBinary(BinaryReader)
}

// BinaryWriter is the subset of *BinWriter behavior a Serializable needs to
// encode itself; it exists so tests can substitute fakes without importing
// the concrete type.
type BinaryWriter interface {
	WriteU64LE(uint64)
	WriteU32LE(uint32)
	WriteU32BE(uint32)
	WriteU16LE(uint16)
	WriteU16BE(uint16)
	WriteB(byte)
	WriteBool(bool)
	WriteBytes([]byte)
	WriteVarUint(uint64)
	WriteVarBytes([]byte)
	WriteString(string)
	WriteArray(interface{})
	Error() error
	SetError(error)
}

// BinaryReader is the reader-side counterpart of BinaryWriter.
type BinaryReader interface {
	ReadU64LE() uint64
	ReadU32LE() uint32
	ReadU32BE() uint32
	ReadU16LE() uint16
	ReadU16BE() uint16
	ReadB() byte
	ReadBool() bool
	ReadBytes([]byte)
	ReadVarUint() uint64
	ReadVarBytes(maxSize ...int) []byte
	ReadString() string
	ReadArray(interface{}, ...int)
}

// BinReader wraps an io.Reader, accumulating the first error encountered so
// callers can perform a whole sequence of reads and check Err once at the
// end instead of after every call.
type BinReader struct {
	Err error
	r   io.Reader
	u64 [8]byte
}

// NewBinReaderFromIO creates a BinReader backed by the given io.Reader.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{r: ior}
}

// NewBinReaderFromBuf creates a BinReader reading from an in-memory buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return NewBinReaderFromIO(bytes.NewReader(b))
}

func (r *BinReader) readN(n int) []byte {
	if r.Err != nil {
		return r.u64[:n]
	}
	buf := r.u64[:n]
	_, err := io.ReadFull(r.r, buf)
	if err != nil {
		r.Err = err
	}
	return buf
}

// ReadU64LE reads a little-endian uint64.
func (r *BinReader) ReadU64LE() uint64 {
	return binary.LittleEndian.Uint64(r.readN(8))
}

// ReadU32LE reads a little-endian uint32.
func (r *BinReader) ReadU32LE() uint32 {
	return binary.LittleEndian.Uint32(r.readN(4))
}

// ReadU32BE reads a big-endian uint32, used for the message-length prefix
// on the wire.
func (r *BinReader) ReadU32BE() uint32 {
	return binary.BigEndian.Uint32(r.readN(4))
}

// ReadU16LE reads a little-endian uint16.
func (r *BinReader) ReadU16LE() uint16 {
	return binary.LittleEndian.Uint16(r.readN(2))
}

// ReadU16BE reads a big-endian uint16, used for ports on the wire.
func (r *BinReader) ReadU16BE() uint16 {
	return binary.BigEndian.Uint16(r.readN(2))
}

// ReadB reads a single byte.
func (r *BinReader) ReadB() byte {
	return r.readN(1)[0]
}

// ReadBool reads a single byte and interprets it as a boolean.
func (r *BinReader) ReadBool() bool {
	return r.readN(1)[0] != 0
}

// ReadBytes reads exactly len(buf) bytes into buf.
func (r *BinReader) ReadBytes(buf []byte) {
	if r.Err != nil || len(buf) == 0 {
		return
	}
	_, err := io.ReadFull(r.r, buf)
	if err != nil {
		r.Err = err
	}
}

// ReadVarUint reads a variable-length encoded unsigned integer: values
// below 0xfd are encoded as a single byte; a 0xfd/0xfe/0xff prefix byte
// introduces a 2/4/8-byte little-endian payload respectively.
func (r *BinReader) ReadVarUint() uint64 {
	b := r.ReadB()
	switch b {
	case 0xfd:
		return uint64(r.ReadU16LE())
	case 0xfe:
		return uint64(r.ReadU32LE())
	case 0xff:
		return r.ReadU64LE()
	default:
		return uint64(b)
	}
}

// ReadVarBytes reads a VarUint-prefixed byte slice. When maxSize is given
// the decoded length is checked against it, failing the reader rather than
// risking an oversized allocation driven by untrusted input.
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadVarUint()
	if len(maxSize) > 0 && n > uint64(maxSize[0]) {
		if r.Err == nil {
			r.Err = errors.New("io: ReadVarBytes: byte count exceeds maxSize")
		}
		return []byte{}
	}
	if r.Err != nil {
		return []byte{}
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	if r.Err != nil {
		return []byte{}
	}
	return b
}

// ReadString reads a VarUint-prefixed UTF-8 string.
func (r *BinReader) ReadString() string {
	b := r.ReadVarBytes()
	if r.Err != nil {
		return ""
	}
	return string(b)
}

// ReadArray decodes a VarUint-prefixed sequence of Serializable elements
// into *t, which must be a pointer to a slice. maxSize, if given, bounds
// the accepted element count the way ReadVarBytes bounds byte counts.
func (r *BinReader) ReadArray(t interface{}, maxSize ...int) {
	sliceRef := reflect.ValueOf(t)
	if sliceRef.Kind() != reflect.Ptr || sliceRef.Elem().Kind() != reflect.Slice {
		panic("io: ReadArray: not a pointer to a slice")
	}
	sliceElem := sliceRef.Elem()
	elemType := sliceElem.Type().Elem()

	if r.Err != nil {
		sliceElem.Set(reflect.Zero(sliceElem.Type()))
		return
	}

	l := r.ReadVarUint()
	if len(maxSize) > 0 && l > uint64(maxSize[0]) {
		r.Err = errors.New("io: ReadArray: array is too big")
		return
	}

	arr := reflect.MakeSlice(sliceElem.Type(), 0, int(l))
	for i := 0; i < int(l); i++ {
		var elem reflect.Value
		if elemType.Kind() == reflect.Ptr {
			elem = reflect.New(elemType.Elem())
		} else {
			elem = reflect.New(elemType)
		}
		s, ok := elem.Interface().(Serializable)
		if !ok {
			panic("io: ReadArray: element does not implement Serializable")
		}
		s.DecodeBinary(r)
		if elemType.Kind() == reflect.Ptr {
			arr = reflect.Append(arr, elem)
		} else {
			arr = reflect.Append(arr, elem.Elem())
		}
	}
	if r.Err != nil {
		sliceElem.Set(reflect.Zero(sliceElem.Type()))
		return
	}
	sliceElem.Set(arr)
}

// BinWriter wraps an io.Writer, accumulating the first error encountered;
// once set, subsequent writes become no-ops so a caller can write a whole
// message and check Error() once.
type BinWriter struct {
	w   io.Writer
	err error
	u64 [8]byte
}

// NewBinWriterFromIO creates a BinWriter backed by the given io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow}
}

// Error returns the first error encountered, if any.
func (w *BinWriter) Error() error {
	return w.err
}

// SetError forces the writer into an error state, e.g. to test error
// propagation or to abort a partially built message.
func (w *BinWriter) SetError(err error) {
	w.err = err
}

func (w *BinWriter) writeN(buf []byte) {
	if w.err != nil {
		return
	}
	_, err := w.w.Write(buf)
	if err != nil {
		w.err = err
	}
}

// WriteU64LE writes val as little-endian.
func (w *BinWriter) WriteU64LE(val uint64) {
	binary.LittleEndian.PutUint64(w.u64[:8], val)
	w.writeN(w.u64[:8])
}

// WriteU32LE writes val as little-endian.
func (w *BinWriter) WriteU32LE(val uint32) {
	binary.LittleEndian.PutUint32(w.u64[:4], val)
	w.writeN(w.u64[:4])
}

// WriteU32BE writes val as big-endian, used for the message-length prefix
// on the wire.
func (w *BinWriter) WriteU32BE(val uint32) {
	binary.BigEndian.PutUint32(w.u64[:4], val)
	w.writeN(w.u64[:4])
}

// WriteU16LE writes val as little-endian.
func (w *BinWriter) WriteU16LE(val uint16) {
	binary.LittleEndian.PutUint16(w.u64[:2], val)
	w.writeN(w.u64[:2])
}

// WriteU16BE writes val as big-endian, used for ports on the wire.
func (w *BinWriter) WriteU16BE(val uint16) {
	binary.BigEndian.PutUint16(w.u64[:2], val)
	w.writeN(w.u64[:2])
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(val byte) {
	w.u64[0] = val
	w.writeN(w.u64[:1])
}

// WriteBool writes a single byte, 1 for true and 0 for false.
func (w *BinWriter) WriteBool(val bool) {
	if val {
		w.WriteB(1)
	} else {
		w.WriteB(0)
	}
}

// WriteBytes writes b verbatim, with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	w.writeN(b)
}

// WriteVarUint writes val using the same variable-length encoding
// ReadVarUint decodes.
func (w *BinWriter) WriteVarUint(val uint64) {
	if val < 0xfd {
		w.WriteB(byte(val))
		return
	}
	if val <= 0xffff {
		w.WriteB(0xfd)
		w.WriteU16LE(uint16(val))
		return
	}
	if val <= 0xffffffff {
		w.WriteB(0xfe)
		w.WriteU32LE(uint32(val))
		return
	}
	w.WriteB(0xff)
	w.WriteU64LE(val)
}

// WriteVarBytes writes b prefixed with its VarUint-encoded length.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteString writes s prefixed with its VarUint-encoded byte length.
func (w *BinWriter) WriteString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteArray writes a VarUint-encoded element count followed by each
// element's EncodeBinary output. t must be a slice or array whose elements
// implement Serializable (directly, or via a pointer receiver).
func (w *BinWriter) WriteArray(t interface{}) {
	value := reflect.ValueOf(t)
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		panic("io: WriteArray: not a slice or array")
	}
	if w.err != nil {
		return
	}

	w.WriteVarUint(uint64(value.Len()))
	for i := 0; i < value.Len(); i++ {
		if w.err != nil {
			return
		}
		elem := value.Index(i)
		s, ok := elem.Interface().(Serializable)
		if !ok && elem.CanAddr() {
			s, ok = elem.Addr().Interface().(Serializable)
		}
		if !ok {
			panic("io: WriteArray: element does not implement Serializable")
		}
		s.EncodeBinary(w)
	}
}

// BufBinWriter is a BinWriter fronted by an in-memory buffer, the usual way
// to build up a complete message before handing its bytes to a socket.
type BufBinWriter struct {
	*BinWriter
	buf *bytes.Buffer
}

// NewBufBinWriter creates a BufBinWriter ready for use.
func NewBufBinWriter() *BufBinWriter {
	b := new(bytes.Buffer)
	return &BufBinWriter{
		BinWriter: NewBinWriterFromIO(b),
		buf:       b,
	}
}

// Len returns the number of bytes written so far.
func (bw *BufBinWriter) Len() int {
	return bw.buf.Len()
}

// Grow grows the underlying buffer's capacity, as a hint to avoid
// reallocation when the final size is known ahead of time.
func (bw *BufBinWriter) Grow(n int) {
	bw.buf.Grow(n)
}

// errBytesTaken marks a BufBinWriter as having already yielded its bytes;
// it forces a Reset before the writer can be reused, catching accidental
// appends onto an already-sent message.
var errBytesTaken = errors.New("io: BufBinWriter: Bytes() already called, Reset() required")

// Bytes returns the buffer's contents, or nil if the writer is in an error
// state; callers must check Error() before trusting an empty result. Once
// called, the writer is marked done until Reset.
func (bw *BufBinWriter) Bytes() []byte {
	if bw.err != nil {
		return nil
	}
	b := bw.buf.Bytes()
	res := make([]byte, len(b))
	copy(res, b)
	bw.err = errBytesTaken
	return res
}

// Reset clears the buffer and any accumulated error so the writer can be
// reused for the next message.
func (bw *BufBinWriter) Reset() {
	bw.err = nil
	bw.buf.Reset()
}
