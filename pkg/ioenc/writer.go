package ioenc

import (
	"encoding/binary"
	"fmt"
	"os"
)

// PatchHandle is a typed token returned by a placeholder write. It must be
// consumed with Writer.Patch before the writer is closed. Close returns an
// error naming every handle that was never patched, turning the "pending
// offsets must be resolved" obligation from spec §4.2/§9 into a structural
// check rather than a silent bug.
type PatchHandle struct {
	pos   int64
	width int
	id    uint64
}

// Writer writes little-endian primitives, varints, and fixed-width file
// offsets to a backing file, and supports back-patching a placeholder
// written earlier in the stream once its real value becomes known.
type Writer struct {
	path    string
	f       *os.File
	pos     int64
	nextID  uint64
	pending map[uint64]PatchHandle
}

// CreateWriter creates (or truncates) path for writing.
func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "create", Err: err}
	}
	return &Writer{path: path, f: f, pending: make(map[uint64]PatchHandle)}, nil
}

// Pos returns the writer's current append position.
func (w *Writer) Pos() int64 { return w.pos }

// Pending returns the number of unconsumed patch handles.
func (w *Writer) Pending() int { return len(w.pending) }

// Close closes the backing file. It is an invariant violation to close a
// writer with unconsumed patch handles (spec §9 "Back-patched file
// offsets"); Close reports this as an error rather than silently truncating
// a half-patched file, so the top-level builder sees it and aborts (spec §7).
func (w *Writer) Close() error {
	if len(w.pending) > 0 {
		if cerr := w.f.Close(); cerr != nil {
			return &IOError{Path: w.path, Op: "close", Err: cerr}
		}
		return &FormatError{Path: w.path, Context: fmt.Sprintf("%d unconsumed patch handle(s) at close", len(w.pending))}
	}
	if err := w.f.Close(); err != nil {
		return &IOError{Path: w.path, Op: "close", Err: err}
	}
	return nil
}

// Abort closes and removes the output file, used for fail-safe cleanup on
// cancellation or phase failure (spec §5/§7): "in-flight writes are closed
// fail-safe (truncate and mark the output absent)".
func (w *Writer) Abort() {
	w.f.Close()
	os.Remove(w.path)
}

func (w *Writer) write(buf []byte) error {
	n, err := w.f.Write(buf)
	w.pos += int64(n)
	if err != nil {
		return &IOError{Path: w.path, Op: "write", Err: err}
	}
	return nil
}

func (w *Writer) WriteU8(v uint8) error { return w.write([]byte{v}) }

func (w *Writer) WriteU16(v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return w.write(buf[:])
}

func (w *Writer) WriteU32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.write(buf[:])
}

func (w *Writer) WriteU64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return w.write(buf[:])
}

func (w *Writer) WriteF64(v float64) error {
	return w.WriteU64(float64ToBits(v))
}

// WriteVarintUnsigned writes the usual 7-bits-per-byte continuation scheme.
func (w *Writer) WriteVarintUnsigned(v uint64) error {
	var buf []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			break
		}
	}
	return w.write(buf)
}

// WriteVarintSigned writes a zigzag-encoded signed varint.
func (w *Writer) WriteVarintSigned(v int64) error {
	zz := uint64(v<<1) ^ uint64(v>>63)
	return w.WriteVarintUnsigned(zz)
}

// WriteFileOffset writes a fixed-width little-endian file offset.
func (w *Writer) WriteFileOffset(width int, v uint64) error {
	if width < 1 || width > 8 {
		return &FormatError{Path: w.path, Context: fmt.Sprintf("invalid offset width %d", width)}
	}
	buf := make([]byte, width)
	for i := 0; i < width; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	return w.write(buf)
}

// WriteCoord writes a fixed-point lat/lon pair.
func (w *Writer) WriteCoord(lat, lon float64) error {
	if err := w.WriteVarintSigned(int64(lat * coordScale)); err != nil {
		return err
	}
	return w.WriteVarintSigned(int64(lon * coordScale))
}

// WriteString writes a varuint-length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) error {
	if err := w.WriteVarintUnsigned(uint64(len(s))); err != nil {
		return err
	}
	return w.write([]byte(s))
}

// WritePlaceholderOffset reserves width bytes for a value to be patched in
// later and returns a handle identifying the reservation. Models spec §4.2's
// `pos1 := get_pos(); write_placeholder_offset()`.
func (w *Writer) WritePlaceholderOffset(width int) (PatchHandle, error) {
	h := PatchHandle{pos: w.pos, width: width, id: w.nextID}
	w.nextID++
	if err := w.WriteFileOffset(width, 0); err != nil {
		return PatchHandle{}, err
	}
	w.pending[h.id] = h
	return h, nil
}

// Patch overwrites a previously reserved placeholder with its real value,
// saving and restoring the writer's append position around the seek (spec
// §4.2: `pos2 := get_pos(); set_pos(pos1); write_offset(pos2); set_pos(pos2)`).
func (w *Writer) Patch(h PatchHandle, value uint64) error {
	if _, ok := w.pending[h.id]; !ok {
		return &FormatError{Path: w.path, Context: "patch handle already consumed or unknown"}
	}
	savedPos := w.pos
	if _, err := w.f.Seek(h.pos, 0); err != nil {
		return &IOError{Path: w.path, Op: "seek", Err: err}
	}
	buf := make([]byte, h.width)
	v := value
	for i := 0; i < h.width; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	if _, err := w.f.Write(buf); err != nil {
		return &IOError{Path: w.path, Op: "write", Err: err}
	}
	if _, err := w.f.Seek(savedPos, 0); err != nil {
		return &IOError{Path: w.path, Op: "seek", Err: err}
	}
	w.pos = savedPos
	delete(w.pending, h.id)
	return nil
}
