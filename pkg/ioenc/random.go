package ioenc

import (
	"encoding/binary"
	"os"
)

// RandomAccess reopens an already-written file for read+write at known
// offsets, used by the legacy route-node layout's pending-offset resolution
// (spec §4.6): nodes are re-read, their `paths[i].offset` fields patched in
// place, and written back, all after the sequential writer has already
// flushed and closed that block.
type RandomAccess struct {
	path string
	f    *os.File
}

// OpenRandomAccess opens path for read+write without truncating.
func OpenRandomAccess(path string) (*RandomAccess, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	return &RandomAccess{path: path, f: f}, nil
}

func (r *RandomAccess) Close() error {
	if err := r.f.Close(); err != nil {
		return &IOError{Path: r.path, Op: "close", Err: err}
	}
	return nil
}

// ReadFileOffsetAt reads a fixed-width offset at a known absolute position.
func (r *RandomAccess) ReadFileOffsetAt(at int64, width int) (uint64, error) {
	buf := make([]byte, width)
	if _, err := r.f.ReadAt(buf, at); err != nil {
		return 0, &IOError{Path: r.path, Op: "readat", Err: err}
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}

// WriteFileOffsetAt patches a fixed-width offset at a known absolute
// position.
func (r *RandomAccess) WriteFileOffsetAt(at int64, width int, value uint64) error {
	buf := make([]byte, width)
	v := value
	for i := 0; i < width; i++ {
		buf[i] = byte(v)
		v >>= 8
	}
	if _, err := r.f.WriteAt(buf, at); err != nil {
		return &IOError{Path: r.path, Op: "writeat", Err: err}
	}
	return nil
}

// WriteU32At patches a little-endian uint32 at a known absolute position.
func (r *RandomAccess) WriteU32At(at int64, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if _, err := r.f.WriteAt(buf[:], at); err != nil {
		return &IOError{Path: r.path, Op: "writeat", Err: err}
	}
	return nil
}
