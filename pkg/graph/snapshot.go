package graph

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"sort"
	"unsafe"
)

const (
	snapshotMagic = "H3RTGRPH"
	snapshotVer   = uint32(1)
	maxShortcuts  = 200_000_000
	maxMetaRows   = 100_000_000
)

// snapshotHeader is the fixed binary header.
type snapshotHeader struct {
	Magic        [8]byte
	Version      uint32
	NumShortcuts uint32
	NumMeta      uint32
}

// WriteSnapshot serializes the store to a binary snapshot so servers can
// skip re-parsing the shortcut and metadata inputs. The layout is columnar
// with a CRC32 trailer; the file is written to a temp path and renamed in
// place.
func WriteSnapshot(path string, s *Store) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	n := len(s.shortcuts)
	from := make([]uint32, n)
	to := make([]uint32, n)
	via := make([]uint32, n)
	inside := make([]byte, n)
	cost := make([]float64, n)
	cell := make([]uint64, n)
	for i, sc := range s.shortcuts {
		from[i] = sc.From
		to[i] = sc.To
		via[i] = sc.Via
		inside[i] = byte(sc.Inside)
		cost[i] = sc.Cost
		cell[i] = sc.Cell
	}

	// Metadata rows ascend by id so repeated writes of the same store are
	// byte-identical.
	ids := s.EdgeIDs()
	m := len(ids)
	inCell := make([]uint64, m)
	outCell := make([]uint64, m)
	lcaRes := make([]int32, m)
	length := make([]float64, m)
	edgeCost := make([]float64, m)
	for i, id := range ids {
		meta := s.meta[id]
		inCell[i] = meta.IncomingCell
		outCell[i] = meta.OutgoingCell
		lcaRes[i] = int32(meta.LCARes)
		length[i] = meta.Length
		edgeCost[i] = meta.Cost
	}

	hdr := snapshotHeader{
		Version:      snapshotVer,
		NumShortcuts: uint32(n),
		NumMeta:      uint32(m),
	}
	copy(hdr.Magic[:], snapshotMagic)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, step := range []struct {
		name  string
		write func() error
	}{
		{"From", func() error { return writeUint32Slice(w, from) }},
		{"To", func() error { return writeUint32Slice(w, to) }},
		{"Via", func() error { return writeUint32Slice(w, via) }},
		{"Inside", func() error { return writeByteSlice(w, inside) }},
		{"Cost", func() error { return writeFloat64Slice(w, cost) }},
		{"Cell", func() error { return writeUint64Slice(w, cell) }},
		{"MetaID", func() error { return writeUint32Slice(w, ids) }},
		{"MetaInCell", func() error { return writeUint64Slice(w, inCell) }},
		{"MetaOutCell", func() error { return writeUint64Slice(w, outCell) }},
		{"MetaLCARes", func() error { return writeInt32Slice(w, lcaRes) }},
		{"MetaLength", func() error { return writeFloat64Slice(w, length) }},
		{"MetaCost", func() error { return writeFloat64Slice(w, edgeCost) }},
	} {
		if err := step.write(); err != nil {
			return fmt.Errorf("write %s: %w", step.name, err)
		}
	}

	// CRC32 trailer over everything written so far.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ReadSnapshot deserializes a store from a binary snapshot.
func ReadSnapshot(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	var hdr snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(hdr.Magic[:]) != snapshotMagic {
		return nil, fmt.Errorf("invalid magic bytes: %q", hdr.Magic)
	}
	if hdr.Version != snapshotVer {
		return nil, fmt.Errorf("unsupported version: %d", hdr.Version)
	}
	if hdr.NumShortcuts > maxShortcuts {
		return nil, fmt.Errorf("NumShortcuts %d exceeds limit %d", hdr.NumShortcuts, maxShortcuts)
	}
	if hdr.NumMeta > maxMetaRows {
		return nil, fmt.Errorf("NumMeta %d exceeds limit %d", hdr.NumMeta, maxMetaRows)
	}

	n := int(hdr.NumShortcuts)
	m := int(hdr.NumMeta)

	var from, to, via []uint32
	var inside []byte
	var cost, length, edgeCost []float64
	var cell, inCell, outCell []uint64
	var ids []uint32
	var lcaRes []int32

	for _, step := range []struct {
		name string
		read func() error
	}{
		{"From", func() (err error) { from, err = readUint32Slice(r, n); return }},
		{"To", func() (err error) { to, err = readUint32Slice(r, n); return }},
		{"Via", func() (err error) { via, err = readUint32Slice(r, n); return }},
		{"Inside", func() (err error) { inside, err = readByteSlice(r, n); return }},
		{"Cost", func() (err error) { cost, err = readFloat64Slice(r, n); return }},
		{"Cell", func() (err error) { cell, err = readUint64Slice(r, n); return }},
		{"MetaID", func() (err error) { ids, err = readUint32Slice(r, m); return }},
		{"MetaInCell", func() (err error) { inCell, err = readUint64Slice(r, m); return }},
		{"MetaOutCell", func() (err error) { outCell, err = readUint64Slice(r, m); return }},
		{"MetaLCARes", func() (err error) { lcaRes, err = readInt32Slice(r, m); return }},
		{"MetaLength", func() (err error) { length, err = readFloat64Slice(r, m); return }},
		{"MetaCost", func() (err error) { edgeCost, err = readFloat64Slice(r, m); return }},
	} {
		if err := step.read(); err != nil {
			return nil, fmt.Errorf("read %s: %w", step.name, err)
		}
	}

	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("read CRC32: %w", err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("CRC32 mismatch: stored=%08x computed=%08x", storedCRC, expectedCRC)
	}

	shortcuts := make([]Shortcut, n)
	for i := range shortcuts {
		tag := int8(inside[i])
		if !ValidInside(tag) {
			return nil, fmt.Errorf("shortcut %d: unknown inside tag %d", i, tag)
		}
		if cost[i] < 0 || math.IsNaN(cost[i]) || math.IsInf(cost[i], 0) {
			return nil, fmt.Errorf("shortcut %d: invalid cost %f", i, cost[i])
		}
		shortcuts[i] = Shortcut{
			From:   from[i],
			To:     to[i],
			Via:    via[i],
			Cost:   cost[i],
			Cell:   cell[i],
			Inside: tag,
		}
	}

	meta := make(map[uint32]EdgeMeta, m)
	for i, id := range ids {
		meta[id] = EdgeMeta{
			IncomingCell: inCell[i],
			OutgoingCell: outCell[i],
			LCARes:       int(lcaRes[i]),
			Length:       length[i],
			Cost:         edgeCost[i],
		}
	}
	if !sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }) {
		return nil, fmt.Errorf("metadata ids not sorted")
	}
	if len(meta) != m {
		return nil, fmt.Errorf("duplicate metadata ids: %d rows, %d distinct", m, len(meta))
	}

	return NewStore(shortcuts, meta), nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeByteSlice(w io.Writer, s []byte) error {
	if len(s) == 0 {
		return nil
	}
	_, err := w.Write(s)
	return err
}

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeInt32Slice(w io.Writer, s []int32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeUint64Slice(w io.Writer, s []uint64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readByteSlice(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]byte, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readInt32Slice(r io.Reader, n int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]int32, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readUint64Slice(r io.Reader, n int) ([]uint64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]uint64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	s := make([]float64, n)
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
