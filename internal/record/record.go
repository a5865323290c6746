// Package record implements the fixed-width, little-endian on-disk
// encoding for the store descriptor, block descriptor, and HA status
// records. Every record is read and written whole; a short read is
// always an error, never treated as a default value.
package record

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ObjectIDWidth is the fixed width of a block descriptor's object id
// field. Spec.md leaves the exact width to the implementation as long
// as it is used consistently everywhere; 64 bytes comfortably covers
// the documented 63-byte ASCII ceiling plus the trailing NUL.
const ObjectIDWidth = 64

const (
	// StoreDescriptorSize is the encoded size of a StoreDescriptor.
	StoreDescriptorSize = 32
	// BlockDescriptorSize is the encoded size of a BlockDescriptor.
	BlockDescriptorSize = 8 + ObjectIDWidth + 8 + 8
	// haStatusHeaderSize is the fixed portion of an HAStatus record;
	// the member id list follows at 4 bytes per member.
	haStatusHeaderSize = 12
)

// StoreDescriptor is the per-store metadata record (spec.md §3).
type StoreDescriptor struct {
	StoreID     uint32
	TotalBlocks uint32
	BlockSize   uint32
	UsedBlocks  uint32
	IsReplica   bool
	ReplicaOf   int32 // -1 when not in a replica pair
	HAGroupID   int32 // -1 when not in an HA group
	IsDestroyed bool
}

// BlockDescriptor is the per-block metadata record (spec.md §3).
type BlockDescriptor struct {
	IsUsed    bool
	ObjectID  string
	DataSize  uint32
	Timestamp int64 // unix milliseconds
}

// HAStatus is the HA group status record (spec.md §3).
type HAStatus struct {
	GroupID        uint32
	StoreCount     uint32
	DestroyedCount uint32
	MemberIDs      []uint32
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeStoreDescriptor writes a StoreDescriptor in its fixed 32-byte layout.
func EncodeStoreDescriptor(d StoreDescriptor) []byte {
	buf := make([]byte, StoreDescriptorSize)
	binary.LittleEndian.PutUint32(buf[0:4], d.StoreID)
	binary.LittleEndian.PutUint32(buf[4:8], d.TotalBlocks)
	binary.LittleEndian.PutUint32(buf[8:12], d.BlockSize)
	binary.LittleEndian.PutUint32(buf[12:16], d.UsedBlocks)
	buf[16] = boolByte(d.IsReplica)
	// buf[17:20] left as padding zeros
	binary.LittleEndian.PutUint32(buf[20:24], uint32(d.ReplicaOf))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(d.HAGroupID))
	buf[28] = boolByte(d.IsDestroyed)
	// buf[29:32] left as padding zeros
	return buf
}

// DecodeStoreDescriptor reads a StoreDescriptor from its fixed layout.
func DecodeStoreDescriptor(buf []byte) (StoreDescriptor, error) {
	if len(buf) != StoreDescriptorSize {
		return StoreDescriptor{}, fmt.Errorf("record: store descriptor short read: got %d want %d", len(buf), StoreDescriptorSize)
	}
	return StoreDescriptor{
		StoreID:     binary.LittleEndian.Uint32(buf[0:4]),
		TotalBlocks: binary.LittleEndian.Uint32(buf[4:8]),
		BlockSize:   binary.LittleEndian.Uint32(buf[8:12]),
		UsedBlocks:  binary.LittleEndian.Uint32(buf[12:16]),
		IsReplica:   buf[16] != 0,
		ReplicaOf:   int32(binary.LittleEndian.Uint32(buf[20:24])),
		HAGroupID:   int32(binary.LittleEndian.Uint32(buf[24:28])),
		IsDestroyed: buf[28] != 0,
	}, nil
}

// EncodeBlockDescriptor writes a BlockDescriptor in its fixed layout.
// ObjectID is truncated to ObjectIDWidth-1 bytes and zero-padded; the
// last byte of the field is always 0.
func EncodeBlockDescriptor(d BlockDescriptor) []byte {
	buf := make([]byte, BlockDescriptorSize)
	buf[0] = boolByte(d.IsUsed)
	// buf[1:8] padding

	idField := buf[8 : 8+ObjectIDWidth]
	id := d.ObjectID
	if len(id) > ObjectIDWidth-1 {
		id = id[:ObjectIDWidth-1]
	}
	copy(idField, id)
	idField[ObjectIDWidth-1] = 0

	rest := buf[8+ObjectIDWidth:]
	binary.LittleEndian.PutUint32(rest[0:4], d.DataSize)
	// rest[4:8] padding
	binary.LittleEndian.PutUint64(rest[8:16], uint64(d.Timestamp))
	return buf
}

// DecodeBlockDescriptor reads a BlockDescriptor from its fixed layout.
func DecodeBlockDescriptor(buf []byte) (BlockDescriptor, error) {
	if len(buf) != BlockDescriptorSize {
		return BlockDescriptor{}, fmt.Errorf("record: block descriptor short read: got %d want %d", len(buf), BlockDescriptorSize)
	}
	idField := buf[8 : 8+ObjectIDWidth]
	nul := bytes.IndexByte(idField, 0)
	if nul < 0 {
		nul = len(idField)
	}
	rest := buf[8+ObjectIDWidth:]
	return BlockDescriptor{
		IsUsed:    buf[0] != 0,
		ObjectID:  string(idField[:nul]),
		DataSize:  binary.LittleEndian.Uint32(rest[0:4]),
		Timestamp: int64(binary.LittleEndian.Uint64(rest[8:16])),
	}, nil
}

// EncodeHAStatus writes an HAStatus record: a 12-byte header followed
// by 4 bytes per member id.
func EncodeHAStatus(s HAStatus) []byte {
	buf := make([]byte, haStatusHeaderSize+4*len(s.MemberIDs))
	binary.LittleEndian.PutUint32(buf[0:4], s.GroupID)
	binary.LittleEndian.PutUint32(buf[4:8], s.StoreCount)
	binary.LittleEndian.PutUint32(buf[8:12], s.DestroyedCount)
	for i, id := range s.MemberIDs {
		off := haStatusHeaderSize + 4*i
		binary.LittleEndian.PutUint32(buf[off:off+4], id)
	}
	return buf
}

// DecodeHAStatus reads an HAStatus record.
func DecodeHAStatus(buf []byte) (HAStatus, error) {
	if len(buf) < haStatusHeaderSize {
		return HAStatus{}, fmt.Errorf("record: HA status short read: got %d want at least %d", len(buf), haStatusHeaderSize)
	}
	s := HAStatus{
		GroupID:        binary.LittleEndian.Uint32(buf[0:4]),
		StoreCount:     binary.LittleEndian.Uint32(buf[4:8]),
		DestroyedCount: binary.LittleEndian.Uint32(buf[8:12]),
	}
	want := haStatusHeaderSize + 4*int(s.StoreCount)
	if len(buf) != want {
		return HAStatus{}, fmt.Errorf("record: HA status member list short read: got %d want %d", len(buf), want)
	}
	s.MemberIDs = make([]uint32, s.StoreCount)
	for i := range s.MemberIDs {
		off := haStatusHeaderSize + 4*i
		s.MemberIDs[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return s, nil
}

// ReadFull reads exactly len(buf) bytes from r, wrapping io.ErrUnexpectedEOF
// with context so short reads are unambiguous errors.
func ReadFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("record: short read: %w", err)
	}
	return nil
}
