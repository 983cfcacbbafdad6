package table

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// headerLen is the size of the common system description table header.
const headerLen = 36

var (
	// ErrTruncated is returned for raw tables shorter than their header
	// or declared length.
	ErrTruncated = errors.New("table: truncated table")

	// ErrChecksum is returned when a table's bytes do not sum to zero.
	ErrChecksum = errors.New("table: checksum mismatch")
)

// SDTHeader is the common header carried by every system description
// table.
type SDTHeader struct {
	Signature [4]byte
	Length    uint32
	Revision  uint8
	Checksum  uint8

	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	CreatorID       uint32
	CreatorRevision uint32
}

// RawTable is one mapped (or copied) table image, header included.
type RawTable []byte

// Header decodes the common header. Fails with ErrTruncated when the
// image cannot contain one.
func (t RawTable) Header() (SDTHeader, error) {
	if len(t) < headerLen {
		return SDTHeader{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(t))
	}

	var h SDTHeader
	copy(h.Signature[:], t[0:4])
	h.Length = binary.LittleEndian.Uint32(t[4:8])
	h.Revision = t[8]
	h.Checksum = t[9]
	copy(h.OEMID[:], t[10:16])
	copy(h.OEMTableID[:], t[16:24])
	h.OEMRevision = binary.LittleEndian.Uint32(t[24:28])
	h.CreatorID = binary.LittleEndian.Uint32(t[28:32])
	h.CreatorRevision = binary.LittleEndian.Uint32(t[32:36])
	return h, nil
}

// Signature returns the table's four-character type code.
func (t RawTable) Signature() string {
	if len(t) < 4 {
		return ""
	}
	return string(t[:4])
}

// Validate maps the entire declared length and verifies that all bytes
// sum to zero.
func (t RawTable) Validate() error {
	h, err := t.Header()
	if err != nil {
		return err
	}
	if uint32(len(t)) < h.Length || h.Length < headerLen {
		return fmt.Errorf("%w: declared %d bytes, have %d", ErrTruncated, h.Length, len(t))
	}

	var sum uint8
	for _, b := range t[:h.Length] {
		sum += b
	}
	if sum != 0 {
		return fmt.Errorf("%w: %s", ErrChecksum, t.Signature())
	}
	return nil
}

// NewRawTable assembles a table image from a signature, revision and
// payload, computing the checksum so the result validates. Used by hosts
// building synthetic firmware images and by tests.
func NewRawTable(signature string, revision uint8, payload []byte) RawTable {
	if len(signature) != 4 {
		panic("table: signature must be exactly 4 characters")
	}

	t := make(RawTable, headerLen+len(payload))
	copy(t[0:4], signature)
	binary.LittleEndian.PutUint32(t[4:8], uint32(len(t)))
	t[8] = revision
	copy(t[10:16], "AMLHST")
	copy(t[16:24], "SYNTHTBL")
	copy(t[headerLen:], payload)

	var sum uint8
	for _, b := range t {
		sum += b
	}
	t[9] = uint8(-sum)
	return t
}
