package protocol

import (
	"encoding/binary"
	"fmt"
)

// ============================================================================
// HAG1 FRAME HEADER (32 bytes, little-endian)
// ============================================================================

// Magic identifies the hag1 wire protocol.
var Magic = [4]byte{'h', 'a', 'g', '1'}

// PayloadType tags the shape of a frame's payload. The set is closed;
// Decode keeps any value outside it as-is, and fabric.Dispatch hands such
// frames to the binary listeners, as for BinaryRaw.
type PayloadType uint32

const (
	BinaryRaw       PayloadType = 0
	PlainText       PayloadType = 1
	PngImage        PayloadType = 8000
	TextAndPngImage PayloadType = 8001
	Complex         PayloadType = 10000
	PacketFrame     PayloadType = 20000
	Requirement     PayloadType = 30000
)

func (t PayloadType) String() string {
	switch t {
	case BinaryRaw:
		return "BinaryRaw"
	case PlainText:
		return "PlainText"
	case PngImage:
		return "PngImage"
	case TextAndPngImage:
		return "TextAndPngImage"
	case Complex:
		return "Complex"
	case PacketFrame:
		return "PacketFrame"
	case Requirement:
		return "Requirement"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// WildcardID is the reserved "any" value for destination user/group ids.
// 0 and WildcardID have reserved meanings in destination fields. The
// handshake parser and SessionManager.SetIdentity do not reject them; a
// session holding either as its user id is never selected by a
// user-targeted destination.
const WildcardID uint32 = 0xFFFF

// HeaderSize is the size in bytes of the fixed hag1 header.
const HeaderSize = 32

// FrameHeader is the 32-byte hag1 header.
type FrameHeader struct {
	DestGroupID uint32
	DestUserID  uint32
	SrcGroupID  uint32
	SrcUserID   uint32
	PayloadType PayloadType
	PayloadSize uint32
}

// Frame is a complete hag1 frame: header plus payload bytes.
type Frame struct {
	Header  FrameHeader
	Payload []byte
}

// NewFrame builds a frame, recomputing PayloadSize from the payload.
func NewFrame(destGroupID, destUserID, srcGroupID, srcUserID uint32, ptype PayloadType, payload []byte) *Frame {
	return &Frame{
		Header: FrameHeader{
			DestGroupID: destGroupID,
			DestUserID:  destUserID,
			SrcGroupID:  srcGroupID,
			SrcUserID:   srcUserID,
			PayloadType: ptype,
			PayloadSize: uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Encode serializes the frame to wire bytes. Never fails: PayloadSize is
// always recomputed from len(Payload), so any caller-set value is ignored.
func Encode(f *Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	copy(buf[0:4], Magic[:])
	// bytes 4-7: reserved, zero on encode
	binary.LittleEndian.PutUint32(buf[8:12], f.Header.DestGroupID)
	binary.LittleEndian.PutUint32(buf[12:16], f.Header.DestUserID)
	binary.LittleEndian.PutUint32(buf[16:20], f.Header.SrcGroupID)
	binary.LittleEndian.PutUint32(buf[20:24], f.Header.SrcUserID)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.Header.PayloadType))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(f.Payload)))
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode parses a frame out of buf. buf must contain at least the header
// (32 bytes) and the full payload declared by payload_size; trailing bytes
// beyond that are ignored (the transport framer never hands us any).
func Decode(buf []byte) (*Frame, error) {
	if len(buf) < HeaderSize {
		return nil, ErrShortHeader
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] || buf[3] != Magic[3] {
		return nil, ErrBadMagic
	}

	h := FrameHeader{
		DestGroupID: binary.LittleEndian.Uint32(buf[8:12]),
		DestUserID:  binary.LittleEndian.Uint32(buf[12:16]),
		SrcGroupID:  binary.LittleEndian.Uint32(buf[16:20]),
		SrcUserID:   binary.LittleEndian.Uint32(buf[20:24]),
		PayloadType: PayloadType(binary.LittleEndian.Uint32(buf[24:28])),
		PayloadSize: binary.LittleEndian.Uint32(buf[28:32]),
	}

	if uint64(len(buf)) < uint64(HeaderSize)+uint64(h.PayloadSize) {
		return nil, ErrShortPayload
	}

	payload := make([]byte, h.PayloadSize)
	copy(payload, buf[HeaderSize:HeaderSize+int(h.PayloadSize)])

	return &Frame{Header: h, Payload: payload}, nil
}

// ============================================================================
// LENGTH-PREFIXED SUB-LIST (LPS)
// ============================================================================

// PackLPS concatenates (u32 length, bytes) tuples for each element. An
// empty slice encodes to zero bytes.
func PackLPS(items [][]byte) []byte {
	if len(items) == 0 {
		return nil
	}
	size := 0
	for _, it := range items {
		size += 4 + len(it)
	}
	buf := make([]byte, 0, size)
	var lenBuf [4]byte
	for _, it := range items {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(it)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, it...)
	}
	return buf
}

// UnpackLPS reverses PackLPS. Fails with ErrTruncatedLPS if any declared
// length would read past the end of buf.
func UnpackLPS(buf []byte) ([][]byte, error) {
	var out [][]byte
	offset := 0
	for offset < len(buf) {
		if offset+4 > len(buf) {
			return nil, ErrTruncatedLPS
		}
		length := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
		offset += 4
		if length < 0 || offset+length > len(buf) {
			return nil, ErrTruncatedLPS
		}
		item := make([]byte, length)
		copy(item, buf[offset:offset+length])
		out = append(out, item)
		offset += length
	}
	return out, nil
}

// packCounts packs the 12-byte (u32,u32,u32) counts header used by the
// Complex/Requirement sub-format's first LPS element.
func packCounts(nText, nImage, nBinary int) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(nText))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(nImage))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(nBinary))
	return buf
}

func unpackCounts(buf []byte) (nText, nImage, nBinary int, err error) {
	if len(buf) < 12 {
		return 0, 0, 0, ErrTruncatedLPS
	}
	return int(binary.LittleEndian.Uint32(buf[0:4])),
		int(binary.LittleEndian.Uint32(buf[4:8])),
		int(binary.LittleEndian.Uint32(buf[8:12])),
		nil
}
