// Package transport reads and writes hag1 frames over a stream, the same
// split the Python reference keeps between TcpProtocol (wire I/O) and
// PacketFrame (codec): this package never interprets payload bytes, it
// only knows where one frame ends and the next begins.
package transport

import (
	"encoding/binary"
	"io"

	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
)

// DefaultMaxFrameBytes is the payload ceiling applied when a Framer is
// built with maxFrameBytes <= 0 (see SPEC_FULL.md's Open Question
// resolution: 64 MiB, configurable via Config.Transport.MaxFrameBytes).
const DefaultMaxFrameBytes = 64 * 1024 * 1024

// Framer sends and receives whole hag1 frames over an underlying stream,
// enforcing a maximum payload size so a corrupt or hostile peer can't
// make Recv allocate an unbounded buffer.
type Framer struct {
	maxFrameBytes uint32
}

// NewFramer returns a Framer with the given payload ceiling. A
// non-positive maxFrameBytes falls back to DefaultMaxFrameBytes.
func NewFramer(maxFrameBytes int) *Framer {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	return &Framer{maxFrameBytes: uint32(maxFrameBytes)}
}

// Send encodes f and writes it to w in a single Write call.
func (fr *Framer) Send(w io.Writer, f *protocol.Frame) error {
	_, err := w.Write(protocol.Encode(f))
	return err
}

// Recv reads exactly one frame from r: the fixed 32-byte header, then
// the payload_size bytes it declares. Returns io.EOF only when the
// connection closes cleanly between frames; a partial header or payload
// is io.ErrUnexpectedEOF.
func (fr *Framer) Recv(r io.Reader) (*protocol.Frame, error) {
	header := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if header[0] != protocol.Magic[0] || header[1] != protocol.Magic[1] ||
		header[2] != protocol.Magic[2] || header[3] != protocol.Magic[3] {
		return nil, protocol.ErrBadMagic
	}
	payloadSize := binary.LittleEndian.Uint32(header[28:32])
	if payloadSize > fr.maxFrameBytes {
		return nil, protocol.ErrFrameTooLarge
	}

	buf := make([]byte, protocol.HeaderSize+int(payloadSize))
	copy(buf, header)
	if payloadSize > 0 {
		if _, err := io.ReadFull(r, buf[protocol.HeaderSize:]); err != nil {
			return nil, err
		}
	}
	return protocol.Decode(buf)
}
