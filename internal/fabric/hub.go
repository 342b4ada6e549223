// Package fabric implements the per-endpoint callback hub and
// the frame router. Both are adapted from the teacher's
// event-dispatch primitives: the hub keeps the shape of an ordered,
// synchronous, catch-and-log listener registry; the router keeps the
// teacher's "compute recipients under the lock, deliver outside it" Hub
// discipline.
package fabric

import (
	"image"
	"log/slog"

	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
)

// Listener function shapes, one per event kind. All but
// FirstMessageListener and LogMessageListener carry the originating frame so a handler can read
// the src/dest identifiers it was delivered under.
type (
	FirstMessageListener func(message string)
	BinaryListener       func(frame *protocol.Frame)
	TextListener         func(message string, frame *protocol.Frame)
	ImageListener        func(img image.Image, frame *protocol.Frame)
	TextAndImageListener func(message string, img image.Image, frame *protocol.Frame)
	ComplexListener      func(texts []string, images []image.Image, binaries [][]byte, frame *protocol.Frame)
	LogMessageListener   func(message string)
	PacketFrameListener  func(child *protocol.Frame, frame *protocol.Frame)
	RequirementListener  func(texts []string, images []image.Image, binaries [][]byte, frame *protocol.Frame)
)

// Hub is one endpoint's callback registry: nine ordered listener lists,
// each invoked synchronously and in registration order. A panicking
// listener is caught and logged; it never prevents the remaining
// listeners in that list from running.
type Hub struct {
	logger *slog.Logger

	firstMessage []FirstMessageListener
	binary       []BinaryListener
	text         []TextListener
	image        []ImageListener
	textAndImage []TextAndImageListener
	complex      []ComplexListener
	logMessage   []LogMessageListener
	packetFrame  []PacketFrameListener
	requirement  []RequirementListener
}

// NewHub returns an empty Hub. logger receives catch-and-log diagnostics
// for panicking listeners and, if nil, defaults to slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

func (h *Hub) AddFirstMessageListener(fn FirstMessageListener) { h.firstMessage = append(h.firstMessage, fn) }
func (h *Hub) AddBinaryListener(fn BinaryListener)             { h.binary = append(h.binary, fn) }
func (h *Hub) AddTextListener(fn TextListener)                 { h.text = append(h.text, fn) }
func (h *Hub) AddImageListener(fn ImageListener)               { h.image = append(h.image, fn) }
func (h *Hub) AddTextAndImageListener(fn TextAndImageListener) {
	h.textAndImage = append(h.textAndImage, fn)
}
func (h *Hub) AddComplexListener(fn ComplexListener)         { h.complex = append(h.complex, fn) }
func (h *Hub) AddLogMessageListener(fn LogMessageListener)   { h.logMessage = append(h.logMessage, fn) }
func (h *Hub) AddPacketFrameListener(fn PacketFrameListener) { h.packetFrame = append(h.packetFrame, fn) }
func (h *Hub) AddRequirementListener(fn RequirementListener) { h.requirement = append(h.requirement, fn) }

func (h *Hub) guard(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("callback listener panicked", "kind", kind, "recover", r)
		}
	}()
	fn()
}

// RaiseFirstMessage fires once per connection, on the first frame a
// connection task decodes, ahead of ordinary dispatch. Grounded on
// packet_callbacks.py's raise_first_message(self, message), which is
// never invoked from process_packet itself — callers (client/server
// connection loops) call it directly at the top of their receive loop.
func (h *Hub) RaiseFirstMessage(message string) {
	for _, fn := range h.firstMessage {
		fn := fn
		h.guard("first_message", func() { fn(message) })
	}
}

func (h *Hub) RaiseBinary(frame *protocol.Frame) {
	for _, fn := range h.binary {
		fn := fn
		h.guard("binary", func() { fn(frame) })
	}
}

func (h *Hub) RaiseText(message string, frame *protocol.Frame) {
	for _, fn := range h.text {
		fn := fn
		h.guard("text", func() { fn(message, frame) })
	}
}

func (h *Hub) RaiseImage(img image.Image, frame *protocol.Frame) {
	for _, fn := range h.image {
		fn := fn
		h.guard("image", func() { fn(img, frame) })
	}
}

func (h *Hub) RaiseTextAndImage(message string, img image.Image, frame *protocol.Frame) {
	for _, fn := range h.textAndImage {
		fn := fn
		h.guard("text_and_image", func() { fn(message, img, frame) })
	}
}

func (h *Hub) RaiseComplex(texts []string, images []image.Image, binaries [][]byte, frame *protocol.Frame) {
	for _, fn := range h.complex {
		fn := fn
		h.guard("complex", func() { fn(texts, images, binaries, frame) })
	}
}

func (h *Hub) RaiseLogMessage(message string) {
	for _, fn := range h.logMessage {
		fn := fn
		h.guard("log_message", func() { fn(message) })
	}
}

func (h *Hub) RaisePacketFrame(child *protocol.Frame, frame *protocol.Frame) {
	for _, fn := range h.packetFrame {
		fn := fn
		h.guard("packet_frame", func() { fn(child, frame) })
	}
}

func (h *Hub) RaiseRequirement(texts []string, images []image.Image, binaries [][]byte, frame *protocol.Frame) {
	for _, fn := range h.requirement {
		fn := fn
		h.guard("requirement", func() { fn(texts, images, binaries, frame) })
	}
}

// Dispatch applies the payload-type dispatch rule to a decoded frame: handshake
// bodies go to log_message only, everything else routes by payload_type
// to its typed listener set, falling through to binary for BinaryRaw and
// any unrecognized tag. A PngImage, TextAndPngImage or PacketFrame payload
// that fails to decode raises no listener at all.
func Dispatch(h *Hub, frame *protocol.Frame, codec imaging.Codec) {
	switch frame.Header.PayloadType {
	case protocol.PlainText:
		text := string(frame.Payload)
		if isHandshake(text) {
			h.RaiseLogMessage("handshake: " + text)
			return
		}
		h.RaiseText(text, frame)

	case protocol.PngImage:
		img, err := codec.Decode(frame.Payload)
		if err == nil {
			h.RaiseImage(img, frame)
		}

	case protocol.TextAndPngImage:
		parts, err := protocol.UnpackLPS(frame.Payload)
		if err != nil || len(parts) < 2 {
			return
		}
		img, err := codec.Decode(parts[1])
		if err != nil {
			return
		}
		h.RaiseTextAndImage(string(parts[0]), img, frame)

	case protocol.Complex:
		texts, images, binaries, _ := frame.ToComplex()
		h.RaiseComplex(texts, images, binaries, frame)

	case protocol.PacketFrame:
		child := frame.ToPacketFrame()
		if child != nil {
			h.RaisePacketFrame(child, frame)
		}

	case protocol.Requirement:
		texts, images, binaries, _ := frame.ToRequirement()
		h.RaiseRequirement(texts, images, binaries, frame)

	default:
		h.RaiseBinary(frame)
	}
}

const handshakePrefix = "CONNECT:"

func isHandshake(text string) bool {
	return len(text) >= len(handshakePrefix) && text[:len(handshakePrefix)] == handshakePrefix
}
