package protocol

import (
	"encoding/base64"
	"image"
	"strings"

	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
)

// ============================================================================
// TYPED CONSTRUCTORS
// ============================================================================

// Text builds a PlainText frame from a UTF-8 string.
func Text(destGroupID, destUserID, srcGroupID, srcUserID uint32, s string) *Frame {
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, PlainText, []byte(s))
}

// Image builds a PngImage frame by encoding img with codec.
func Image(destGroupID, destUserID, srcGroupID, srcUserID uint32, img image.Image, codec imaging.Codec) (*Frame, error) {
	data, err := codec.Encode(img)
	if err != nil {
		return nil, err
	}
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, PngImage, data), nil
}

// TextAndImage builds a TextAndPngImage frame: an LPS of [utf8(s), png(img)].
func TextAndImage(destGroupID, destUserID, srcGroupID, srcUserID uint32, s string, img image.Image, codec imaging.Codec) (*Frame, error) {
	imgBytes, err := codec.Encode(img)
	if err != nil {
		return nil, err
	}
	payload := PackLPS([][]byte{[]byte(s), imgBytes})
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, TextAndPngImage, payload), nil
}

// composite packs the Complex/Requirement sub-format: an LPS whose first
// element is the 12-byte counts header, followed by texts, images, then
// opaque binaries, in that order.
func composite(texts []string, images []image.Image, binaries [][]byte, codec imaging.Codec) ([]byte, error) {
	items := make([][]byte, 0, 1+len(texts)+len(images)+len(binaries))
	items = append(items, packCounts(len(texts), len(images), len(binaries)))
	for _, t := range texts {
		items = append(items, []byte(t))
	}
	for _, img := range images {
		b, err := codec.Encode(img)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	items = append(items, binaries...)
	return PackLPS(items), nil
}

// NewComplex builds a Complex frame from independent text/image/binary lists.
func NewComplex(destGroupID, destUserID, srcGroupID, srcUserID uint32, texts []string, images []image.Image, binaries [][]byte, codec imaging.Codec) (*Frame, error) {
	payload, err := composite(texts, images, binaries, codec)
	if err != nil {
		return nil, err
	}
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, Complex, payload), nil
}

// NewRequirement builds a Requirement frame. Identical wire layout to
// Complex; the tag alone carries the different semantic channel.
func NewRequirement(destGroupID, destUserID, srcGroupID, srcUserID uint32, texts []string, images []image.Image, binaries [][]byte, codec imaging.Codec) (*Frame, error) {
	payload, err := composite(texts, images, binaries, codec)
	if err != nil {
		return nil, err
	}
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, Requirement, payload), nil
}

// NewPacketFrame wraps child as the payload of a PacketFrame-tagged frame.
func NewPacketFrame(destGroupID, destUserID, srcGroupID, srcUserID uint32, child *Frame) *Frame {
	return NewFrame(destGroupID, destUserID, srcGroupID, srcUserID, PacketFrame, Encode(child))
}

// ============================================================================
// TYPED EXTRACTORS — all tolerate cross-form extraction and never
// return an error; missing elements yield empty string / nil image.
// ============================================================================

// ToText extracts the first text element regardless of payload shape.
func (f *Frame) ToText() string {
	switch f.Header.PayloadType {
	case PlainText:
		return string(f.Payload)
	case TextAndPngImage:
		parts, err := UnpackLPS(f.Payload)
		if err != nil || len(parts) < 1 {
			return ""
		}
		return string(parts[0])
	case Complex, Requirement:
		texts, _, _, _ := f.ToComplex()
		if len(texts) > 0 {
			return texts[0]
		}
	}
	return ""
}

// ToImage extracts the first image regardless of payload shape. Returns
// nil (never an error) if no image is present or decode fails.
func (f *Frame) ToImage(codec imaging.Codec) image.Image {
	switch f.Header.PayloadType {
	case PngImage:
		img, err := codec.Decode(f.Payload)
		if err != nil {
			return nil
		}
		return img
	case TextAndPngImage:
		parts, err := UnpackLPS(f.Payload)
		if err != nil || len(parts) < 2 {
			return nil
		}
		img, err := codec.Decode(parts[1])
		if err != nil {
			return nil
		}
		return img
	case Complex, Requirement:
		_, images, _, _ := f.ToComplexWithCodec(codec)
		if len(images) > 0 {
			return images[0]
		}
	}
	return nil
}

// ToTextAndImage extracts both a text and an image from whichever shape
// the frame actually carries.
func (f *Frame) ToTextAndImage(codec imaging.Codec) (string, image.Image) {
	switch f.Header.PayloadType {
	case TextAndPngImage, PlainText, PngImage, Complex, Requirement:
		return f.ToText(), f.ToImage(codec)
	}
	return "", nil
}

// ToComplex extracts (texts, images, binaries) using the default PNG
// codec. Only meaningful for Complex/Requirement frames; any other
// payload_type yields three empty slices.
func (f *Frame) ToComplex() ([]string, []image.Image, [][]byte, *Frame) {
	return f.ToComplexWithCodec(imaging.Default)
}

// ToComplexWithCodec is ToComplex with an explicit image codec.
func (f *Frame) ToComplexWithCodec(codec imaging.Codec) ([]string, []image.Image, [][]byte, *Frame) {
	if f.Header.PayloadType != Complex && f.Header.PayloadType != Requirement {
		return nil, nil, nil, f
	}
	parts, err := UnpackLPS(f.Payload)
	if err != nil || len(parts) == 0 {
		return nil, nil, nil, f
	}
	nText, nImage, nBinary, err := unpackCounts(parts[0])
	if err != nil {
		return nil, nil, nil, f
	}

	items := parts[1:]
	idx := 0

	var texts []string
	for i := 0; i < nText && idx < len(items); i++ {
		texts = append(texts, string(items[idx]))
		idx++
	}

	var images []image.Image
	for i := 0; i < nImage && idx < len(items); i++ {
		if img, derr := codec.Decode(items[idx]); derr == nil {
			images = append(images, img)
		}
		idx++
	}

	var binaries [][]byte
	for i := 0; i < nBinary && idx < len(items); i++ {
		binaries = append(binaries, items[idx])
		idx++
	}

	return texts, images, binaries, f
}

// ToPacketFrame decodes a nested frame from a PacketFrame-tagged payload.
// Returns nil if the payload isn't PacketFrame or the nested decode fails.
func (f *Frame) ToPacketFrame() *Frame {
	if f.Header.PayloadType != PacketFrame {
		return nil
	}
	child, err := Decode(f.Payload)
	if err != nil {
		return nil
	}
	return child
}

// ToRequirement has the same layout as ToComplex; the tag alone
// distinguishes the semantic channel.
func (f *Frame) ToRequirement() ([]string, []image.Image, [][]byte, *Frame) {
	if f.Header.PayloadType != Requirement {
		return nil, nil, nil, f
	}
	return f.ToComplex()
}

// ToBase64Image emits the frame's first image as base64, optionally
// wrapped in a data: URL. Returns "" if no image is present.
func (f *Frame) ToBase64Image(withHeader bool, codec imaging.Codec) string {
	var raw []byte
	switch f.Header.PayloadType {
	case PngImage:
		raw = f.Payload
	case TextAndPngImage:
		parts, err := UnpackLPS(f.Payload)
		if err == nil && len(parts) >= 2 {
			raw = parts[1]
		}
	case Complex, Requirement:
		_, images, _, _ := f.ToComplexWithCodec(codec)
		if len(images) > 0 {
			if encoded, err := codec.Encode(images[0]); err == nil {
				raw = encoded
			}
		}
	}
	if len(raw) == 0 {
		return ""
	}
	b64 := base64.StdEncoding.EncodeToString(raw)
	if withHeader {
		return "data:image/png;base64," + b64
	}
	return b64
}

// ImageFromBase64 reverses ToBase64Image: decodes a base64 image,
// stripping a leading "data:...;base64," header if present.
func ImageFromBase64(data string, codec imaging.Codec) (image.Image, error) {
	if idx := strings.IndexByte(data, ','); idx >= 0 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return codec.Decode(raw)
}
