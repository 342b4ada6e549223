// Package imaging defines the byte<->image boundary the frame codec treats
// as an opaque external collaborator.
package imaging

import (
	"bytes"
	"image"
	"image/png"
)

// Codec encodes and decodes the image payloads carried inside PngImage,
// TextAndPngImage, Complex and Requirement frames. The frame codec only
// ever talks to this interface, never to a concrete image library, so a
// caller can swap encoders without touching protocol.Encode/Decode.
type Codec interface {
	Encode(img image.Image) ([]byte, error)
	Decode(data []byte) (image.Image, error)
}

// PNGCodec is the default Codec, backed by the standard library's
// image/png. No third-party PNG codec appears anywhere in the example
// corpus; see DESIGN.md for why stdlib is the right call here.
type PNGCodec struct{}

// Encode writes img as PNG bytes.
func (PNGCodec) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a PNG image from data.
func (PNGCodec) Decode(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// Default is the package-level PNGCodec instance most callers use.
var Default Codec = PNGCodec{}
