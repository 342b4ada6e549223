package protocol

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
)

func TestFrameEncodeDecodeRoundTrip(t *testing.T) {
	f := NewFrame(1, 2, 3, 4, PlainText, []byte("hello"))
	buf := Encode(f)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, f.Header, decoded.Header)
	assert.Equal(t, f.Payload, decoded.Payload)
}

func TestFrameDecodeZeroPayload(t *testing.T) {
	f := NewFrame(0, 0, 0, 0, BinaryRaw, nil)
	buf := Encode(f)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), decoded.Header.PayloadSize)
	assert.Empty(t, decoded.Payload)
}

func TestFrameDecodeBadMagic(t *testing.T) {
	f := NewFrame(0, 0, 0, 0, PlainText, []byte("x"))
	buf := Encode(f)
	buf[0] = 'z'

	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestFrameDecodeShortHeader(t *testing.T) {
	_, err := Decode(make([]byte, 10))
	assert.ErrorIs(t, err, ErrShortHeader)
}

func TestFrameDecodeShortPayload(t *testing.T) {
	f := NewFrame(0, 0, 0, 0, PlainText, []byte("hello world"))
	buf := Encode(f)
	truncated := buf[:len(buf)-3]

	_, err := Decode(truncated)
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestUnknownPayloadTypeStringsAsUnknown(t *testing.T) {
	assert.Equal(t, "Unknown(42)", PayloadType(42).String())
	assert.Equal(t, "PlainText", PlainText.String())
}

func TestLPSPackUnpackRoundTrip(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte(""), []byte("longer item")}
	packed := PackLPS(items)

	unpacked, err := UnpackLPS(packed)
	require.NoError(t, err)
	assert.Equal(t, items, unpacked)
}

func TestLPSUnpackEmpty(t *testing.T) {
	unpacked, err := UnpackLPS(nil)
	require.NoError(t, err)
	assert.Empty(t, unpacked)
}

func TestLPSUnpackTruncated(t *testing.T) {
	packed := PackLPS([][]byte{[]byte("hello")})
	_, err := UnpackLPS(packed[:len(packed)-2])
	assert.ErrorIs(t, err, ErrTruncatedLPS)
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComplexRoundTrip(t *testing.T) {
	texts := []string{"a", "b"}
	images := []image.Image{solidImage(2, 2, color.White)}
	binaries := [][]byte{{0x00, 0x01}}

	f, err := NewComplex(1, 2, 0, 0, texts, images, binaries, imaging.Default)
	require.NoError(t, err)

	gotTexts, gotImages, gotBinaries, _ := f.ToComplex()
	assert.Equal(t, texts, gotTexts)
	require.Len(t, gotImages, 1)
	assert.Equal(t, binaries, gotBinaries)
}

func TestRequirementUsesComplexLayout(t *testing.T) {
	texts := []string{"order-1"}
	f, err := NewRequirement(1, 2, 0, 0, texts, nil, nil, imaging.Default)
	require.NoError(t, err)
	assert.Equal(t, Requirement, f.Header.PayloadType)

	gotTexts, _, _, _ := f.ToRequirement()
	assert.Equal(t, texts, gotTexts)
}

func TestToTextToleratesCrossForm(t *testing.T) {
	f := NewFrame(0, 0, 0, 0, PngImage, []byte("not text but tolerated"))
	assert.Equal(t, "", f.ToText())
}

func TestToBase64ImageRoundTrip(t *testing.T) {
	img := solidImage(1, 1, color.Black)
	f, err := Image(0, 0, 0, 0, img, imaging.Default)
	require.NoError(t, err)

	b64 := f.ToBase64Image(true, imaging.Default)
	assert.Contains(t, b64, "data:image/png;base64,")

	decoded, err := ImageFromBase64(b64, imaging.Default)
	require.NoError(t, err)
	assert.NotNil(t, decoded)
}

func TestPacketFrameRoundTrip(t *testing.T) {
	child := Text(10, 20, 30, 40, "nested")
	outer := NewPacketFrame(1, 2, 3, 4, child)

	got := outer.ToPacketFrame()
	require.NotNil(t, got)
	assert.Equal(t, child.Header, got.Header)
	assert.Equal(t, "nested", got.ToText())
}
