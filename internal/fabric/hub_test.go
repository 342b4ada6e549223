package fabric

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhag/Py.HagLib.Socket/internal/imaging"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
)

func TestHubDispatchOrder(t *testing.T) {
	h := NewHub(nil)
	var order []int
	h.AddTextListener(func(string, *protocol.Frame) { order = append(order, 1) })
	h.AddTextListener(func(string, *protocol.Frame) { order = append(order, 2) })

	h.RaiseText("hi", protocol.Text(0, 0, 0, 0, "hi"))

	assert.Equal(t, []int{1, 2}, order)
}

func TestHubCatchesPanicAndContinues(t *testing.T) {
	h := NewHub(nil)
	second := false
	h.AddTextListener(func(string, *protocol.Frame) { panic("boom") })
	h.AddTextListener(func(string, *protocol.Frame) { second = true })

	assert.NotPanics(t, func() {
		h.RaiseText("hi", protocol.Text(0, 0, 0, 0, "hi"))
	})
	assert.True(t, second)
}

func TestDispatchHandshakeGoesOnlyToLogMessage(t *testing.T) {
	h := NewHub(nil)
	var textCalls, logCalls int
	h.AddTextListener(func(string, *protocol.Frame) { textCalls++ })
	h.AddLogMessageListener(func(string) { logCalls++ })

	frame := protocol.Text(0, 0, 1, 1, "CONNECT:1:1")
	Dispatch(h, frame, imaging.Default)

	assert.Equal(t, 0, textCalls)
	assert.Equal(t, 1, logCalls)
}

func TestDispatchPlainTextGoesToText(t *testing.T) {
	h := NewHub(nil)
	var got string
	h.AddTextListener(func(message string, frame *protocol.Frame) { got = message })

	Dispatch(h, protocol.Text(0, 0, 0, 0, "hello"), imaging.Default)

	assert.Equal(t, "hello", got)
}

func TestDispatchImage(t *testing.T) {
	h := NewHub(nil)
	var gotImg image.Image
	h.AddImageListener(func(img image.Image, frame *protocol.Frame) { gotImg = img })

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	f, err := protocol.Image(0, 0, 0, 0, img, imaging.Default)
	require.NoError(t, err)

	Dispatch(h, f, imaging.Default)
	assert.NotNil(t, gotImg)
}

func TestDispatchUnknownPayloadGoesToBinary(t *testing.T) {
	h := NewHub(nil)
	var called bool
	h.AddBinaryListener(func(frame *protocol.Frame) { called = true })

	f := protocol.NewFrame(0, 0, 0, 0, protocol.PayloadType(99999), []byte("raw"))
	Dispatch(h, f, imaging.Default)

	assert.True(t, called)
}

func TestDispatchComplex(t *testing.T) {
	h := NewHub(nil)
	var gotTexts []string
	var gotBinaries [][]byte
	h.AddComplexListener(func(texts []string, images []image.Image, binaries [][]byte, frame *protocol.Frame) {
		gotTexts = texts
		gotBinaries = binaries
	})

	f, err := protocol.NewComplex(0, 0, 0, 0, []string{"a", "b"}, nil, [][]byte{{1, 2}}, imaging.Default)
	require.NoError(t, err)

	Dispatch(h, f, imaging.Default)
	assert.Equal(t, []string{"a", "b"}, gotTexts)
	assert.Equal(t, [][]byte{{1, 2}}, gotBinaries)
}
