package pix

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brCode = "000201265802BR5913NOMECOMPLETO6009SAOPAULO62070503***6304E2A8"

func TestQRCodePNG(t *testing.T) {
	data, err := QRCodePNG(brCode, 256)

	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestQRCodePNGDefaultSize(t *testing.T) {
	data, err := QRCodePNG(brCode, 0)

	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestQRCodePNGEmptyContent(t *testing.T) {
	_, err := QRCodePNG("", 128)

	assert.Error(t, err)
}
