package imagecodec

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.Set(1, 1, color.NRGBA{R: 200, A: 255})

	data, err := EncodePNG(src)
	require.NoError(t, err)
	img, format, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, src.Bounds(), img.Bounds())

	data, err = EncodeJPEG(src)
	require.NoError(t, err)
	_, format, err = Decode(data)
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := Decode(nil)
	require.ErrorIs(t, err, ErrEmpty)

	_, _, err = Decode([]byte("not an image"))
	require.Error(t, err)

	_, err = EncodeJPEG(nil)
	require.ErrorIs(t, err, ErrEmpty)
}
