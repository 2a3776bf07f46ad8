package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *field.Field {
	f := field.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, uint8((x*37+y*11)%256))
		}
	}
	return f
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := gradient(13, 7)

	for _, format := range []string{FormatPNG, FormatTIFF, FormatBMP} {
		for _, channel := range []string{ChannelGray, ChannelRGB, ChannelRed} {
			t.Run(format+"_"+channel, func(t *testing.T) {
				opts := Options{Format: format, Channel: channel, PNGCompression: "speed"}
				data, err := EncodeBytes(f, opts)
				require.NoError(t, err)

				back, err := Decode(bytes.NewReader(data), channel)
				require.NoError(t, err)
				assert.True(t, back.Equal(f), "pixels must survive %s/%s", format, channel)
			})
		}
	}
}

func TestImageRedLayout(t *testing.T) {
	f := field.New(1, 1)
	f.Set(0, 0, 200)

	img, err := Image(f, ChannelRed)
	require.NoError(t, err)
	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(200), r>>8)
	assert.Zero(t, g)
	assert.Zero(t, b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.Format = "gif"
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.Channel = "cmyk"
	assert.Error(t, bad.Validate())

	bad = DefaultOptions()
	bad.PNGCompression = "ultra"
	assert.Error(t, bad.Validate())
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".png", Options{Format: FormatPNG}.Ext())
	assert.Equal(t, ".tiff", Options{Format: FormatTIFF}.Ext())
	assert.Equal(t, ".bmp", Options{Format: FormatBMP}.Ext())
}

func TestWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "tex.png")
	require.NoError(t, WriteFile(path, gradient(4, 4), DefaultOptions()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	back, err := Decode(file, ChannelGray)
	require.NoError(t, err)
	assert.True(t, back.Equal(gradient(4, 4)))
}
