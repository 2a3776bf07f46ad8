// Package output encodes intensity fields as raster image files.
package output

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Supported formats.
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
	FormatBMP  = "bmp"
)

// Supported channel layouts.
const (
	ChannelGray = "gray" // single channel
	ChannelRGB  = "rgb"  // intensity replicated into R, G and B
	ChannelRed  = "red"  // intensity in R, G and B zero
)

// Options select the file format and pixel layout.
type Options struct {
	Format         string
	Channel        string
	PNGCompression string // default, speed, best, none
}

// DefaultOptions writes single-channel PNGs with default compression.
func DefaultOptions() Options {
	return Options{Format: FormatPNG, Channel: ChannelGray, PNGCompression: "default"}
}

// Validate checks that every option names a supported value.
func (o Options) Validate() error {
	switch o.Format {
	case FormatPNG, FormatTIFF, FormatBMP:
	default:
		return fmt.Errorf("unsupported format %q (want png, tiff or bmp)", o.Format)
	}
	switch o.Channel {
	case ChannelGray, ChannelRGB, ChannelRed:
	default:
		return fmt.Errorf("unsupported channel layout %q (want gray, rgb or red)", o.Channel)
	}
	if _, err := pngCompressionLevel(o.PNGCompression); err != nil {
		return err
	}
	return nil
}

// Ext returns the file extension for the configured format, including the dot.
func (o Options) Ext() string {
	if o.Format == FormatTIFF {
		return ".tiff"
	}
	return "." + o.Format
}

func pngCompressionLevel(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("invalid png compression %q (want default, speed, best or none)", name)
	}
}

// Image lays f out as an image according to channel. Pixel (x,y) of the field
// is pixel (x,y) of the image.
func Image(f *field.Field, channel string) (image.Image, error) {
	switch channel {
	case "", ChannelGray:
		return f.Gray(), nil
	case ChannelRGB, ChannelRed:
		img := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				v := f.At(x, y)
				c := color.NRGBA{R: v, G: v, B: v, A: 255}
				if channel == ChannelRed {
					c.G, c.B = 0, 0
				}
				img.SetNRGBA(x, y, c)
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported channel layout %q", channel)
	}
}

// Encode writes f to w.
func Encode(w io.Writer, f *field.Field, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	img, err := Image(f, opts.Channel)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		level, _ := pngCompressionLevel(opts.PNGCompression)
		enc := png.Encoder{CompressionLevel: level}
		return enc.Encode(w, img)
	}
}

// EncodeBytes returns the encoded image.
func EncodeBytes(f *field.Field, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes f into path, creating parent directories as needed.
func WriteFile(path string, f *field.Field, opts Options) error {
	data, err := EncodeBytes(f, opts)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Decode reads any supported image and returns its luminance as a field.
// For the red layout the red channel is used.
func Decode(r io.Reader, channel string) (*field.Field, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if g, ok := img.(*image.Gray); ok && channel != ChannelRed {
		return field.FromGray(g), nil
	}

	b := img.Bounds()
	f := field.New(b.Dx(), b.Dy())
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if channel == ChannelRed {
				r, _, _, _ := c.RGBA()
				f.Set(x, y, uint8(r>>8))
				continue
			}
			f.Set(x, y, color.GrayModel.Convert(c).(color.Gray).Y)
		}
	}
	return f, nil
}
