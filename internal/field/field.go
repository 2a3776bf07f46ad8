// Package field defines the dense 8-bit intensity grid passed between stages.
package field

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrSizeMismatch is returned when two fields that must share dimensions do not.
var ErrSizeMismatch = errors.New("field dimensions differ")

// Field is a W×H grid of single-channel intensities stored row-major.
// Stages treat fields as values: they read their inputs and return new fields.
type Field struct {
	W   int
	H   int
	Pix []uint8
}

// New allocates a zeroed w×h field.
func New(w, h int) *Field {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Field{W: w, H: h, Pix: make([]uint8, w*h)}
}

// Idx returns the offset of (x,y) in Pix.
func (f *Field) Idx(x, y int) int { return y*f.W + x }

// At returns the intensity at (x,y).
func (f *Field) At(x, y int) uint8 { return f.Pix[y*f.W+x] }

// Set stores v at (x,y).
func (f *Field) Set(x, y int, v uint8) { f.Pix[y*f.W+x] = v }

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	cp := &Field{W: f.W, H: f.H, Pix: make([]uint8, len(f.Pix))}
	copy(cp.Pix, f.Pix)
	return cp
}

// SameSize reports whether f and o have identical dimensions.
func (f *Field) SameSize(o *Field) bool {
	return f != nil && o != nil && f.W == o.W && f.H == o.H
}

// CheckSameSize returns ErrSizeMismatch (wrapped with both sizes) unless
// f and o have the same dimensions.
func CheckSameSize(f, o *Field) error {
	if f == nil || o == nil {
		return errors.New("field is nil")
	}
	if !f.SameSize(o) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, f.W, f.H, o.W, o.H)
	}
	return nil
}

// Equal reports whether both fields have the same size and pixels.
func (f *Field) Equal(o *Field) bool {
	if !f.SameSize(o) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// MinMax returns the smallest and largest intensity in the field.
// An empty field reports (0, 0).
func (f *Field) MinMax() (lo, hi uint8) {
	if len(f.Pix) == 0 {
		return 0, 0
	}
	lo, hi = 255, 0
	for _, v := range f.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Mean returns the average intensity.
func (f *Field) Mean() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	sum := 0
	for _, v := range f.Pix {
		sum += int(v)
	}
	return float64(sum) / float64(len(f.Pix))
}

// Gray converts the field into an *image.Gray with identical pixel layout.
func (f *Field) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.W, f.H))
	for y := 0; y < f.H; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+f.W], f.Pix[y*f.W:(y+1)*f.W])
	}
	return img
}

// FromGray copies a grayscale image into a new field. The image origin maps
// to field pixel (0,0).
func FromGray(img *image.Gray) *Field {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy())
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			f.Pix[y*f.W+x] = img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
		}
	}
	return f
}

// ClampU8 clamps an int value to the uint8 range [0, 255].
func ClampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// RoundU8 rounds v half away from zero and clamps it to [0, 255].
func RoundU8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return ClampU8(int(math.Round(math.Max(-1, math.Min(256, v)))))
}
