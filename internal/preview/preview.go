// Package preview renders tiled mosaics of a texture so seams can be inspected.
package preview

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/torus"
	"github.com/disintegration/gift"
)

// Tile repeats f n×n times. The top-left copy is offset by (offsetX, offsetY)
// so the original borders land in the middle of the mosaic.
func Tile(f *field.Field, n, offsetX, offsetY int) *field.Field {
	if n < 1 {
		n = 1
	}
	out := field.New(f.W*n, f.H*n)
	if f.W == 0 || f.H == 0 {
		return out
	}
	for y := 0; y < out.H; y++ {
		sy := torus.WrapIndex(offsetY+y, f.H)
		for x := 0; x < out.W; x++ {
			sx := torus.WrapIndex(offsetX+x, f.W)
			out.Pix[y*out.W+x] = f.Pix[sy*f.W+sx]
		}
	}
	return out
}

// Mosaic tiles f n×n, shifted by half a tile so every wrap edge crosses the
// interior, and resamples the result to size×size with a Lanczos filter.
// size <= 0 keeps the native mosaic resolution.
func Mosaic(f *field.Field, n, size int) (*field.Field, error) {
	if f == nil || f.W == 0 || f.H == 0 {
		return nil, fmt.Errorf("preview: empty field")
	}
	tiled := Tile(f, n, f.W/2, f.H/2)
	if size <= 0 || (size == tiled.W && size == tiled.H) {
		return tiled, nil
	}

	g := gift.New(gift.Resize(size, size, gift.LanczosResampling))
	src := tiled.Gray()
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return field.FromGray(dst), nil
}

// SeamScore compares the intensity jump across the wrap edges with the
// average jump between interior neighbours. A seamless field scores about 1;
// a visible seam scores well above it. A perfectly flat field scores 1.
func SeamScore(f *field.Field) float64 {
	if f.W < 2 || f.H < 2 {
		return 1
	}

	var interior, edge float64
	var nInterior, nEdge int
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			right := absDiff(f.At(x, y), f.At((x+1)%f.W, y))
			down := absDiff(f.At(x, y), f.At(x, (y+1)%f.H))
			if x == f.W-1 {
				edge += right
				nEdge++
			} else {
				interior += right
				nInterior++
			}
			if y == f.H-1 {
				edge += down
				nEdge++
			} else {
				interior += down
				nInterior++
			}
		}
	}

	meanInterior := interior / float64(nInterior)
	meanEdge := edge / float64(nEdge)
	if meanInterior == 0 {
		if meanEdge == 0 {
			return 1
		}
		return meanEdge
	}
	return meanEdge / meanInterior
}

func absDiff(a, b uint8) float64 {
	if a > b {
		return float64(a - b)
	}
	return float64(b - a)
}
