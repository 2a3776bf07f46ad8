// Package voronoi builds the toroidal nearest-site distance field.
package voronoi

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
	"github.com/MeKo-Tech/seamlesstex/internal/sites"
	"github.com/MeKo-Tech/seamlesstex/internal/torus"
	"github.com/MeKo-Tech/seamlesstex/internal/worker"
)

var (
	// ErrNoSites is returned when the site set is empty.
	ErrNoSites = errors.New("site set is empty")
	// ErrDegenerateField is returned when every pixel sits on a site, so the
	// maximum nearest-site distance is zero and cannot normalize the field.
	ErrDegenerateField = errors.New("maximum nearest-site distance is zero")
)

// Distances returns the toroidal nearest-site distance for every pixel of a
// size×size grid (row-major) together with the largest of them.
//
// Rows are split into bands; each band keeps a local maximum which is reduced
// once all bands are done.
func Distances(set sites.Set, size, workers int) ([]float64, float64, error) {
	if size <= 0 {
		return nil, 0, fmt.Errorf("distance field: size must be positive, got %d", size)
	}
	if set.Len() == 0 {
		return nil, 0, fmt.Errorf("distance field: %w", ErrNoSites)
	}

	dist := make([]float64, size*size)
	localMax := make([]float64, worker.BandCount(size, workers))

	worker.Rows(size, workers, func(band, y0, y1 int) {
		m := 0.0
		for y := y0; y < y1; y++ {
			row := dist[y*size : (y+1)*size]
			for x := range row {
				d := set.Nearest(torus.PixelPoint(x, y, size, size))
				row[x] = d
				if d > m {
					m = d
				}
			}
		}
		localMax[band] = m
	})

	maxDist := 0.0
	for _, m := range localMax {
		maxDist = math.Max(maxDist, m)
	}
	return dist, maxDist, nil
}

// Generate computes the inverted, normalized distance field: pixels on a site
// are 0 and the pixels farthest from every site are 255.
//
// Pass 1 finds the global maximum nearest-site distance; pass 2 maps each
// distance d to 255 - round((1 - d/maxDist) * 255).
func Generate(set sites.Set, size, workers int) (*field.Field, error) {
	dist, maxDist, err := Distances(set, size, workers)
	if err != nil {
		return nil, err
	}
	if maxDist == 0 {
		return nil, fmt.Errorf("distance field: %w (%d sites on a %dx%d grid)",
			ErrDegenerateField, set.Len(), size, size)
	}

	out := field.New(size, size)
	worker.Rows(size, workers, func(_, y0, y1 int) {
		for i := y0 * size; i < y1*size; i++ {
			t := 1 - dist[i]/maxDist
			out.Pix[i] = field.ClampU8(255 - int(math.Round(t*255)))
		}
	})
	return out, nil
}
