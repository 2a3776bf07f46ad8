package noise

import (
	"math"
	"math/rand"
)

var grad4 = [32][4]float64{
	{0, 1, 1, 1}, {0, 1, 1, -1}, {0, 1, -1, 1}, {0, 1, -1, -1},
	{0, -1, 1, 1}, {0, -1, 1, -1}, {0, -1, -1, 1}, {0, -1, -1, -1},
	{1, 0, 1, 1}, {1, 0, 1, -1}, {1, 0, -1, 1}, {1, 0, -1, -1},
	{-1, 0, 1, 1}, {-1, 0, 1, -1}, {-1, 0, -1, 1}, {-1, 0, -1, -1},
	{1, 1, 0, 1}, {1, 1, 0, -1}, {1, -1, 0, 1}, {1, -1, 0, -1},
	{-1, 1, 0, 1}, {-1, 1, 0, -1}, {-1, -1, 0, 1}, {-1, -1, 0, -1},
	{1, 1, 1, 0}, {1, 1, -1, 0}, {1, -1, 1, 0}, {1, -1, -1, 0},
	{-1, 1, 1, 0}, {-1, 1, -1, 0}, {-1, -1, 1, 0}, {-1, -1, -1, 0},
}

const (
	f4 = 0.30901699437494745 // (sqrt(5)-1)/4
	g4 = 0.1381966011250105  // (5-sqrt(5))/20

	// falloff is the squared kernel radius. At 0.5 a corner's contribution
	// reaches zero before the simplex boundary, so the noise is continuous.
	falloff = 0.5
	// scale maps the summed contributions back to roughly [-1,1].
	scale = 56.0
)

// simplex is a seeded 4D simplex noise generator. The permutation table is
// read-only after construction, so one instance is safe for concurrent use.
type simplex struct {
	perm [512]uint8
}

func newSimplex(seed int64) *simplex {
	s := &simplex{}
	r := rand.New(rand.NewSource(seed))
	p := make([]uint8, 256)
	for i := range p {
		p[i] = uint8(i)
	}
	for i := 255; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	for i := range s.perm {
		s.perm[i] = p[i&255]
	}
	return s
}

func fastFloor(x float64) int {
	return int(math.Floor(x))
}

// noise4D returns simplex noise in roughly [-1,1].
func (s *simplex) noise4D(x, y, z, w float64) float64 {
	t := (x + y + z + w) * f4
	i := fastFloor(x + t)
	j := fastFloor(y + t)
	k := fastFloor(z + t)
	l := fastFloor(w + t)

	t0 := float64(i+j+k+l) * g4
	var c [5][4]float64
	c[0] = [4]float64{x - (float64(i) - t0), y - (float64(j) - t0), z - (float64(k) - t0), w - (float64(l) - t0)}

	// Rank each axis to find which simplex we are in; each corner step moves
	// one axis, largest offset first.
	var rank [4]int
	x0 := c[0]
	for a := 0; a < 4; a++ {
		for b := a + 1; b < 4; b++ {
			if x0[a] > x0[b] {
				rank[a]++
			} else {
				rank[b]++
			}
		}
	}

	var step [5][4]int
	for n := 1; n <= 3; n++ {
		for a := 0; a < 4; a++ {
			if rank[a] >= 4-n {
				step[n][a] = 1
			}
		}
	}
	step[4] = [4]int{1, 1, 1, 1}

	for n := 1; n <= 4; n++ {
		for a := 0; a < 4; a++ {
			c[n][a] = x0[a] - float64(step[n][a]) + float64(n)*g4
		}
	}

	ii, jj, kk, ll := i&255, j&255, k&255, l&255
	sum := 0.0
	for n := 0; n < 5; n++ {
		st := step[n]
		gi := s.perm[ii+st[0]+int(s.perm[jj+st[1]+int(s.perm[kk+st[2]+int(s.perm[ll+st[3]])])])] % 32
		p := c[n]
		tc := falloff - p[0]*p[0] - p[1]*p[1] - p[2]*p[2] - p[3]*p[3]
		if tc > 0 {
			tc *= tc
			g := grad4[gi]
			sum += tc * tc * (g[0]*p[0] + g[1]*p[1] + g[2]*p[2] + g[3]*p[3])
		}
	}
	return scale * sum
}
