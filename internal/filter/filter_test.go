package filter

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/MeKo-Tech/seamlesstex/internal/field"
)

func randomField(w, h int, seed int64) *field.Field {
	rng := rand.New(rand.NewSource(seed))
	f := field.New(w, h)
	for i := range f.Pix {
		f.Pix[i] = uint8(rng.Intn(256))
	}
	return f
}

func constField(w, h int, v uint8) *field.Field {
	f := field.New(w, h)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestDirectionalBlurRadiusZeroIsIdentity(t *testing.T) {
	src := randomField(16, 12, 1)
	dir := randomField(16, 12, 2)

	out, err := DirectionalBlur(src, dir, 0, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equal(src) {
		t.Fatal("radius 0 must return the source unchanged")
	}
	out.Pix[0]++
	if out.Pix[0] == src.Pix[0] {
		t.Fatal("radius 0 must return a copy, not the source itself")
	}
}

func TestDirectionalBlurHorizontal(t *testing.T) {
	// Direction 0 is angle 0: samples run along +x.
	src := field.New(5, 1)
	copy(src.Pix, []uint8{0, 30, 60, 90, 120})
	dir := constField(5, 1, 0)

	out, err := DirectionalBlur(src, dir, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uint8{
		uint8(math.Round((120 + 0 + 30) / 3.0)), // wraps to x=4
		30, 60, 90,
		uint8(math.Round((90 + 120 + 0) / 3.0)), // wraps to x=0
	}
	for x, v := range want {
		if got := out.At(x, 0); got != v {
			t.Errorf("pixel %d: got %d, want %d", x, got, v)
		}
	}
}

func TestDirectionalBlurVertical(t *testing.T) {
	// Intensity 64 is a quarter turn: samples run along +y.
	src := field.New(1, 4)
	copy(src.Pix, []uint8{0, 100, 200, 40})
	dir := constField(1, 4, 64)

	out, err := DirectionalBlur(src, dir, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := out.At(0, 1), uint8(100); got != want {
		t.Fatalf("pixel (0,1): got %d, want %d", got, want)
	}
	if got, want := out.At(0, 0), uint8(math.Round(140/3.0)); got != want {
		t.Fatalf("pixel (0,0): got %d, want %d", got, want)
	}
}

func TestDirectionalBlurConstantSource(t *testing.T) {
	src := constField(9, 9, 77)
	dir := randomField(9, 9, 3)

	out, err := DirectionalBlur(src, dir, 5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out.Pix {
		if v != 77 {
			t.Fatalf("pixel %d: got %d, want 77", i, v)
		}
	}
}

func TestDirectionalBlurSeamless(t *testing.T) {
	// Blurring a shifted copy of a field must equal shifting the blurred
	// field: no pixel position, the borders included, is treated differently.
	const w, h = 24, 20
	src := randomField(w, h, 5)
	dir := randomField(w, h, 6)

	shift := func(f *field.Field, sx, sy int) *field.Field {
		out := field.New(f.W, f.H)
		for y := 0; y < f.H; y++ {
			for x := 0; x < f.W; x++ {
				out.Set((x+sx)%f.W, (y+sy)%f.H, f.At(x, y))
			}
		}
		return out
	}

	blurred, err := DirectionalBlur(src, dir, 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blurredShifted, err := DirectionalBlur(shift(src, 7, 11), shift(dir, 7, 11), 4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blurredShifted.Equal(shift(blurred, 7, 11)) {
		t.Fatal("directional blur is not shift-equivariant across the wrap edges")
	}
}

func TestDirectionalBlurWorkerIndependent(t *testing.T) {
	src := randomField(32, 32, 8)
	dir := randomField(32, 32, 9)

	a, _ := DirectionalBlur(src, dir, 3, 1)
	b, _ := DirectionalBlur(src, dir, 3, 6)
	if !a.Equal(b) {
		t.Fatal("result depends on worker count")
	}
}

func TestDirectionalBlurErrors(t *testing.T) {
	if _, err := DirectionalBlur(field.New(2, 2), field.New(3, 2), 1, 1); !errors.Is(err, field.ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
	if _, err := DirectionalBlur(field.New(2, 2), field.New(2, 2), -1, 1); err == nil {
		t.Fatal("expected error for negative radius")
	}
}

func TestAngle(t *testing.T) {
	if Angle(0) != 0 {
		t.Fatalf("Angle(0) = %f", Angle(0))
	}
	if got := Angle(128); math.Abs(got-math.Pi) > 1e-12 {
		t.Fatalf("Angle(128) = %f, want pi", got)
	}
	if Angle(255) >= 2*math.Pi {
		t.Fatal("Angle(255) must stay below a full turn")
	}
}

func TestNormalizeSurjective(t *testing.T) {
	f := field.New(4, 1)
	copy(f.Pix, []uint8{50, 100, 75, 150})

	out := Normalize(f)
	lo, hi := out.MinMax()
	if lo != 0 || hi != 255 {
		t.Fatalf("normalized range = [%d,%d], want [0,255]", lo, hi)
	}
	// (100-50)/100*255 = 127.5 -> 128; (75-50)/100*255 = 63.75 -> 64
	want := []uint8{0, 128, 64, 255}
	for i, v := range want {
		if out.Pix[i] != v {
			t.Errorf("pixel %d: got %d, want %d", i, out.Pix[i], v)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	f := randomField(16, 16, 10)
	for i := range f.Pix {
		f.Pix[i] = 40 + f.Pix[i]/3
	}

	once := Normalize(f)
	twice := Normalize(once)
	if !once.Equal(twice) {
		t.Fatal("normalizing twice must equal normalizing once")
	}
}

func TestNormalizeFlatField(t *testing.T) {
	f := constField(3, 3, 90)
	out := Normalize(f)
	if !out.Equal(f) {
		t.Fatal("flat field must be returned unchanged")
	}
}

func TestInvert(t *testing.T) {
	f := field.New(3, 1)
	copy(f.Pix, []uint8{0, 55, 255})
	out := Invert(f)
	want := []uint8{255, 200, 0}
	for i, v := range want {
		if out.Pix[i] != v {
			t.Errorf("pixel %d: got %d, want %d", i, out.Pix[i], v)
		}
	}
}
