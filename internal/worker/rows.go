package worker

import (
	"runtime"
	"sync"
)

// Workers resolves a requested worker count: values <= 0 mean one per CPU.
func Workers(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Rows splits the half-open row range [0,h) into contiguous bands and calls
// fn(band, y0, y1) for each band on its own goroutine. It returns once every
// band has finished. band is in [0, bands) where bands is the returned count,
// so callers can keep per-band partial results (e.g. a local maximum) and
// reduce them after the barrier.
func Rows(h, workers int, fn func(band, y0, y1 int)) int {
	if h <= 0 {
		return 0
	}
	bands := Workers(workers)
	if bands > h {
		bands = h
	}
	if bands == 1 {
		fn(0, 0, h)
		return 1
	}

	per, rem := h/bands, h%bands
	var wg sync.WaitGroup
	wg.Add(bands)
	y := 0
	for b := 0; b < bands; b++ {
		n := per
		if b < rem {
			n++
		}
		go func(b, y0, y1 int) {
			defer wg.Done()
			fn(b, y0, y1)
		}(b, y, y+n)
		y += n
	}
	wg.Wait()
	return bands
}

// BandCount returns how many bands Rows will use for h rows and the given
// worker request, so callers can size per-band buffers up front.
func BandCount(h, workers int) int {
	if h <= 0 {
		return 0
	}
	bands := Workers(workers)
	if bands > h {
		bands = h
	}
	return bands
}
