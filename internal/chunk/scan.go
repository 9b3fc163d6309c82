package chunk

import (
	"sort"
	"sync"
)

// minScanBlock is the smallest per-worker range worth the blockwise
// scan's extra passes; below it the sequential scan wins.
const minScanBlock = 1024

// scanChunk replaces every stride-th element of seg with the inclusive
// running sum of its weight: |v|^2 when dot is set, the raw value
// otherwise. n is the strided position count. The parallel strategy is
// the usual blockwise scan: per-worker local scans, a sequential prefix
// over the block totals, then a parallel offset fix-up. A nested or
// single-worker context falls back to the plain left-to-right scan.
func scanChunk[C Complex](ex Exec, seg []C, stride, n int, dot bool) {
	w := ex.Workers()
	if ex.InParallel() || w == 1 || n < w*minScanBlock {
		scanRange(seg, stride, 0, n, dot)
		return
	}

	totals := make([]C, w)
	var wg sync.WaitGroup
	wg.Add(w)
	for t := 0; t < w; t++ {
		go func(t, lo, hi int) {
			defer wg.Done()
			if lo < hi {
				totals[t] = scanRange(seg, stride, lo, hi, dot)
			}
		}(t, t*n/w, (t+1)*n/w)
	}
	wg.Wait()

	offsets := make([]C, w)
	var run C
	for t := 0; t < w; t++ {
		offsets[t] = run
		run += totals[t]
	}

	wg.Add(w - 1)
	for t := 1; t < w; t++ {
		go func(lo, hi int, off C) {
			defer wg.Done()
			for k := lo; k < hi; k++ {
				seg[k*stride] += off
			}
		}(t*n/w, (t+1)*n/w, offsets[t])
	}
	wg.Wait()
}

// scanRange performs the sequential in-place scan over positions
// [lo, hi) and returns the range's total.
func scanRange[C Complex](seg []C, stride, lo, hi int, dot bool) C {
	var sum C
	for k := lo; k < hi; k++ {
		v := seg[k*stride]
		if dot {
			v = absSq(v)
		}
		sum += v
		seg[k*stride] = sum
	}
	return sum
}

// lowerBound returns the first strided position whose cumulative sum is
// not less than r, comparing real parts. Values at or past the total
// mass clamp to the last position.
func lowerBound[C Complex](seg []C, stride, n int, r float64) int {
	idx := sort.Search(n, func(k int) bool {
		return realPart(seg[k*stride]) >= r
	})
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// reduceChunk sums the weight of every stride-th element of seg into a
// complex128 accumulator. Partial sums are combined in worker order so
// the reduction stays deterministic for a fixed worker count.
func reduceChunk[C Complex](ex Exec, seg []C, stride, n int, dot bool) complex128 {
	w := ex.Workers()
	if ex.InParallel() || w == 1 || n < w*minScanBlock {
		return reduceRange(seg, stride, 0, n, dot)
	}

	partial := make([]complex128, w)
	var wg sync.WaitGroup
	wg.Add(w)
	for t := 0; t < w; t++ {
		go func(t, lo, hi int) {
			defer wg.Done()
			if lo < hi {
				partial[t] = reduceRange(seg, stride, lo, hi, dot)
			}
		}(t, t*n/w, (t+1)*n/w)
	}
	wg.Wait()

	var sum complex128
	for _, p := range partial {
		sum += p
	}
	return sum
}

func reduceRange[C Complex](seg []C, stride, lo, hi int, dot bool) complex128 {
	var sum complex128
	for k := lo; k < hi; k++ {
		v := promote(seg[k*stride])
		if dot {
			sum += complex(real(v)*real(v)+imag(v)*imag(v), 0)
		} else {
			sum += v
		}
	}
	return sum
}
