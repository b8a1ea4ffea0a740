package search

import (
	"context"
	"fmt"
)

// EvalFunc returns the noise measured for LWE dimension n.
type EvalFunc func(ctx context.Context, n int) (float64, error)

// SearchDimension returns the smallest n in [lo, hi] whose noise is at most
// target, together with that noise. Noise is assumed non-increasing in n.
// ErrNotFound is returned if even hi does not meet the target.
func SearchDimension(ctx context.Context, lo, hi int, target float64, eval EvalFunc) (n int, noise float64, err error) {

	if lo > hi {
		return 0, 0, fmt.Errorf("empty range [%d, %d]", lo, hi)
	}

	if noise, err = eval(ctx, hi); err != nil {
		return 0, 0, err
	}
	if noise > target {
		return 0, 0, fmt.Errorf("%w: noise %.4g at n=%d exceeds %.4g", ErrNotFound, noise, hi, target)
	}

	n = hi
	for l, h := lo, hi-1; l <= h; {
		mid := l + (h-l)/2
		v, err := eval(ctx, mid)
		if err != nil {
			return 0, 0, err
		}
		if v <= target {
			n, noise = mid, v
			h = mid - 1
		} else {
			l = mid + 1
		}
	}

	return n, noise, nil
}
