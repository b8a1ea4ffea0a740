package estimator

import (
	"context"
	"fmt"
	"math"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

// Analytic estimates security from the linear relations between dimension
// and log-modulus of the standard levels. For a dimension n each level L
// defines a ratio n / logQ_L(n); the security of (n, logq) is interpolated
// linearly in n / logq between the levels and extrapolated beyond them.
//
// The relations were fitted for ternary secrets, so Dist is ignored. It is
// meant for dry runs and as a fallback when no estimator is installed.
type Analytic struct{}

func (Analytic) Estimate(ctx context.Context, q Query) (Estimate, error) {

	if err := ctx.Err(); err != nil {
		return Estimate{}, err
	}

	if q.Dim < 1 || q.LogQ < 1 {
		return Estimate{}, fmt.Errorf("%w: %s", ErrNoEstimate, q)
	}

	var xs, ys []float64
	for _, level := range stdparams.SecurityLevels() {
		if level.Quantum != q.Quantum {
			continue
		}
		r, err := stdparams.Relation(level)
		if err != nil {
			return Estimate{}, err
		}
		logQ := r.LogModulus(q.Dim)
		if logQ <= 0 {
			return Estimate{}, fmt.Errorf("%w: dimension %d is below the range of the %s relation", ErrNoEstimate, q.Dim, level)
		}
		xs = append(xs, float64(q.Dim)/logQ)
		ys = append(ys, float64(level.Bits))
	}

	bits := interpolate(xs, ys, float64(q.Dim)/float64(q.LogQ))
	if bits < 0 {
		bits = 0
	}

	return Estimate{
		Bits:    int(math.Floor(bits)),
		Attacks: map[string]float64{"analytic": bits},
	}, nil
}

// interpolate evaluates the piecewise linear function through (xs, ys) at x.
// xs must be increasing; the first and last segments are extended.
func interpolate(xs, ys []float64, x float64) float64 {
	i := 1
	for i < len(xs)-1 && x > xs[i] {
		i++
	}
	return ys[i-1] + (x-xs[i-1])*(ys[i]-ys[i-1])/(xs[i]-xs[i-1])
}
