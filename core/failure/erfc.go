package failure

import (
	"math"
)

// Beyond this point math.Erfc gets within a few hundred bits of underflow and
// the asymptotic expansion is accurate to better than 1e-10.
const asymptoticThreshold = 25.0

// math.Erfcinv(y) evaluates Erfinv(1-y), which rounds to Erfinv(1) once y
// drops below the float64 epsilon.
const minDirectLog2 = -40.0

// Log2Erfc returns log2(erfc(x)), finite for every finite x.
func Log2Erfc(x float64) float64 {

	if math.IsNaN(x) {
		return math.NaN()
	}

	if x < asymptoticThreshold {
		return math.Log2(math.Erfc(x))
	}

	if math.IsInf(x, 1) {
		return math.Inf(-1)
	}

	// erfc(x) = exp(-x^2)/(x*sqrt(pi)) * (1 - 1/(2x^2) + 3/(4x^4) - 15/(8x^6) + ...)
	x2 := x * x
	inv := 1 / (2 * x2)
	series := 1 - inv + 3*inv*inv - 15*inv*inv*inv

	return (-x2 - math.Log(x*math.SqrtPi) + math.Log(series)) / math.Ln2
}

// ErfcinvLog2 returns the x such that log2(erfc(x)) = log2y, for log2y < 1.
func ErfcinvLog2(log2y float64) float64 {

	if math.IsNaN(log2y) || log2y >= 1 {
		return math.NaN()
	}

	var x float64
	if log2y > minDirectLog2 {
		x = math.Erfcinv(math.Exp2(log2y))
	} else {
		x = math.Sqrt(-log2y * math.Ln2)
	}

	// Newton refinement on log2(erfc(x)).
	// d/dx log2(erfc(x)) = -2/sqrt(pi) * exp(-x^2 - ln(erfc(x))) / ln(2)
	for i := 0; i < 64; i++ {
		l := Log2Erfc(x)
		deriv := -2 / math.SqrtPi * math.Exp(-x*x-l*math.Ln2) / math.Ln2
		step := (l - log2y) / deriv
		x -= step
		if math.Abs(step) <= 1e-14*math.Max(1, math.Abs(x)) {
			break
		}
	}

	return x
}
