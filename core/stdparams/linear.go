package stdparams

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LinearRelation models the largest secure log2 modulus of an LWE instance of
// dimension n as A*n + B.
type LinearRelation struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

// LogModulus returns A*dim + B.
func (r LinearRelation) LogModulus(dim int) float64 {
	return r.A*float64(dim) + r.B
}

// Dimension returns the smallest dimension for which logQ is secure.
func (r LinearRelation) Dimension(logQ int) int {
	return int(math.Ceil((float64(logQ) - r.B) / r.A))
}

// Fitted on lattice-estimator runs with ternary secrets and sigma = 3.19.
var relations = map[SecurityLevel]LinearRelation{
	STD128:  {A: 0.026243550051145488, B: -0.19332645282074845},
	STD128Q: {A: 0.024334365322949414, B: 0.026487788095649},
	STD192:  {A: 0.01843137255110034, B: -0.6666666695778614},
	STD192Q: {A: 0.017254901960954656, B: -0.9019607843827292},
	STD256:  {A: 0.014352941174320843, B: -1.0014705882400903},
	STD256Q: {A: 0.01339285714070515, B: -1.083333333337455},
}

// Relation returns the linear relation of a standard security level.
func Relation(level SecurityLevel) (LinearRelation, error) {
	r, ok := relations[level]
	if !ok {
		return LinearRelation{}, fmt.Errorf("no linear relation for security level %s", level)
	}
	return r, nil
}

// MaxLogModulus returns the analytical estimate ceil(A*dim + B) of the log2
// modulus that reaches the given security level in dimension dim. It is used
// as the starting point before the lattice estimator is consulted.
func MaxLogModulus(dim int, level SecurityLevel) (int, error) {
	r, err := Relation(level)
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(r.LogModulus(dim))), nil
}

// Point is a (dimension, log2 modulus) pair at which a level is just met.
type Point struct {
	Dim  int     `yaml:"n"`
	LogQ float64 `yaml:"logq"`
}

// FitLinearRelation returns the least-squares line through points.
func FitLinearRelation(points []Point) (LinearRelation, error) {

	if len(points) < 2 {
		return LinearRelation{}, errors.New("at least two points are required")
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = float64(p.Dim)
		y[i] = p.LogQ
	}

	if stat.Variance(x, nil) == 0 {
		return LinearRelation{}, errors.New("points must span at least two dimensions")
	}

	b, a := stat.LinearRegression(x, y, nil, false)

	return LinearRelation{A: a, B: b}, nil
}
