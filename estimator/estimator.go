// Package estimator evaluates the security of LWE instances. Estimates come
// either from the external lattice estimator (Command), from the linear
// relations fitted on its past runs (Analytic), or from a Cache in front of
// either one.
package estimator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

// ErrNoEstimate is returned when none of the attacks that define the
// security level could be estimated.
var ErrNoEstimate = errors.New("no usable attack estimate")

// DefaultSigma is the standard deviation of the error distribution.
const DefaultSigma = 3.19

// SecurityAttacks are the attacks whose minimum cost defines the security.
var SecurityAttacks = []string{"usvp", "dual", "bdd"}

// DeniedAttacks are never run: they are either slow or never the cheapest
// for the parameter ranges of FHEW.
var DeniedAttacks = []string{"bkw", "bdd_hybrid", "bdd_mitm_hybrid", "dual_hybrid", "dual_mitm_hybrid", "arora-gb"}

// Query describes one LWE instance.
type Query struct {
	Dim     int                `yaml:"n"`
	LogQ    int                `yaml:"logq"`
	Dist    stdparams.DistType `yaml:"dist"`
	Quantum bool               `yaml:"quantum"`
	Sigma   float64            `yaml:"sigma"`
}

func (q Query) String() string {
	return fmt.Sprintf("n=%d logq=%d dist=%s model=%s", q.Dim, q.LogQ, q.Dist.Short(), CostModel(q.Quantum))
}

func (q Query) fields() logrus.Fields {
	return logrus.Fields{"n": q.Dim, "logq": q.LogQ, "dist": q.Dist.Short(), "quantum": q.Quantum}
}

// Estimate is the result of a security estimation. Attacks maps each
// estimated attack to log2 of its cost.
type Estimate struct {
	Bits    int                `yaml:"bits"`
	Attacks map[string]float64 `yaml:"attacks,omitempty"`
}

// Secure reports whether the estimate meets the given level.
func (e Estimate) Secure(level stdparams.SecurityLevel) bool {
	return e.Bits >= level.Bits
}

// Estimator estimates the security of LWE instances.
type Estimator interface {
	Estimate(ctx context.Context, q Query) (Estimate, error)
}

// Func adapts a function to the Estimator interface.
type Func func(ctx context.Context, q Query) (Estimate, error)

func (f Func) Estimate(ctx context.Context, q Query) (Estimate, error) {
	return f(ctx, q)
}

// CostModel returns the lattice reduction cost model of the estimator.
func CostModel(quantum bool) string {
	if quantum {
		return "LaaMosPol14"
	}
	return "BDGL16"
}

// e.g. "usvp                 :: rop: ≈2^131.3, red: ≈2^131.3, δ: 1.004"
var ropLine = regexp.MustCompile(`^\s*([A-Za-z][\w\-]*)\s*::.*?\brop:\s*≈?\s*2\^\s*([-+]?(?:[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?|inf))`)

// Parse reads the output of the lattice estimator and returns the floor of
// the minimum log2 cost over SecurityAttacks. Other attacks are recorded but
// do not count towards the security.
func Parse(r io.Reader) (Estimate, error) {

	est := Estimate{Attacks: map[string]float64{}}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := ropLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Estimate{}, fmt.Errorf("parsing cost of %s: %w", m[1], err)
		}
		est.Attacks[strings.ToLower(m[1])] = v
	}
	if err := scanner.Err(); err != nil {
		return Estimate{}, err
	}

	minCost := math.Inf(1)
	found := false
	for _, name := range SecurityAttacks {
		if v, ok := est.Attacks[name]; ok {
			found = true
			minCost = math.Min(minCost, v)
		}
	}

	if !found {
		return Estimate{}, ErrNoEstimate
	}

	if math.IsInf(minCost, 1) {
		est.Bits = math.MaxInt32
	} else {
		est.Bits = int(math.Floor(minCost))
	}

	return est, nil
}
