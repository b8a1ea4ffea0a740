// Package search finds FHEW parameter sets: it adjusts moduli and
// dimensions until the lattice estimator reports the requested security,
// binary searches the LWE dimension against a target noise and drives the
// whole selection over gadget digit counts and ring dimensions.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/estimator"
	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

var (
	// ErrNotFound is returned when no parameter in the searched range meets
	// the target noise.
	ErrNotFound = errors.New("no parameters meet the target noise")
	// ErrInsecure is returned when no modulus or dimension in range reaches
	// the requested security level.
	ErrInsecure = errors.New("cannot reach the requested security level")
)

const (
	DefaultDimStep    = 15
	DefaultMinDim     = 500
	DefaultMaxRetries = 4
)

// SecurityOptimizer adjusts the modulus or the dimension of an LWE instance
// to the boundary of a security level.
type SecurityOptimizer struct {
	Estimator estimator.Estimator
	Level     stdparams.SecurityLevel
	Dist      stdparams.DistType
	Sigma     float64

	// MaxRetries bounds the number of times the modulus is doubled after
	// the estimator fails on the initial instance.
	MaxRetries int
	// DimStep is the dimension increment when the dimension need not be a
	// power of two.
	DimStep int
	// MinDim is the smallest dimension considered.
	MinDim int

	Log logrus.FieldLogger
}

// NewSecurityOptimizer returns an optimizer with the default step, minimum
// dimension and retries.
func NewSecurityOptimizer(est estimator.Estimator, level stdparams.SecurityLevel, dist stdparams.DistType, sigma float64, log logrus.FieldLogger) *SecurityOptimizer {
	return &SecurityOptimizer{
		Estimator:  est,
		Level:      level,
		Dist:       dist,
		Sigma:      sigma,
		MaxRetries: DefaultMaxRetries,
		DimStep:    DefaultDimStep,
		MinDim:     DefaultMinDim,
		Log:        logutil.OrDiscard(log),
	}
}

func (o *SecurityOptimizer) query(dim, logQ int) estimator.Query {
	return estimator.Query{Dim: dim, LogQ: logQ, Dist: o.Dist, Quantum: o.Level.Quantum, Sigma: o.Sigma}
}

func (o *SecurityOptimizer) secure(ctx context.Context, dim, logQ int) (bool, int, error) {
	est, err := o.Estimator.Estimate(ctx, o.query(dim, logQ))
	if err != nil {
		return false, 0, err
	}
	return est.Secure(o.Level), est.Bits, nil
}

// OptimizeModulus returns the largest log2 modulus, at most params.MaxLogQ,
// for which dimension dim meets the level. logQ is the starting point,
// usually stdparams.MaxLogModulus. Estimator failures on the starting
// instance double the modulus, up to MaxRetries times.
func (o *SecurityOptimizer) OptimizeModulus(ctx context.Context, dim, logQ int) (int, error) {

	log := logutil.OrDiscard(o.Log).WithFields(logrus.Fields{"n": dim, "level": o.Level.String()})

	var ok bool
	var bits int
	var err error
	for retry := 0; ; retry++ {
		if ok, bits, err = o.secure(ctx, dim, logQ); err == nil {
			break
		}
		if ctx.Err() != nil || retry >= o.MaxRetries {
			return 0, fmt.Errorf("estimating n=%d logq=%d: %w", dim, logQ, err)
		}
		log.WithError(err).WithField("logq", logQ).Warn("estimator failed, doubling the modulus")
		logQ++
	}

	log.WithFields(logrus.Fields{"logq": logQ, "bits": bits}).Debug("initial estimate")

	if !ok {
		for !ok {
			if logQ--; logQ < 1 {
				return 0, fmt.Errorf("%w: n=%d at %s", ErrInsecure, dim, o.Level)
			}
			if ok, bits, err = o.secure(ctx, dim, logQ); err != nil {
				return 0, fmt.Errorf("estimating n=%d logq=%d: %w", dim, logQ, err)
			}
		}
		log.WithFields(logrus.Fields{"logq": logQ, "bits": bits}).Debug("reduced modulus")
		return logQ, nil
	}

	for logQ < params.MaxLogQ {
		next, bits, err := o.secure(ctx, dim, logQ+1)
		if err != nil {
			return 0, fmt.Errorf("estimating n=%d logq=%d: %w", dim, logQ+1, err)
		}
		if !next {
			break
		}
		logQ++
		log.WithFields(logrus.Fields{"logq": logQ, "bits": bits}).Debug("increased modulus")
	}

	return logQ, nil
}

// OptimizeDimension returns the smallest dimension meeting the level for the
// modulus 2^logQ, starting from dim. When pow2 is set the dimension is
// doubled or halved, otherwise it moves by DimStep. The search never goes
// below MinDim nor above twice the starting dimension.
func (o *SecurityOptimizer) OptimizeDimension(ctx context.Context, dim, logQ int, pow2 bool) (int, error) {

	step := o.DimStep
	if step < 1 {
		step = DefaultDimStep
	}

	up := func(d int) int {
		if pow2 {
			return 2 * d
		}
		return d + step
	}

	down := func(d int) int {
		if pow2 {
			return d / 2
		}
		return d - step
	}

	ok, _, err := o.secure(ctx, dim, logQ)
	if err != nil {
		return 0, fmt.Errorf("estimating n=%d logq=%d: %w", dim, logQ, err)
	}

	if !ok {
		for d := up(dim); d <= 2*dim; d = up(d) {
			if ok, _, err = o.secure(ctx, d, logQ); err != nil {
				return 0, fmt.Errorf("estimating n=%d logq=%d: %w", d, logQ, err)
			}
			if ok {
				return d, nil
			}
		}
		return 0, fmt.Errorf("%w: logq=%d up to n=%d at %s", ErrInsecure, logQ, 2*dim, o.Level)
	}

	for d := down(dim); d >= o.MinDim && d >= 1; d = down(d) {
		if ok, _, err = o.secure(ctx, d, logQ); err != nil {
			return 0, fmt.Errorf("estimating n=%d logq=%d: %w", d, logQ, err)
		}
		if !ok {
			break
		}
		dim = d
	}

	return dim, nil
}
