package search

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// Base selects one of the decomposition bases.
type Base int

const (
	// BaseG is the gadget base of the accumulator.
	BaseG Base = iota
	// BaseKS is the key switching base.
	BaseKS
)

func (b Base) String() string {
	if b == BaseG {
		return "Bg"
	}
	return "Bks"
}

const (
	tuneFactor       = 4
	maxTuneReduction = 16
)

// Tuner lowers a decomposition base, trading speed for noise.
type Tuner struct {
	Sampler noise.Sampler
	Samples int
	Log     logrus.FieldLogger
}

func withBase(p params.Parameters, which Base, v uint64) (params.Parameters, error) {
	lit := p.Literal()
	if which == BaseG {
		lit.Bg = v
	} else {
		lit.Bks = v
	}
	return params.NewParametersFromLiteral(lit)
}

// TuneBase divides the chosen base of p by 4 until the measured noise is at
// most target. The base is reduced by at most a factor 16; ErrNotFound is
// returned if that does not suffice.
func (t *Tuner) TuneBase(ctx context.Context, p params.Parameters, which Base, target float64) (params.Parameters, noise.Measurement, error) {

	log := logutil.OrDiscard(t.Log).WithFields(logrus.Fields{"n": p.N(), "N": p.RingN(), "base": which.String()})

	start := p.Bg()
	if which == BaseKS {
		start = p.Bks()
	}

	m, err := t.Sampler.Sample(ctx, p, t.Samples)
	if err != nil {
		return p, m, err
	}

	for base := start; m.Stddev > target; {

		if base/tuneFactor < 2 || start/(base/tuneFactor) > maxTuneReduction {
			return p, m, fmt.Errorf("%w: %s reduced from %d to %d, noise %.4g > %.4g", ErrNotFound, which, start, base, m.Stddev, target)
		}
		base /= tuneFactor

		next, err := withBase(p, which, base)
		if err != nil {
			return p, m, err
		}
		p = next

		if m, err = t.Sampler.Sample(ctx, p, t.Samples); err != nil {
			return p, m, err
		}

		log.WithFields(logrus.Fields{"value": base, "noise": m.Stddev, "target": target}).Debug("reduced base")
	}

	return p, m, nil
}
