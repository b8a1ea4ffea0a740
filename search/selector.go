package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/KAIST-CryptLab/binfhe-params/core/failure"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/estimator"
	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// Request holds the inputs of a parameter selection.
type Request struct {
	Dist       stdparams.DistType      `yaml:"dist"`
	Level      stdparams.SecurityLevel `yaml:"level"`
	LogFailure float64                 `yaml:"log_failure"` // e.g. -32 for 2^-32
	Inputs     int                     `yaml:"inputs"`      // gate fan-in
	Samples    int                     `yaml:"samples"`
	DigitsKS   int                     `yaml:"digits_ks"`
	DigitsG    []int                   `yaml:"digits_g"`
	RingDims   []int                   `yaml:"ring_dims"`
	BaseRK     uint64                  `yaml:"base_rk"`
	Sigma      float64                 `yaml:"sigma"`
	Verify     bool                    `yaml:"verify"`
	TuneDigits bool                    `yaml:"tune_digits"`
}

// DefaultRequest returns the defaults of the interactive selector.
func DefaultRequest() Request {
	return Request{
		Dist:       stdparams.Ternary,
		Level:      stdparams.STD128Q,
		LogFailure: -32,
		Inputs:     2,
		Samples:    1000,
		DigitsKS:   3,
		DigitsG:    []int{2, 3, 4},
		RingDims:   []int{1024, 2048},
		BaseRK:     32,
		Sigma:      estimator.DefaultSigma,
	}
}

// Validate checks the ranges accepted by the selector.
func (r Request) Validate() error {
	switch {
	case r.Dist < stdparams.Uniform || r.Dist > stdparams.Ternary:
		return fmt.Errorf("invalid distribution %d", r.Dist)
	case !(r.LogFailure < 0):
		return fmt.Errorf("decryption failure exponent must be negative, got %v", r.LogFailure)
	case r.Inputs < 1:
		return fmt.Errorf("number of inputs must be positive, got %d", r.Inputs)
	case r.Samples < 2:
		return fmt.Errorf("at least two samples are needed, got %d", r.Samples)
	case r.DigitsKS < 1:
		return fmt.Errorf("key switching digit count must be positive, got %d", r.DigitsKS)
	case len(r.DigitsG) == 0:
		return errors.New("no gadget digit count")
	case len(r.RingDims) == 0:
		return errors.New("no ring dimension")
	case r.BaseRK < 2 || !params.IsPowerOfTwo(r.BaseRK):
		return fmt.Errorf("refreshing base must be a power of two >= 2, got %d", r.BaseRK)
	case !(r.Sigma > 0):
		return fmt.Errorf("sigma must be positive, got %v", r.Sigma)
	}
	for _, d := range r.DigitsG {
		if d < 1 {
			return fmt.Errorf("gadget digit count must be positive, got %d", d)
		}
	}
	for _, N := range r.RingDims {
		if N < 2 || !params.IsPowerOfTwo(N) {
			return fmt.Errorf("ring dimension must be a power of two, got %d", N)
		}
	}
	if _, err := stdparams.Relation(r.Level); err != nil {
		return err
	}
	return nil
}

// PlaintextModulus returns 2 * Inputs.
func (r Request) PlaintextModulus() uint64 {
	return 2 * uint64(r.Inputs)
}

// Security records the estimator verification of a result.
type Security struct {
	LWEBits  int `yaml:"lwe_bits"`  // (n, Qks)
	RLWEBits int `yaml:"rlwe_bits"` // (N, Q)
}

// Result is the outcome of the selection for one gadget digit count.
type Result struct {
	DigitsG     int
	Found       bool
	Params      params.Parameters
	Noise       float64
	Target      float64
	LogFailure  float64 // achieved log2 failure rate
	Performance noise.Performance
	Security    *Security
	Tuned       bool
}

// Selector runs the parameter selection.
type Selector struct {
	Sampler   noise.Sampler
	Estimator estimator.Estimator // used when Request.Verify is set

	// Parallelism bounds the number of digit counts explored at once.
	Parallelism int
	MaxRetries  int

	Log logrus.FieldLogger
}

// Run explores every gadget digit count of req concurrently and returns one
// Result per digit count, in the order of req.DigitsG.
func (s *Selector) Run(ctx context.Context, req Request) ([]Result, error) {

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Verify && s.Estimator == nil {
		return nil, errors.New("verification requested without estimator")
	}

	results := make([]Result, len(req.DigitsG))

	g, ctx := errgroup.WithContext(ctx)
	if s.Parallelism > 0 {
		g.SetLimit(s.Parallelism)
	}

	for i, dg := range req.DigitsG {
		i, dg := i, dg
		g.Go(func() (err error) {
			results[i], err = s.runDigits(ctx, req, dg)
			return
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

type candidate struct {
	req      Request
	dg       int
	ringN    int
	logQ     int
	target   float64
	opt      *SecurityOptimizer
	qksCache map[int]int
}

func (s *Selector) runDigits(ctx context.Context, req Request, dg int) (Result, error) {

	log := logutil.OrDiscard(s.Log).WithField("dg", dg)

	ringDims := append([]int{}, req.RingDims...)
	sort.Ints(ringDims)

	for _, N := range ringDims {

		c, err := s.newCandidate(ctx, req, dg, N)
		if err != nil {
			return Result{}, err
		}

		nlog := log.WithFields(logrus.Fields{"N": N, "logQ": c.logQ})
		nlog.WithField("target", c.target).Info("target noise")

		res, err := s.searchRing(ctx, c, nlog)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, ErrNotFound) || errors.Is(err, ErrInsecure):
			nlog.WithError(err).Info("no parameters for this ring dimension")
		default:
			return Result{}, err
		}
	}

	log.Warn("cannot find parameters")

	return Result{DigitsG: dg}, nil
}

func (s *Selector) newCandidate(ctx context.Context, req Request, dg, N int) (*candidate, error) {

	c := &candidate{req: req, dg: dg, ringN: N, qksCache: map[int]int{}}

	var err error
	if c.logQ, err = stdparams.MaxLogModulus(N, req.Level); err != nil {
		return nil, err
	}

	if req.Verify {
		c.opt = NewSecurityOptimizer(s.Estimator, req.Level, req.Dist, req.Sigma, s.Log)
		if s.MaxRetries > 0 {
			c.opt.MaxRetries = s.MaxRetries
		}
		if c.logQ, err = c.opt.OptimizeModulus(ctx, N, c.logQ); err != nil {
			return nil, fmt.Errorf("ring modulus for N=%d: %w", N, err)
		}
	}

	if c.logQ > params.MaxLogQ {
		c.logQ = params.MaxLogQ
	}

	q := 2 * uint64(N)
	if c.target, err = failure.TargetNoise(req.LogFailure, req.PlaintextModulus(), q, req.Inputs); err != nil {
		return nil, err
	}

	return c, nil
}

// logQks returns the key switching modulus size for dimension n.
func (c *candidate) logQks(ctx context.Context, n int) (int, error) {

	if v, ok := c.qksCache[n]; ok {
		return v, nil
	}

	logQks, err := stdparams.MaxLogModulus(n, c.req.Level)
	if err != nil {
		return 0, err
	}

	if c.opt != nil {
		if logQks, err = c.opt.OptimizeModulus(ctx, n, logQks); err != nil {
			return 0, err
		}
	}

	c.qksCache[n] = logQks
	return logQks, nil
}

func pow2(e int) uint64 {
	if e < 1 {
		return 2
	}
	return uint64(1) << e
}

// build returns the parameter set of dimension n.
func (c *candidate) build(ctx context.Context, n int) (params.Parameters, error) {

	logQks, err := c.logQks(ctx, n)
	if err != nil {
		return params.Parameters{}, err
	}

	if logQks >= 64 {
		return params.Parameters{}, fmt.Errorf("%w: Qks = 2^%d does not fit a native word", params.ErrInvalidParameters, logQks)
	}

	return params.NewParametersFromLiteral(params.ParametersLiteral{
		N:     n,
		Q:     2 * uint64(c.ringN),
		RingN: c.ringN,
		LogQ:  c.logQ,
		Qks:   uint64(1) << logQks,
		Bg:    pow2(c.logQ / c.dg),
		Bks:   pow2(logQks / c.req.DigitsKS),
		Brk:   c.req.BaseRK,
		Sigma: c.req.Sigma,
	})
}

func (s *Selector) searchRing(ctx context.Context, c *candidate, log logrus.FieldLogger) (Result, error) {

	measured := map[int]noise.Measurement{}

	eval := func(ctx context.Context, n int) (float64, error) {
		p, err := c.build(ctx, n)
		if errors.Is(err, params.ErrInvalidParameters) || errors.Is(err, ErrInsecure) {
			log.WithError(err).WithField("n", n).Debug("skipping invalid parameters")
			return math.Inf(1), nil
		}
		if err != nil {
			return 0, err
		}
		m, err := s.Sampler.Sample(ctx, p, c.req.Samples)
		if err != nil {
			return 0, err
		}
		measured[n] = m
		log.WithFields(logrus.Fields{"n": n, "noise": m.Stddev, "target": c.target}).Info("measured noise")
		return m.Stddev, nil
	}

	// Start at n = N/2; larger n lowers the noise.
	n := c.ringN / 2
	v, err := eval(ctx, n)
	if err != nil {
		return Result{}, err
	}

	if v > c.target {
		n, _, err = SearchDimension(ctx, n+1, c.ringN, c.target, eval)
	}

	var p params.Parameters
	var m noise.Measurement
	tuned := false

	switch {
	case err == nil:
		if p, err = c.build(ctx, n); err != nil {
			return Result{}, err
		}
		m = measured[n]
	case errors.Is(err, ErrNotFound) && c.req.TuneDigits:
		log.WithError(err).Info("tuning decomposition bases")
		if p, m, err = s.tune(ctx, c, log); err != nil {
			return Result{}, err
		}
		tuned = true
	default:
		return Result{}, err
	}

	res := Result{
		DigitsG:     c.dg,
		Found:       true,
		Params:      p,
		Noise:       m.Stddev,
		Target:      c.target,
		Performance: m.Performance,
		Tuned:       tuned,
	}

	if res.LogFailure, err = failure.DecryptionFailure(m.Stddev, c.req.PlaintextModulus(), p.Q(), c.req.Inputs); err != nil {
		return Result{}, err
	}

	if c.req.Verify {
		if res.Security, err = s.verify(ctx, c.req, p); err != nil {
			return Result{}, err
		}
	}

	log.WithFields(logrus.Fields{"params": p.String(), "noise": m.Stddev, "log_failure": res.LogFailure}).Info("found parameters")

	return res, nil
}

// tune lowers Bks, then Bg, at the largest dimension of the ring.
func (s *Selector) tune(ctx context.Context, c *candidate, log logrus.FieldLogger) (params.Parameters, noise.Measurement, error) {

	p, err := c.build(ctx, c.ringN)
	if errors.Is(err, params.ErrInvalidParameters) {
		return p, noise.Measurement{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return p, noise.Measurement{}, err
	}

	t := &Tuner{Sampler: s.Sampler, Samples: c.req.Samples, Log: log}

	tp, m, err := t.TuneBase(ctx, p, BaseKS, c.target)
	if !errors.Is(err, ErrNotFound) {
		return tp, m, err
	}

	return t.TuneBase(ctx, p, BaseG, c.target)
}

func (s *Selector) verify(ctx context.Context, req Request, p params.Parameters) (*Security, error) {

	lweEst, err := s.Estimator.Estimate(ctx, estimator.Query{Dim: p.N(), LogQ: p.LogQks(), Dist: req.Dist, Quantum: req.Level.Quantum, Sigma: req.Sigma})
	if err != nil {
		return nil, fmt.Errorf("verifying (n, Qks): %w", err)
	}

	rlwe, err := s.Estimator.Estimate(ctx, estimator.Query{Dim: p.RingN(), LogQ: p.LogQ(), Dist: req.Dist, Quantum: req.Level.Quantum, Sigma: req.Sigma})
	if err != nil {
		return nil, fmt.Errorf("verifying (N, Q): %w", err)
	}

	return &Security{LWEBits: lweEst.Bits, RLWEBits: rlwe.Bits}, nil
}

// Best returns the found result with the smallest ring dimension, then the
// smallest LWE dimension, then the fewest gadget digits.
func Best(results []Result) (Result, bool) {

	var best Result
	found := false

	for _, r := range results {
		if !r.Found {
			continue
		}
		if !found || less(r, best) {
			best, found = r, true
		}
	}

	return best, found
}

func less(a, b Result) bool {
	if a.Params.RingN() != b.Params.RingN() {
		return a.Params.RingN() < b.Params.RingN()
	}
	if a.Params.N() != b.Params.N() {
		return a.Params.N() < b.Params.N()
	}
	return a.DigitsG < b.DigitsG
}
