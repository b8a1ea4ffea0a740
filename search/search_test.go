package search

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KAIST-CryptLab/binfhe-params/core/failure"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/estimator"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// ratioEstimator reports floor(k * n / logq) bits and fails below minLogQ.
func ratioEstimator(k float64, minLogQ int, calls *int32) estimator.Estimator {
	return estimator.Func(func(ctx context.Context, q estimator.Query) (estimator.Estimate, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if q.LogQ < minLogQ {
			return estimator.Estimate{}, errors.New("estimator crashed")
		}
		return estimator.Estimate{Bits: int(math.Floor(k * float64(q.Dim) / float64(q.LogQ)))}, nil
	})
}

func noiseOf(f func(p params.Parameters) float64) noise.Sampler {
	return noise.SamplerFunc(func(ctx context.Context, p params.Parameters, samples int) (noise.Measurement, error) {
		if err := ctx.Err(); err != nil {
			return noise.Measurement{}, err
		}
		return noise.Measurement{Stddev: f(p), Samples: samples}, nil
	})
}

func TestSearchDimension(t *testing.T) {

	ctx := context.Background()

	var evals int
	eval := func(ctx context.Context, n int) (float64, error) {
		evals++
		return 1000 / float64(n), nil
	}

	n, v, err := SearchDimension(ctx, 100, 1000, 2, eval)
	require.NoError(t, err)
	require.Equal(t, 500, n)
	require.Equal(t, 2.0, v)
	require.LessOrEqual(t, evals, 12)

	n, _, err = SearchDimension(ctx, 100, 1000, 20, eval)
	require.NoError(t, err)
	require.Equal(t, 100, n)

	n, _, err = SearchDimension(ctx, 100, 1000, 1, eval)
	require.NoError(t, err)
	require.Equal(t, 1000, n)

	_, _, err = SearchDimension(ctx, 100, 1000, 0.5, eval)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = SearchDimension(ctx, 10, 9, 1, eval)
	require.Error(t, err)

	boom := errors.New("boom")
	_, _, err = SearchDimension(ctx, 1, 10, 1, func(ctx context.Context, n int) (float64, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
}

func TestOptimizeModulus(t *testing.T) {

	ctx := context.Background()

	// 2n/logq >= 128 <=> logq <= n/64
	opt := NewSecurityOptimizer(ratioEstimator(2, 5, nil), stdparams.STD128Q, stdparams.Ternary, 3.19, nil)

	for _, start := range []int{7, 10, 14, 40} {
		logQ, err := opt.OptimizeModulus(ctx, 640, start)
		require.NoError(t, err)
		require.Equal(t, 10, logQ, "start %d", start)
	}

	// The estimator fails below 2^5, the modulus is doubled until it works.
	logQ, err := opt.OptimizeModulus(ctx, 640, 3)
	require.NoError(t, err)
	require.Equal(t, 10, logQ)

	opt.MaxRetries = 1
	_, err = opt.OptimizeModulus(ctx, 640, 3)
	require.Error(t, err)

	opt.MaxRetries = DefaultMaxRetries
	opt.Estimator = ratioEstimator(2, 0, nil)
	_, err = opt.OptimizeModulus(ctx, 32, 40)
	require.ErrorIs(t, err, ErrInsecure)

	// Capped at the native word size.
	logQ, err = opt.OptimizeModulus(ctx, 1<<20, 40)
	require.NoError(t, err)
	require.Equal(t, params.MaxLogQ, logQ)
}

func TestOptimizeDimension(t *testing.T) {

	ctx := context.Background()

	// 2n/10 >= 128 <=> n >= 640
	opt := NewSecurityOptimizer(ratioEstimator(2, 0, nil), stdparams.STD128, stdparams.Ternary, 3.19, nil)

	for _, tc := range []struct {
		start, want int
		pow2        bool
	}{
		{700, 640, false},
		{600, 645, false},
		{640, 640, false},
		{512, 1024, true},
		{2048, 1024, true},
	} {
		dim, err := opt.OptimizeDimension(ctx, tc.start, 10, tc.pow2)
		require.NoError(t, err)
		require.Equal(t, tc.want, dim, "start %d pow2 %v", tc.start, tc.pow2)
	}

	_, err := opt.OptimizeDimension(ctx, 300, 10, false)
	require.ErrorIs(t, err, ErrInsecure)

	// Never below MinDim.
	dim, err := opt.OptimizeDimension(ctx, 700, 2, false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, dim, DefaultMinDim)
	require.Less(t, dim, DefaultMinDim+DefaultDimStep)
}

func TestTuneBase(t *testing.T) {

	ctx := context.Background()

	p, err := params.GetNamedSet("STD128Q_OPT_3")
	require.NoError(t, err)

	tuner := &Tuner{Sampler: noiseOf(func(p params.Parameters) float64 { return float64(p.Bks()) }), Samples: 10}

	tp, m, err := tuner.TuneBase(ctx, p, BaseKS, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(2), tp.Bks())
	require.Equal(t, 2.0, m.Stddev)
	require.Equal(t, p.Bg(), tp.Bg())

	_, _, err = tuner.TuneBase(ctx, p, BaseKS, 1)
	require.ErrorIs(t, err, ErrNotFound)

	tp, _, err = tuner.TuneBase(ctx, p, BaseKS, 100)
	require.NoError(t, err)
	require.True(t, tp.Equal(p))

	tuner.Sampler = noiseOf(func(p params.Parameters) float64 { return float64(p.Bg()) / (1 << 20) })

	tp, _, err = tuner.TuneBase(ctx, p, BaseG, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(1)<<21, tp.Bg())

	_, _, err = tuner.TuneBase(ctx, p, BaseG, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestValidate(t *testing.T) {

	require.NoError(t, DefaultRequest().Validate())

	for name, mutate := range map[string]func(r *Request){
		"failure":  func(r *Request) { r.LogFailure = 0 },
		"inputs":   func(r *Request) { r.Inputs = 0 },
		"samples":  func(r *Request) { r.Samples = 1 },
		"dks":      func(r *Request) { r.DigitsKS = 0 },
		"dg":       func(r *Request) { r.DigitsG = []int{2, 0} },
		"nodg":     func(r *Request) { r.DigitsG = nil },
		"ring":     func(r *Request) { r.RingDims = []int{1000} },
		"brk":      func(r *Request) { r.BaseRK = 24 },
		"sigma":    func(r *Request) { r.Sigma = 0 },
		"dist":     func(r *Request) { r.Dist = 7 },
		"level":    func(r *Request) { r.Level = stdparams.SecurityLevel{Bits: 100} },
		"noring":   func(r *Request) { r.RingDims = nil },
		"negative": func(r *Request) { r.Inputs = -3 },
	} {
		r := DefaultRequest()
		mutate(&r)
		assert.Error(t, r.Validate(), name)
	}
}

func TestSelector(t *testing.T) {

	ctx := context.Background()
	req := DefaultRequest()
	req.Samples = 16

	targetFor := func(N int) float64 {
		target, err := failure.TargetNoise(req.LogFailure, req.PlaintextModulus(), 2*uint64(N), req.Inputs)
		require.NoError(t, err)
		return target
	}

	t.Run("FirstRing", func(t *testing.T) {

		var samples int32
		sel := &Selector{Sampler: noiseOf(func(p params.Parameters) float64 {
			atomic.AddInt32(&samples, 1)
			return 20000 / float64(p.N())
		})}

		results, err := sel.Run(ctx, req)
		require.NoError(t, err)
		require.Len(t, results, 3)

		want := int(math.Ceil(20000 / targetFor(1024)))
		require.Greater(t, want, 512)
		require.Less(t, want, 1024)

		for i, res := range results {
			require.True(t, res.Found)
			assert.Equal(t, req.DigitsG[i], res.DigitsG)
			assert.Equal(t, 1024, res.Params.RingN())
			assert.Equal(t, uint64(2048), res.Params.Q())
			assert.Equal(t, want, res.Params.N())
			assert.LessOrEqual(t, res.Noise, res.Target)
			assert.LessOrEqual(t, res.LogFailure, req.LogFailure)
			assert.False(t, res.Tuned)
			assert.Nil(t, res.Security)

			logQks, err := stdparams.MaxLogModulus(want, req.Level)
			require.NoError(t, err)
			assert.Equal(t, logQks, res.Params.LogQks())
			assert.Equal(t, uint64(1)<<(logQks/req.DigitsKS), res.Params.Bks())
			assert.Equal(t, uint64(1)<<(res.Params.LogQ()/res.DigitsG), res.Params.Bg())
		}

		best, ok := Best(results)
		require.True(t, ok)
		require.Equal(t, 2, best.DigitsG)
	})

	t.Run("SecondRing", func(t *testing.T) {

		sel := &Selector{Sampler: noiseOf(func(p params.Parameters) float64 { return 60000 / float64(p.N()) }), Parallelism: 1}

		results, err := sel.Run(ctx, req)
		require.NoError(t, err)

		want := int(math.Ceil(60000 / targetFor(2048)))
		for _, res := range results {
			require.True(t, res.Found)
			assert.Equal(t, 2048, res.Params.RingN())
			assert.Equal(t, uint64(4096), res.Params.Q())
			assert.Equal(t, want, res.Params.N())
		}
	})

	t.Run("NotFound", func(t *testing.T) {

		sel := &Selector{Sampler: noiseOf(func(p params.Parameters) float64 { return 1e9 })}

		results, err := sel.Run(ctx, req)
		require.NoError(t, err)
		for _, res := range results {
			require.False(t, res.Found)
		}

		_, ok := Best(results)
		require.False(t, ok)
	})

	t.Run("Tune", func(t *testing.T) {

		r := req
		r.RingDims = []int{1024}
		r.DigitsG = []int{3}
		r.TuneDigits = true

		// Only a base below its default meets the target.
		sel := &Selector{Sampler: noiseOf(func(p params.Parameters) float64 {
			if p.Bks() == uint64(1)<<(p.LogQks()/r.DigitsKS) {
				return 100
			}
			return 10
		})}

		results, err := sel.Run(ctx, r)
		require.NoError(t, err)
		require.Len(t, results, 1)

		res := results[0]
		require.True(t, res.Found)
		require.True(t, res.Tuned)
		require.Equal(t, 1024, res.Params.N())
		require.LessOrEqual(t, res.Noise, res.Target)
		require.Equal(t, uint64(1)<<(res.Params.LogQks()/r.DigitsKS)/4, res.Params.Bks())
	})

	t.Run("Verify", func(t *testing.T) {

		r := req
		r.Verify = true

		_, err := (&Selector{Sampler: noiseOf(func(p params.Parameters) float64 { return 1 })}).Run(ctx, r)
		require.Error(t, err)

		sel := &Selector{
			Sampler:   noiseOf(func(p params.Parameters) float64 { return 20000 / float64(p.N()) }),
			Estimator: estimator.NewCache(estimator.Analytic{}, "", nil),
		}

		results, err := sel.Run(ctx, r)
		require.NoError(t, err)

		for _, res := range results {
			require.True(t, res.Found)
			require.NotNil(t, res.Security)
			assert.GreaterOrEqual(t, res.Security.LWEBits, 128)
			assert.GreaterOrEqual(t, res.Security.RLWEBits, 128)

			logQks, err := stdparams.MaxLogModulus(res.Params.N(), r.Level)
			require.NoError(t, err)
			assert.LessOrEqual(t, res.Params.LogQks(), logQks)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		r := req
		r.Inputs = 0
		_, err := (&Selector{}).Run(ctx, r)
		require.Error(t, err)
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		sel := &Selector{Sampler: noiseOf(func(p params.Parameters) float64 { return 1 })}
		_, err := sel.Run(cctx, req)
		require.ErrorIs(t, err, context.Canceled)
	})
}
