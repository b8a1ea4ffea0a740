package estimator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

const sampleOutput = `bkw                  :: rop: ≈2^inf
usvp                 :: rop: ≈2^131.3, red: ≈2^131.3, δ: 1.004187, β: 403, d: 1098, tag: usvp
bdd                  :: rop: ≈2^130.9, red: ≈2^130.1, svp: ≈2^129.6, β: 399, η: 431, d: 1101, tag: bdd
dual                 :: rop: ≈2^133.7, mem: ≈2^78.0, m: 535, β: 412, d: 1119, ↻: 1, tag: dual
`

func TestParse(t *testing.T) {

	est, err := Parse(strings.NewReader(sampleOutput))
	require.NoError(t, err)
	require.Equal(t, 130, est.Bits)

	want := map[string]float64{"bkw": 0, "usvp": 131.3, "bdd": 130.9, "dual": 133.7}
	require.Len(t, est.Attacks, len(want))
	for name, v := range want {
		if name == "bkw" {
			continue
		}
		assert.InDelta(t, v, est.Attacks[name], 1e-9, name)
	}

	t.Run("Infinite", func(t *testing.T) {
		est, err := Parse(strings.NewReader("usvp :: rop: ≈2^inf\n"))
		require.NoError(t, err)
		require.True(t, est.Secure(stdparams.STD256Q))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Parse(strings.NewReader("bkw :: rop: ≈2^200.0\nsomething else\n"))
		require.ErrorIs(t, err, ErrNoEstimate)
	})
}

func TestCostModel(t *testing.T) {
	require.Equal(t, "LaaMosPol14", CostModel(true))
	require.Equal(t, "BDGL16", CostModel(false))
}

func writeScript(t *testing.T, body string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "estimate.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestCommand(t *testing.T) {

	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")

	script := writeScript(t, `echo "$@" > `+argsFile+`
cat <<'EOF'
`+sampleOutput+`EOF
`)

	cmd := NewCommand(script, []string{"driver.py"}, 4, nil)
	est, err := cmd.Estimate(context.Background(), Query{Dim: 1024, LogQ: 25, Dist: stdparams.Ternary, Quantum: true})
	require.NoError(t, err)
	require.Equal(t, 130, est.Bits)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t,
		"driver.py --n 1024 --logq 25 --dist ternary --sigma 3.19 --cost-model LaaMosPol14 --jobs 4 --deny bkw,bdd_hybrid,bdd_mitm_hybrid,dual_hybrid,dual_mitm_hybrid,arora-gb",
		strings.TrimSpace(string(args)))

	t.Run("Failure", func(t *testing.T) {
		script := writeScript(t, "echo 'modulus too large' >&2\nexit 3\n")
		_, err := NewCommand(script, nil, 1, nil).Estimate(context.Background(), Query{Dim: 10, LogQ: 60})
		require.Error(t, err)
		require.Contains(t, err.Error(), "modulus too large")
	})

	t.Run("Cancelled", func(t *testing.T) {
		script := writeScript(t, "sleep 10\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewCommand(script, nil, 1, nil).Estimate(ctx, Query{Dim: 10, LogQ: 10})
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestAnalytic(t *testing.T) {

	ctx := context.Background()

	for _, level := range stdparams.SecurityLevels() {
		for _, dim := range []int{512, 1024, 2048} {
			r, err := stdparams.Relation(level)
			require.NoError(t, err)
			logQ := int(r.LogModulus(dim))

			est, err := Analytic{}.Estimate(ctx, Query{Dim: dim, LogQ: logQ, Quantum: level.Quantum})
			require.NoError(t, err)
			require.True(t, est.Secure(level), "%s n=%d logq=%d bits=%d", level, dim, logQ, est.Bits)

			est, err = Analytic{}.Estimate(ctx, Query{Dim: dim, LogQ: logQ + 2, Quantum: level.Quantum})
			require.NoError(t, err)
			require.False(t, est.Secure(level), "%s n=%d logq=%d bits=%d", level, dim, logQ+2, est.Bits)
		}
	}

	_, err := Analytic{}.Estimate(ctx, Query{Dim: 10, LogQ: 10})
	require.ErrorIs(t, err, ErrNoEstimate)
}

func TestInterpolate(t *testing.T) {
	xs := []float64{1, 2, 4}
	ys := []float64{128, 192, 256}
	require.InDelta(t, 160, interpolate(xs, ys, 1.5), 1e-9)
	require.InDelta(t, 224, interpolate(xs, ys, 3), 1e-9)
	require.InDelta(t, 64, interpolate(xs, ys, 0), 1e-9)
	require.InDelta(t, 288, interpolate(xs, ys, 5), 1e-9)
}

func TestCache(t *testing.T) {

	var calls atomic.Int32
	next := Func(func(ctx context.Context, q Query) (Estimate, error) {
		calls.Add(1)
		if q.LogQ > 100 {
			return Estimate{}, errors.New("estimator failure")
		}
		return Estimate{Bits: 1000 / q.LogQ, Attacks: map[string]float64{"usvp": float64(1000 / q.LogQ)}}, nil
	})

	dir := t.TempDir()
	cache := NewCache(next, dir, nil)
	ctx := context.Background()
	q := Query{Dim: 600, LogQ: 7, Dist: stdparams.Ternary, Quantum: true, Sigma: 3.19}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			est, err := cache.Estimate(ctx, q)
			assert.NoError(t, err)
			assert.Equal(t, 142, est.Bits)
		}()
	}
	wg.Wait()

	est, err := cache.Estimate(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 142, est.Bits)
	require.LessOrEqual(t, calls.Load(), int32(8))
	require.GreaterOrEqual(t, calls.Load(), int32(1))

	key, err := Key(q)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, key+".yaml"))

	// A fresh cache over the same directory never calls the estimator.
	before := calls.Load()
	reloaded := NewCache(next, dir, nil)
	est2, err := reloaded.Estimate(ctx, q)
	require.NoError(t, err)
	require.Equal(t, before, calls.Load())
	if diff := cmp.Diff(est, est2); diff != "" {
		t.Fatalf("reloaded estimate differs (-want +got):\n%s", diff)
	}

	// Errors are not cached.
	bad := Query{Dim: 600, LogQ: 200}
	_, err = cache.Estimate(ctx, bad)
	require.Error(t, err)
	_, err = cache.Estimate(ctx, bad)
	require.Error(t, err)

	hits, _ := cache.Stats()
	require.Positive(t, hits)
}

func TestKey(t *testing.T) {
	a, err := Key(Query{Dim: 600, LogQ: 14})
	require.NoError(t, err)
	b, err := Key(Query{Dim: 600, LogQ: 15})
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
}
