package failure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog2Erfc(t *testing.T) {

	t.Run("MatchesMathErfc", func(t *testing.T) {
		for _, x := range []float64{-1, 0, 0.5, 1, 3, 10, 20, 24.9} {
			require.InDelta(t, math.Log2(math.Erfc(x)), Log2Erfc(x), 1e-9, "x=%v", x)
		}
	})

	t.Run("ContinuousAtThreshold", func(t *testing.T) {
		below := math.Log2(math.Erfc(asymptoticThreshold))
		require.InDelta(t, below, Log2Erfc(asymptoticThreshold), 1e-8)
	})

	t.Run("FiniteBeyondFloat64", func(t *testing.T) {
		v := Log2Erfc(60)
		require.False(t, math.IsInf(v, 0))
		require.Less(t, v, -5000.0)
		// Dominant term is -x^2/ln(2).
		require.InDelta(t, -3600/math.Ln2, v, 10)
	})

	t.Run("Monotone", func(t *testing.T) {
		prev := Log2Erfc(0)
		for x := 0.5; x < 100; x += 0.5 {
			cur := Log2Erfc(x)
			require.Less(t, cur, prev, "x=%v", x)
			prev = cur
		}
	})
}

func TestErfcinvLog2(t *testing.T) {

	for _, l := range []float64{-1, -32, -64, -128, -999, -1001, -2000, -10000} {
		x := ErfcinvLog2(l)
		require.InDelta(t, l, Log2Erfc(x), 1e-6*math.Abs(l), "log2y=%v", l)
	}

	assert.True(t, math.IsNaN(ErfcinvLog2(1)))
}

func TestDecryptionFailure(t *testing.T) {

	t.Run("ClosedForm", func(t *testing.T) {
		// q/(2p) = 1024/8 = 128, sqrt(2*2) = 2, sigma = 8 -> erfc(8).
		got, err := DecryptionFailure(8, 4, 1024, 2)
		require.NoError(t, err)
		require.InDelta(t, math.Log2(math.Erfc(8)), got, 1e-9)
	})

	t.Run("NoUnderflowToZero", func(t *testing.T) {
		got, err := DecryptionFailure(0.5, 4, 4096, 2)
		require.NoError(t, err)
		require.Less(t, got, -1000.0)
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		_, err := DecryptionFailure(0, 4, 1024, 2)
		require.ErrorIs(t, err, ErrInvalidArgument)
		_, err = DecryptionFailure(1, 0, 1024, 2)
		require.ErrorIs(t, err, ErrInvalidArgument)
		_, err = DecryptionFailure(1, 4, 4, 2)
		require.ErrorIs(t, err, ErrInvalidArgument)
		_, err = DecryptionFailure(1, 4, 1024, 0)
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestTargetNoiseRoundTrip(t *testing.T) {

	for _, tc := range []struct {
		logFailure float64
		ptMod      uint64
		ctMod      uint64
		comp       int
	}{
		{-32, 4, 1024, 2},
		{-32, 6, 2048, 3},
		{-64, 8, 4096, 4},
		{-1500, 4, 4096, 2},
	} {
		sigma, err := TargetNoise(tc.logFailure, tc.ptMod, tc.ctMod, tc.comp)
		require.NoError(t, err)
		require.Greater(t, sigma, 0.0)

		got, err := DecryptionFailure(sigma, tc.ptMod, tc.ctMod, tc.comp)
		require.NoError(t, err)
		require.InDelta(t, tc.logFailure, got, 1e-6*math.Abs(tc.logFailure))
	}

	_, err := TargetNoise(0, 4, 1024, 2)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestProbability(t *testing.T) {

	p := Probability(-3, 64)
	f, _ := p.Float64()
	require.InDelta(t, 0.125, f, 1e-15)

	tiny := Probability(-2000, 128)
	require.Equal(t, 1, tiny.Sign())
	require.InDelta(t, -1999, float64(tiny.MantExp(nil)), 1)
}
