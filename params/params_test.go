package params

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewParametersFromLiteral(t *testing.T) {

	p, err := NewParametersFromLiteral(STD128Q_OPT_3)
	require.NoError(t, err)

	require.Equal(t, 585, p.N())
	require.Equal(t, uint64(4096), p.Q())
	require.Equal(t, 2048, p.RingN())
	require.Equal(t, 50, p.LogQ())
	require.Equal(t, 15, p.LogQks())
	require.Equal(t, 2, p.DigitsG())
	require.Equal(t, 3, p.DigitsKS())

	if diff := cmp.Diff(STD128Q_OPT_3, p.Literal()); diff != "" {
		t.Fatalf("literal mismatch (-want +got):\n%s", diff)
	}
}

func TestValidation(t *testing.T) {

	for name, mutate := range map[string]func(pl *ParametersLiteral){
		"ZeroDim":         func(pl *ParametersLiteral) { pl.N = 0 },
		"RingNotPow2":     func(pl *ParametersLiteral) { pl.RingN = 1000 },
		"QNotPow2":        func(pl *ParametersLiteral) { pl.Q = 3000 },
		"QAbove2N":        func(pl *ParametersLiteral) { pl.Q = 8192 },
		"LogQTooLarge":    func(pl *ParametersLiteral) { pl.LogQ = 65 },
		"QksBelowQ":       func(pl *ParametersLiteral) { pl.Qks = 2048 },
		"QksNotPow2":      func(pl *ParametersLiteral) { pl.Qks = 1<<15 + 1 },
		"BgOne":           func(pl *ParametersLiteral) { pl.Bg = 1 },
		"BksNotPow2":      func(pl *ParametersLiteral) { pl.Bks = 24 },
		"BrkZero":         func(pl *ParametersLiteral) { pl.Brk = 0 },
		"BgAboveQ":        func(pl *ParametersLiteral) { pl.Bg = 1 << 51 },
		"BksAboveQks":     func(pl *ParametersLiteral) { pl.Bks = 1 << 16 },
		"NonPositiveSigma": func(pl *ParametersLiteral) { pl.Sigma = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			pl := STD128Q_OPT_3
			mutate(&pl)
			_, err := NewParametersFromLiteral(pl)
			require.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestArgs(t *testing.T) {
	p, err := GetNamedSet("STD128Q_OPT_3_nQks1")
	require.NoError(t, err)
	require.Equal(t,
		"600 4096 2048 50 32768 33554432 32 32 3.19",
		strings.Join(p.Args(), " "))
}

func TestEqual(t *testing.T) {
	p0, err := GetNamedSet("STD128Q_OPT_3")
	require.NoError(t, err)
	p1, err := GetNamedSet("STD128Q_OPT_3_nQks1")
	require.NoError(t, err)
	require.True(t, p0.Equal(p0))
	require.False(t, p0.Equal(p1))

	_, err = GetNamedSet("missing")
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {

	p, err := GetNamedSet("STD128Q_OPT_3")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, p))
	require.Contains(t, buf.String(), "Qks: 32768")

	got, err := ReadYAML(&buf)
	require.NoError(t, err)
	require.True(t, p.Equal(got))

	_, err = ReadYAML(strings.NewReader("n: 10\nunknown: 1\n"))
	require.Error(t, err)
}

func TestHelpers(t *testing.T) {
	require.True(t, IsPowerOfTwo(1))
	require.True(t, IsPowerOfTwo(uint64(1)<<63))
	require.False(t, IsPowerOfTwo(0))
	require.False(t, IsPowerOfTwo(-4))
	require.False(t, IsPowerOfTwo(12))
	require.Equal(t, 0, Log2(uint64(1)))
	require.Equal(t, 25, Log2(uint64(1)<<25))
	require.Equal(t, 3, ceilDiv(7, 3))
}
