// Package params defines the parameter record of an FHEW-like scheme: the
// LWE dimension and modulus, the RGSW ring dimension and modulus, the key
// switching modulus and the three decomposition bases.
package params

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/constraints"
)

// ErrInvalidParameters is wrapped by every validation error.
var ErrInvalidParameters = errors.New("invalid parameters")

// MaxLogQ is the largest supported ring modulus size (native word).
const MaxLogQ = 64

// ParametersLiteral is a user-facing, unchecked description of a parameter
// set. Field names follow the positional arguments of the noise harness.
type ParametersLiteral struct {
	N      int     `yaml:"n"`     // LWE dimension
	Q      uint64  `yaml:"q"`     // LWE modulus
	RingN  int     `yaml:"N"`     // ring dimension (cyclotomic order / 2)
	LogQ   int     `yaml:"logQ"`  // bit size of the ring modulus
	Qks    uint64  `yaml:"Qks"`   // key switching modulus
	Bg     uint64  `yaml:"Bg"`    // gadget base of the accumulator
	Bks    uint64  `yaml:"Bks"`   // key switching base
	Brk    uint64  `yaml:"Brk"`   // refreshing key base
	Sigma  float64 `yaml:"sigma"` // error standard deviation
}

// Parameters is a validated, immutable parameter set.
type Parameters struct {
	n     int
	q     uint64
	ringN int
	logQ  int
	qks   uint64
	bg    uint64
	bks   uint64
	brk   uint64
	sigma float64
}

// NewParametersFromLiteral validates the literal and returns the
// corresponding Parameters.
func NewParametersFromLiteral(pl ParametersLiteral) (p Parameters, err error) {

	switch {
	case pl.N < 1:
		return p, fmt.Errorf("%w: n must be positive, got %d", ErrInvalidParameters, pl.N)
	case pl.RingN < 1 || !IsPowerOfTwo(pl.RingN):
		return p, fmt.Errorf("%w: N must be a power of two, got %d", ErrInvalidParameters, pl.RingN)
	case pl.Q < 2 || !IsPowerOfTwo(pl.Q):
		return p, fmt.Errorf("%w: q must be a power of two >= 2, got %d", ErrInvalidParameters, pl.Q)
	case pl.Q > 2*uint64(pl.RingN):
		return p, fmt.Errorf("%w: q = %d exceeds 2N = %d", ErrInvalidParameters, pl.Q, 2*pl.RingN)
	case pl.LogQ < 1 || pl.LogQ > MaxLogQ:
		return p, fmt.Errorf("%w: logQ must be in [1, %d], got %d", ErrInvalidParameters, MaxLogQ, pl.LogQ)
	case pl.Qks < pl.Q || !IsPowerOfTwo(pl.Qks):
		return p, fmt.Errorf("%w: Qks must be a power of two >= q, got %d", ErrInvalidParameters, pl.Qks)
	case pl.Sigma <= 0 || math.IsInf(pl.Sigma, 0) || math.IsNaN(pl.Sigma):
		return p, fmt.Errorf("%w: sigma must be positive, got %v", ErrInvalidParameters, pl.Sigma)
	}

	for _, b := range []struct {
		name string
		v    uint64
	}{{"Bg", pl.Bg}, {"Bks", pl.Bks}, {"Brk", pl.Brk}} {
		if b.v < 2 || !IsPowerOfTwo(b.v) {
			return p, fmt.Errorf("%w: %s must be a power of two >= 2, got %d", ErrInvalidParameters, b.name, b.v)
		}
	}

	if Log2(pl.Bg) > pl.LogQ {
		return p, fmt.Errorf("%w: Bg = 2^%d exceeds Q = 2^%d", ErrInvalidParameters, Log2(pl.Bg), pl.LogQ)
	}

	if pl.Bks > pl.Qks {
		return p, fmt.Errorf("%w: Bks = %d exceeds Qks = %d", ErrInvalidParameters, pl.Bks, pl.Qks)
	}

	return Parameters{
		n:     pl.N,
		q:     pl.Q,
		ringN: pl.RingN,
		logQ:  pl.LogQ,
		qks:   pl.Qks,
		bg:    pl.Bg,
		bks:   pl.Bks,
		brk:   pl.Brk,
		sigma: pl.Sigma,
	}, nil
}

// N returns the LWE dimension n.
func (p Parameters) N() int { return p.n }

// Q returns the LWE modulus q.
func (p Parameters) Q() uint64 { return p.q }

// RingN returns the ring dimension N.
func (p Parameters) RingN() int { return p.ringN }

// LogQ returns the bit size of the ring modulus Q.
func (p Parameters) LogQ() int { return p.logQ }

// Qks returns the key switching modulus.
func (p Parameters) Qks() uint64 { return p.qks }

// LogQks returns log2(Qks).
func (p Parameters) LogQks() int { return Log2(p.qks) }

// Bg returns the gadget base of the accumulator.
func (p Parameters) Bg() uint64 { return p.bg }

// Bks returns the key switching base.
func (p Parameters) Bks() uint64 { return p.bks }

// Brk returns the refreshing key base.
func (p Parameters) Brk() uint64 { return p.brk }

// Sigma returns the error standard deviation.
func (p Parameters) Sigma() float64 { return p.sigma }

// DigitsG returns the number of gadget digits ceil(logQ / log2(Bg)).
func (p Parameters) DigitsG() int {
	return ceilDiv(p.logQ, Log2(p.bg))
}

// DigitsKS returns the number of key switching digits ceil(log2(Qks) / log2(Bks)).
func (p Parameters) DigitsKS() int {
	return ceilDiv(p.LogQks(), Log2(p.bks))
}

// Literal returns the literal of p.
func (p Parameters) Literal() ParametersLiteral {
	return ParametersLiteral{
		N:     p.n,
		Q:     p.q,
		RingN: p.ringN,
		LogQ:  p.logQ,
		Qks:   p.qks,
		Bg:    p.bg,
		Bks:   p.bks,
		Brk:   p.brk,
		Sigma: p.sigma,
	}
}

// Args renders p as the positional arguments "n q N logQ Qks Bg Bks Brk sigma"
// expected by the noise measurement harness.
func (p Parameters) Args() []string {
	return []string{
		strconv.Itoa(p.n),
		strconv.FormatUint(p.q, 10),
		strconv.Itoa(p.ringN),
		strconv.Itoa(p.logQ),
		strconv.FormatUint(p.qks, 10),
		strconv.FormatUint(p.bg, 10),
		strconv.FormatUint(p.bks, 10),
		strconv.FormatUint(p.brk, 10),
		strconv.FormatFloat(p.sigma, 'g', -1, 64),
	}
}

// Equal returns true if p and other are identical.
func (p Parameters) Equal(other Parameters) bool {
	return cmp.Equal(p.Literal(), other.Literal())
}

func (p Parameters) String() string {
	return fmt.Sprintf("n=%d q=%d N=%d logQ=%d Qks=2^%d Bg=2^%d Bks=2^%d Brk=2^%d sigma=%v",
		p.n, p.q, p.ringN, p.logQ, p.LogQks(), Log2(p.bg), Log2(p.bks), Log2(p.brk), p.sigma)
}

// IsPowerOfTwo reports whether x is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](x T) bool {
	return x > 0 && x&(x-1) == 0
}

// Log2 returns floor(log2(x)) for x > 0.
func Log2[T constraints.Unsigned](x T) int {
	return bits.Len64(uint64(x)) - 1
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
