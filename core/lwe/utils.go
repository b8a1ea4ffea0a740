package lwe

import (
	"math/bits"

	"github.com/tuneinsight/lattigo/v5/ring"
)

// reduce maps a signed value to [0, q).
func reduce(x int64, q uint64) uint64 {
	if x >= 0 {
		return uint64(x) % q
	}
	r := uint64(-x) % q
	if r == 0 {
		return 0
	}
	return q - r
}

// mulMod returns a*b mod q for a, b < q.
func mulMod(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, q)
}

func addMod(a, b, q uint64) uint64 {
	if q > 1<<63 {
		s, carry := bits.Add64(a, b, 0)
		if carry != 0 || s >= q {
			s -= q
		}
		return s
	}
	return ring.CRed(a+b, q)
}

func subMod(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return q - (b - a)
}

// dotMod returns <a, s> mod q where s holds small signed coefficients.
func dotMod(a []uint64, s []int64, q uint64) (acc uint64) {
	for i, si := range s {
		switch {
		case si == 0:
		case si == 1:
			acc = addMod(acc, a[i], q)
		case si == -1:
			acc = subMod(acc, a[i], q)
		default:
			acc = addMod(acc, mulMod(a[i], reduce(si, q), q), q)
		}
	}
	return
}

// Centered returns the representative of x mod q in [-q/2, q/2).
func Centered(x, q uint64) int64 {
	x %= q
	if x >= q-q/2 {
		return -int64(q - x)
	}
	return int64(x)
}
