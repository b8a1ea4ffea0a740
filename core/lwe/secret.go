package lwe

import (
	"fmt"
	"math/rand"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
)

// SecretKey is an LWE secret with small signed coefficients, or centred
// coefficients in (-q/2, q/2] for uniform secrets.
type SecretKey struct {
	Value []int64
}

// GenSecretKey samples a secret of dimension n from dist. The error
// generator is only used for stdparams.Error, q only for stdparams.Uniform.
func GenSecretKey(n int, dist stdparams.DistType, q uint64, rng *rand.Rand, errgen *ErrGen) (*SecretKey, error) {

	s := make([]int64, n)

	switch dist {
	case stdparams.Ternary:
		for i := range s {
			s[i] = int64(rng.Intn(3)) - 1
		}
	case stdparams.Error:
		for i := range s {
			s[i] = errgen.GenErr()
		}
	case stdparams.Uniform:
		for i := range s {
			s[i] = Centered(rng.Uint64()%q, q)
		}
	default:
		return nil, fmt.Errorf("invalid distribution for secret: %v", dist)
	}

	return &SecretKey{Value: s}, nil
}
