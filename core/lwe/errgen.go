package lwe

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

// NewRand returns a math/rand generator whose seed is drawn from a blake2b
// keyed PRNG, so that a given key always yields the same stream.
// The returned generator must not be shared between goroutines.
func NewRand(key []byte) (*rand.Rand, error) {
	prng, err := sampling.NewKeyedPRNG(key)
	if err != nil {
		return nil, fmt.Errorf("keyed prng: %w", err)
	}
	var seed [8]byte
	if _, err = prng.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("keyed prng: %w", err)
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))), nil
}

type ErrGen struct {
	stdev float64
	rng   *rand.Rand
}

func NewErrorGenerator(stdev float64, rng *rand.Rand) *ErrGen {
	return &ErrGen{stdev: stdev, rng: rng}
}

// GenErr returns a rounded Gaussian sample.
func (erg *ErrGen) GenErr() int64 {
	return int64(math.Round(erg.rng.NormFloat64() * erg.stdev))
}

func (erg *ErrGen) Stdev() float64 {
	return erg.stdev
}
