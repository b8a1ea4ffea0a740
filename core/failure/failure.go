// Package failure implements the Gaussian-tail approximation of the decryption
// failure rate of FHEW-like schemes and its inverse.
//
// A bootstrapped LWE ciphertext with plaintext modulus p and ciphertext modulus
// q decrypts correctly as long as the accumulated noise stays below q/(2p).
// Modelling the noise of a gate with comp inputs as a centred Gaussian of
// standard deviation sqrt(comp)*sigma, the probability of failure is
//
//	erfc( (q/(2p)) / (sqrt(2*comp) * sigma) ).
//
// All rates are handled as base-2 logarithms so that rates far below the
// float64 range (2^-1074) stay representable.
package failure

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// ErrInvalidArgument is returned when a formula is called outside its domain.
var ErrInvalidArgument = errors.New("invalid argument")

// DecryptionFailure returns log2 of the decryption failure probability of a
// gate with comp inputs, given the measured noise standard deviation, the
// plaintext modulus ptMod and the ciphertext modulus ctMod.
func DecryptionFailure(noiseStddev float64, ptMod, ctMod uint64, comp int) (float64, error) {

	if err := checkModuli(ptMod, ctMod, comp); err != nil {
		return 0, err
	}

	if !(noiseStddev > 0) || math.IsInf(noiseStddev, 0) {
		return 0, fmt.Errorf("%w: noise stddev must be positive and finite, got %v", ErrInvalidArgument, noiseStddev)
	}

	return Log2Erfc(bound(ptMod, ctMod) / (math.Sqrt(2*float64(comp)) * noiseStddev)), nil
}

// TargetNoise returns the largest noise standard deviation for which the
// decryption failure probability of a gate with comp inputs does not exceed
// 2^logFailure.
func TargetNoise(logFailure float64, ptMod, ctMod uint64, comp int) (float64, error) {

	if err := checkModuli(ptMod, ctMod, comp); err != nil {
		return 0, err
	}

	if !(logFailure < 0) {
		return 0, fmt.Errorf("%w: log2 failure rate must be negative, got %v", ErrInvalidArgument, logFailure)
	}

	return bound(ptMod, ctMod) / (math.Sqrt(2*float64(comp)) * ErfcinvLog2(logFailure)), nil
}

// Probability returns 2^log2p as a big.Float of the given precision.
func Probability(log2p float64, prec uint) *big.Float {
	two := new(big.Float).SetPrec(prec).SetInt64(2)
	w := new(big.Float).SetPrec(prec).SetFloat64(log2p)
	return bigfloat.Pow(two, w)
}

func bound(ptMod, ctMod uint64) float64 {
	return float64(ctMod) / float64(2*ptMod)
}

func checkModuli(ptMod, ctMod uint64, comp int) error {
	switch {
	case ptMod == 0:
		return fmt.Errorf("%w: plaintext modulus must be positive", ErrInvalidArgument)
	case ctMod < 2*ptMod:
		return fmt.Errorf("%w: ciphertext modulus %d smaller than 2*%d", ErrInvalidArgument, ctMod, ptMod)
	case comp < 1:
		return fmt.Errorf("%w: number of gate inputs must be positive, got %d", ErrInvalidArgument, comp)
	}
	return nil
}
