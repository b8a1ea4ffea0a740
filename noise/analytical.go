package noise

import (
	"context"
	"math"

	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// Analytical predicts the output noise of GINX bootstrapping with ternary
// secrets instead of measuring it.
type Analytical struct{}

// Components are the variances, in units of the key switching modulus, that
// add up to the bootstrapped noise.
type Components struct {
	AccumulatorQ float64 // accumulator variance in units of Q
	Accumulator  float64 // accumulator variance scaled from Q to Qks
	KeySwitch    float64 // key switching from N to n
	ModSwitchQks float64 // rounding from Q to Qks
	ModSwitchQ   float64 // rounding from Qks to q, in units of q
	ScaleQksToQ  float64 // q^2 / Qks^2
}

// Variance returns the total variance in units of q.
func (c Components) Variance() float64 {
	return c.ScaleQksToQ*(c.Accumulator+c.KeySwitch+c.ModSwitchQks) + c.ModSwitchQ
}

// Predict returns the variance components for p.
func (Analytical) Predict(p params.Parameters) Components {

	const u = 2

	n := float64(p.N())
	N := float64(p.RingN())
	q := float64(p.Q())
	Q := math.Exp2(float64(p.LogQ()))
	Qks := float64(p.Qks())
	Bg := float64(p.Bg())
	sigmasq := p.Sigma() * p.Sigma()

	acc := math.Floor(2 * u * float64(p.DigitsG()) * n * N * Bg * Bg * sigmasq / 6)

	return Components{
		AccumulatorQ: acc,
		Accumulator:  (Qks * Qks) / (Q * Q) * acc,
		KeySwitch:    sigmasq * N * float64(p.DigitsKS()),
		ModSwitchQks: math.Floor((N + 2) / 6),
		ModSwitchQ:   math.Floor((n + 2) / 6),
		ScaleQksToQ:  (q * q) / (Qks * Qks),
	}
}

// Stddev returns the predicted standard deviation of the noise in units of q.
func (a Analytical) Stddev(p params.Parameters) float64 {
	return math.Sqrt(a.Predict(p).Variance())
}

// Sample returns the prediction; samples is ignored.
func (a Analytical) Sample(ctx context.Context, p params.Parameters, samples int) (Measurement, error) {
	if err := ctx.Err(); err != nil {
		return Measurement{}, err
	}
	return Measurement{Stddev: a.Stddev(p)}, nil
}
