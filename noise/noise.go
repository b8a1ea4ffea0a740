// Package noise measures the noise of bootstrapped FHEW ciphertexts for a
// given parameter set, either by running the external bootstrapping harness
// (Command), by simulating the final key switching and modulus switching
// steps in process (LWE) or from the closed-form estimate (Analytical).
package noise

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// ErrNoSamples is returned when fewer than two noise values are available.
var ErrNoSamples = errors.New("not enough noise samples")

// Performance holds the figures reported by the bootstrapping harness.
// Sizes are in bytes; times are kept verbatim.
type Performance struct {
	BootstrappingKeySize uint64 `yaml:"bootstrapping_key_size,omitempty"`
	KeySwitchingKeySize  uint64 `yaml:"key_switching_key_size,omitempty"`
	CiphertextSize       uint64 `yaml:"ciphertext_size,omitempty"`
	BootstrapKeyGenTime  string `yaml:"bootstrap_keygen_time,omitempty"`
	EvalBinGateTime      string `yaml:"eval_bin_gate_time,omitempty"`
}

// IsZero reports whether no figure was reported.
func (p Performance) IsZero() bool {
	return p == Performance{}
}

// Measurement is the outcome of one noise measurement.
type Measurement struct {
	Stddev      float64     `yaml:"stddev"`
	Mean        float64     `yaml:"mean"`
	Samples     int         `yaml:"samples"`
	Performance Performance `yaml:"performance,omitempty"`
}

// Sampler measures the noise of bootstrapped ciphertexts.
type Sampler interface {
	Sample(ctx context.Context, p params.Parameters, samples int) (Measurement, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, p params.Parameters, samples int) (Measurement, error)

func (f SamplerFunc) Sample(ctx context.Context, p params.Parameters, samples int) (Measurement, error) {
	return f(ctx, p, samples)
}

// ParsePerformance reads "Key:value" lines. Unknown keys are ignored.
func ParsePerformance(r io.Reader) (perf Performance, err error) {

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {

		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		var size *uint64
		switch key {
		case "BootstrappingKeySize":
			size = &perf.BootstrappingKeySize
		case "KeySwitchingKeySize":
			size = &perf.KeySwitchingKeySize
		case "CiphertextSize":
			size = &perf.CiphertextSize
		case "BootstrapKeyGenTime":
			perf.BootstrapKeyGenTime = value
		case "EvalBinGateTime":
			perf.EvalBinGateTime = value
		}

		if size != nil {
			// "123456 bytes" and "123456" are both accepted.
			field, _, _ := strings.Cut(value, " ")
			if *size, err = strconv.ParseUint(field, 10, 64); err != nil {
				return Performance{}, fmt.Errorf("parsing %s: %w", key, err)
			}
		}
	}

	return perf, scanner.Err()
}

// ParseValues reads one float per line, skipping blank lines.
func ParseValues(r io.Reader) ([]float64, error) {

	var values []float64

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}

	return values, scanner.Err()
}

// Summarize returns the sample standard deviation and mean of values.
func Summarize(values []float64) (Measurement, error) {

	if len(values) < 2 {
		return Measurement{}, fmt.Errorf("%w: got %d", ErrNoSamples, len(values))
	}

	data := stats.Float64Data(values)

	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return Measurement{}, err
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return Measurement{}, err
	}

	return Measurement{Stddev: sd, Mean: mean, Samples: len(values)}, nil
}

// StdDev returns the sample standard deviation of values.
func StdDev(values []float64) (float64, error) {
	m, err := Summarize(values)
	return m.Stddev, err
}
