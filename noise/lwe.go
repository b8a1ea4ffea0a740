package noise

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/KAIST-CryptLab/binfhe-params/core/lwe"
	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
	"github.com/KAIST-CryptLab/binfhe-params/params"
)

// maxSimLogQ bounds the ring modulus that can be simulated with native
// modular arithmetic.
const maxSimLogQ = 62

// LWE measures noise by running the last stage of FHEW bootstrapping on
// actual ciphertexts: an extracted accumulator ciphertext of dimension N
// modulo Q, carrying the analytical accumulator noise, is switched to Qks,
// key switched to dimension n and switched to q. The noise is the
// difference between the decrypted phase and the encoded message.
type LWE struct {
	Dist    stdparams.DistType
	Workers int
	Seed    []byte
	Log     logrus.FieldLogger
}

// NewLWE returns an in-process sampler. workers <= 0 uses GOMAXPROCS.
func NewLWE(dist stdparams.DistType, workers int, seed []byte, log logrus.FieldLogger) *LWE {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &LWE{Dist: dist, Workers: workers, Seed: seed, Log: logutil.OrDiscard(log)}
}

// keys shared read-only by the workers of one measurement.
type lweKeys struct {
	skN, skn *lwe.SecretKey
}

func (s *LWE) newRand(p params.Parameters, stream uint64) (*rand.Rand, error) {
	key := make([]byte, 0, len(s.Seed)+24)
	key = append(key, s.Seed...)
	key = binary.LittleEndian.AppendUint64(key, uint64(p.N()))
	key = binary.LittleEndian.AppendUint64(key, uint64(p.RingN()))
	key = binary.LittleEndian.AppendUint64(key, stream)
	return lwe.NewRand(key)
}

func (s *LWE) Sample(ctx context.Context, p params.Parameters, samples int) (Measurement, error) {

	if samples < 2 {
		return Measurement{}, fmt.Errorf("%w: requested %d", ErrNoSamples, samples)
	}

	if s.Dist == stdparams.Uniform {
		return Measurement{}, fmt.Errorf("uniform secrets cannot be simulated")
	}

	if p.LogQ() > maxSimLogQ {
		return Measurement{}, fmt.Errorf("logQ = %d exceeds %d, cannot simulate", p.LogQ(), maxSimLogQ)
	}

	rng, err := s.newRand(p, 0)
	if err != nil {
		return Measurement{}, err
	}

	errgen := lwe.NewErrorGenerator(p.Sigma(), rng)

	var keys lweKeys
	if keys.skN, err = lwe.GenSecretKey(p.RingN(), s.Dist, uint64(1)<<p.LogQ(), rng, errgen); err != nil {
		return Measurement{}, err
	}
	if keys.skn, err = lwe.GenSecretKey(p.N(), s.Dist, p.Qks(), rng, errgen); err != nil {
		return Measurement{}, err
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > samples {
		workers = samples
	}

	start := time.Now()
	values := make([]float64, samples)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			lo, hi := w*samples/workers, (w+1)*samples/workers
			return s.work(ctx, p, keys, uint64(w+1), values[lo:hi])
		})
	}

	if err := g.Wait(); err != nil {
		return Measurement{}, err
	}

	m, err := Summarize(values)
	if err != nil {
		return Measurement{}, err
	}

	logutil.OrDiscard(s.Log).WithFields(logrus.Fields{
		"n":       p.N(),
		"N":       p.RingN(),
		"samples": samples,
		"noise":   m.Stddev,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("simulated noise")

	return m, nil
}

func (s *LWE) work(ctx context.Context, p params.Parameters, keys lweKeys, stream uint64, out []float64) error {

	rng, err := s.newRand(p, stream)
	if err != nil {
		return err
	}

	Q := uint64(1) << p.LogQ()

	paramsQ := lwe.NewParameters(uint64(p.RingN()), Q, 2)
	paramsQKSIn := lwe.NewParameters(uint64(p.RingN()), p.Qks(), 2)
	paramsQKS := lwe.NewParameters(uint64(p.N()), p.Qks(), 2)
	paramsq := paramsQKS.WithQ(p.Q())

	errgen := lwe.NewErrorGenerator(p.Sigma(), rng)
	accErr := lwe.NewErrorGenerator(math.Sqrt(Analytical{}.Predict(p).AccumulatorQ), rng)

	encAcc := lwe.NewEncryptor(paramsQ, keys.skN, rng)
	encKS := lwe.NewEncryptor(paramsQKS, keys.skn, rng)

	ks, err := lwe.NewKeySwitcher(p.Bks(), keys.skN, encKS, errgen)
	if err != nil {
		return err
	}

	encoder := lwe.NewEncoder(paramsQ)
	decoder := lwe.NewDecoder(paramsq)
	dec := lwe.NewDecryptor(paramsq, keys.skn)

	for i := range out {

		if i%16 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		m := rng.Uint64() % 4

		ct := encAcc.EncryptNew(encoder.Encode(m, accErr.GenErr()))
		ct = lwe.ModSwitch(ct, paramsQKSIn, Q)
		ct = ks.KeySwitch(ct)
		ct = lwe.ModSwitch(ct, paramsq, p.Qks())

		out[i] = float64(decoder.Error(dec.DecryptNew(ct), m))
	}

	return nil
}
