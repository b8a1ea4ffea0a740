package lwe

type Encoder struct {
	lweParam Parameters
}

func NewEncoder(lweParam Parameters) *Encoder {
	return &Encoder{lweParam: lweParam}
}

// Encode returns Δm + e + q/4p with Δ = q/2p. The q/4p offset centres the
// decoding interval so that negative errors decode correctly.
func (enc *Encoder) Encode(m uint64, e int64) uint64 {
	q := enc.lweParam.Q()
	p := enc.lweParam.P()

	err := reduce(e, q)
	enc_m := addMod(addMod(mulMod((q/(2*p))%q, m%q, q), err, q), (q/(4*p))%q, q)
	return enc_m
}

// Offset returns the noiseless encoding of m.
func (enc *Encoder) Offset(m uint64) uint64 {
	return enc.Encode(m, 0)
}
