package lwe

type Decoder struct {
	lweParam Parameters
}

func NewDecoder(lweParam Parameters) *Decoder {
	return &Decoder{lweParam: lweParam}
}

func (dec *Decoder) Decode(m uint64) uint64 {
	q := dec.lweParam.Q()
	p := dec.lweParam.P()

	dec_m := (m % q) / (q / (2 * p))
	return dec_m
}

// Error returns the centred difference between a decrypted phase and the
// noiseless encoding of m.
func (dec *Decoder) Error(phase, m uint64) int64 {
	q := dec.lweParam.Q()
	return Centered(subMod(phase%q, NewEncoder(dec.lweParam).Offset(m), q), q)
}
