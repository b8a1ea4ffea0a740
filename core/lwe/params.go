package lwe

type Parameters struct {
	n uint64 // for ciphertext dimension
	p uint64 // plaintext modulus
	q uint64 // ciphertext modulus
}

func NewParameters(n, q, p uint64) (params Parameters) {
	params = Parameters{
		n: n,
		q: q,
		p: p,
	}
	return params
}

func (param Parameters) N() uint64 {
	return param.n
}

func (param Parameters) P() uint64 {
	return param.p
}

func (param Parameters) Q() uint64 {
	return param.q
}

// WithQ returns a copy of the parameters with the ciphertext modulus replaced,
// as used after a modulus switch.
func (param Parameters) WithQ(q uint64) Parameters {
	param.q = q
	return param
}
