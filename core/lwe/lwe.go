// Package lwe implements the plain LWE layer of FHEW-like bootstrapping:
// encryption under small secrets, signed-digit key switching between LWE
// dimensions and modulus switching. It is used to sample the noise that the
// last stage of a gate bootstrapping adds on top of the accumulator noise.
package lwe

type Ciphertext struct {
	A []uint64
	B uint64 // b - a * s = Δm + e
}

func (ct *Ciphertext) GetA() []uint64 {
	return ct.A
}

func (ct *Ciphertext) GetB() uint64 {
	return ct.B
}

func NewCiphertext(n int) (ct *Ciphertext) {
	return &Ciphertext{
		A: make([]uint64, n),
		B: 0,
	}
}

// CopyNew returns a deep copy of ct.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	A := make([]uint64, len(ct.A))
	copy(A, ct.A)
	return &Ciphertext{A: A, B: ct.B}
}
