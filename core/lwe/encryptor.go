package lwe

import (
	"math/rand"
)

type Encryptor struct {
	lweParam Parameters
	sk       *SecretKey
	rng      *rand.Rand
}

func NewEncryptor(lweParam Parameters, sk *SecretKey, rng *rand.Rand) *Encryptor {
	return &Encryptor{
		lweParam: lweParam,
		sk:       sk,
		rng:      rng,
	}
}

// m includes error term
func (enc Encryptor) EncryptNew(m uint64) (ct *Ciphertext) {

	lweParam := enc.lweParam
	q := lweParam.Q()
	n := lweParam.N()

	// generate new coefficient for encrypting
	a := make([]uint64, n)
	for i := range a {
		a[i] = enc.rng.Uint64() % q
	}

	// calculate b = a * s + m
	b := addMod(dotMod(a, enc.sk.Value, q), m%q, q)

	return &Ciphertext{A: a, B: b}
}

// accumulate adds a fresh encryption of m to acc without allocating it.
func (enc Encryptor) accumulate(acc *Ciphertext, m uint64) {

	q := enc.lweParam.Q()

	var dot uint64
	for i, si := range enc.sk.Value {
		a := enc.rng.Uint64() % q
		acc.A[i] = addMod(acc.A[i], a, q)
		switch {
		case si == 0:
		case si == 1:
			dot = addMod(dot, a, q)
		case si == -1:
			dot = subMod(dot, a, q)
		default:
			dot = addMod(dot, mulMod(a, reduce(si, q), q), q)
		}
	}

	acc.B = addMod(acc.B, addMod(dot, m%q, q), q)
}
