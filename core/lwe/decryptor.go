package lwe

type Decryptor struct {
	lweParam Parameters
	sk       *SecretKey
}

func NewDecryptor(lweParam Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{
		lweParam: lweParam,
		sk:       sk,
	}
}

// DecryptNew returns the phase m = b - <a, s> mod q.
func (dec Decryptor) DecryptNew(ct *Ciphertext) uint64 {
	q := dec.lweParam.Q()
	return subMod(ct.B%q, dotMod(ct.A, dec.sk.Value, q), q)
}
