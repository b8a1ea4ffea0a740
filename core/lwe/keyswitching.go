package lwe

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v5/utils/bignum"
)

// DecompositionDigits returns the number of signed base-B digits used to
// decompose values mod Q: ceil(log_B(Q)) plus one digit absorbing the carry.
func DecompositionDigits(Q, B uint64) int {
	d := 0
	for x := uint64(1); x < Q; d++ {
		if x > (^uint64(0))/B {
			d++
			break
		}
		x *= B
	}
	return d + 1
}

// Decompose returns the signed base-B digits of n, each in [-B/2, B/2).
// B must be a power of two and Q must divide B^dKS.
func Decompose(n, B uint64, dKS int) []int64 {
	base_log := uint64(0)
	for (uint64(1) << base_log) < B {
		base_log++
	}
	digit_mask := B - 1
	base_over_2_threshold := int64(B >> 1)
	carry := uint64(0)

	digits := make([]int64, dKS)

	for j := 0; j < dKS; j++ {
		var unsigned_digit uint64
		if shift := uint64(j) * base_log; shift < 64 {
			unsigned_digit = (n >> shift) & digit_mask
		}
		unsigned_digit += carry
		carry = 0

		signed_digit := int64(unsigned_digit)
		if signed_digit >= base_over_2_threshold {
			signed_digit -= int64(B)
			carry = 1
		}

		digits[j] = signed_digit
	}

	return digits
}

// KeySwitchingKey switches LWE ciphertexts from an input secret of dimension
// N to the secret of the encryptor. Value[i][j][k] encrypts
// (k - B/2) * B^j * s_i; the zero digit k = B/2 is nil.
type KeySwitchingKey struct {
	Base   uint64
	Digits int
	Value  [][][]*Ciphertext
}

func gadgetPowers(B, Q uint64, dKS int) []uint64 {
	powers := make([]uint64, dKS)
	pow := uint64(1) % Q
	for j := range powers {
		powers[j] = pow
		pow = mulMod(pow, B%Q, Q)
	}
	return powers
}

func digitMessage(d int64, power uint64, si int64, e int64, Q uint64) uint64 {
	m := mulMod(mulMod(reduce(d, Q), power, Q), reduce(si, Q), Q)
	return addMod(m, reduce(e, Q), Q)
}

// GenKeySwitchingKey generates the full key switching key from skIn to the
// encryptor's secret, with precomputed multiples of every digit value.
func GenKeySwitchingKey(BKS uint64, skIn *SecretKey, enc *Encryptor, errgen *ErrGen) (*KeySwitchingKey, error) {

	QKS := enc.lweParam.Q()
	if BKS < 2 || BKS&(BKS-1) != 0 {
		return nil, fmt.Errorf("key switching base must be a power of two, got %d", BKS)
	}

	dKS := DecompositionDigits(QKS, BKS)
	powers := gadgetPowers(BKS, QKS, dKS)

	value := make([][][]*Ciphertext, len(skIn.Value))
	for i, si := range skIn.Value {
		value[i] = make([][]*Ciphertext, dKS)
		for j := 0; j < dKS; j++ {
			value[i][j] = make([]*Ciphertext, BKS)
			for k := uint64(0); k < BKS; k++ {
				d := int64(k) - int64(BKS/2)
				if d == 0 {
					continue
				}
				value[i][j][k] = enc.EncryptNew(digitMessage(d, powers[j], si, errgen.GenErr(), QKS))
			}
		}
	}

	return &KeySwitchingKey{Base: BKS, Digits: dKS, Value: value}, nil
}

// KeySwitch switches ct, encrypted mod QKS under the input secret of the key,
// to a ciphertext of dimension n under the output secret.
func KeySwitch(ct *Ciphertext, ksk *KeySwitchingKey, QKS uint64) (ct_ks *Ciphertext) {

	// k = 0 encodes the digit -B/2 and is always present.
	acc := NewCiphertext(len(ksk.Value[0][0][0].A))

	for i, ai := range ct.A {
		for j, d := range Decompose(ai, ksk.Base, ksk.Digits) {
			if d == 0 {
				continue
			}
			entry := ksk.Value[i][j][d+int64(ksk.Base/2)]
			for w := range acc.A {
				acc.A[w] = addMod(acc.A[w], entry.A[w], QKS)
			}
			acc.B = addMod(acc.B, entry.B, QKS)
		}
	}

	return finishKeySwitch(ct, acc, QKS)
}

// (-acc.A, b - acc.B) decrypts to the phase of ct under the output secret.
func finishKeySwitch(ct, acc *Ciphertext, QKS uint64) *Ciphertext {
	for w := range acc.A {
		acc.A[w] = subMod(0, acc.A[w], QKS)
	}
	acc.B = subMod(ct.B%QKS, acc.B, QKS)
	return acc
}

// KeySwitcher performs the same key switching as KeySwitch but generates
// only the key entries selected by the digits of each input, fresh for
// every call. The output noise has the same distribution as with a stored
// key while memory stays O(n).
type KeySwitcher struct {
	enc    *Encryptor
	skIn   *SecretKey
	errgen *ErrGen
	base   uint64
	digits int
	powers []uint64
}

func NewKeySwitcher(BKS uint64, skIn *SecretKey, enc *Encryptor, errgen *ErrGen) (*KeySwitcher, error) {
	QKS := enc.lweParam.Q()
	if BKS < 2 || BKS&(BKS-1) != 0 {
		return nil, fmt.Errorf("key switching base must be a power of two, got %d", BKS)
	}
	dKS := DecompositionDigits(QKS, BKS)
	return &KeySwitcher{
		enc:    enc,
		skIn:   skIn,
		errgen: errgen,
		base:   BKS,
		digits: dKS,
		powers: gadgetPowers(BKS, QKS, dKS),
	}, nil
}

func (ks *KeySwitcher) KeySwitch(ct *Ciphertext) *Ciphertext {

	QKS := ks.enc.lweParam.Q()
	acc := NewCiphertext(int(ks.enc.lweParam.N()))

	for i, ai := range ct.A {
		si := ks.skIn.Value[i]
		for j, d := range Decompose(ai, ks.base, ks.digits) {
			if d == 0 {
				continue
			}
			ks.enc.accumulate(acc, digitMessage(d, ks.powers[j], si, ks.errgen.GenErr(), QKS))
		}
	}

	return finishKeySwitch(ct, acc, QKS)
}

// ModSwitch rescales ct from modulus Q to the modulus of paramsLWE, rounding
// each coefficient to the nearest integer.
func ModSwitch(ct *Ciphertext, paramsLWE Parameters, Q uint64) (ct_switch *Ciphertext) {
	q := paramsLWE.Q()
	ct_switch = NewCiphertext(len(ct.A))

	qBig := bignum.NewInt(q)
	QBig := bignum.NewInt(Q)
	tmp := new(big.Int)

	rescale := func(x uint64) uint64 {
		tmp.SetUint64(x)
		tmp.Mul(tmp, qBig)
		bignum.DivRound(tmp, QBig, tmp)
		return tmp.Uint64() % q
	}

	for i := range ct.A {
		ct_switch.A[i] = rescale(ct.A[i])
	}
	ct_switch.B = rescale(ct.B)
	return
}
