package arith

import (
	"io"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
)

func sampleNat(r io.Reader, bytes int) *saferith.Nat {
	buf := make([]byte, bytes)
	_, _ = io.ReadFull(r, buf)
	buf[len(buf)-1] |= 1
	return new(saferith.Nat).SetBytes(buf)
}

func sampleCoprime(r io.Reader) (*saferith.Nat, *saferith.Nat, *saferith.Modulus) {
	a := sampleNat(r, 128)
	b := sampleNat(r, 128)
	for b.Coprime(a) != 1 {
		b = sampleNat(r, 128)
	}
	cNat := new(saferith.Nat).Mul(a, b, -1)
	return a, b, saferith.ModulusFromNat(cNat)
}

func TestModulus_Exp(t *testing.T) {
	r := mrand.New(mrand.NewSource(0))
	a, b, c := sampleCoprime(r)

	cFast := ModulusFromFactors(a, b)
	cSlow := ModulusFromN(c)
	assert.True(t, cFast.Nat().Eq(cSlow.Nat()) == 1, "n moduli should be the same")

	x := new(saferith.Nat).Mod(sampleNat(r, 256), c)
	e := sampleNat(r, 96)
	eNeg := new(saferith.Int).SetNat(e).Neg(1)

	yExpected := new(saferith.Nat).Exp(x, e, c)
	yFast := cFast.Exp(x, e)
	ySlow := cSlow.Exp(x, e)
	assert.True(t, yExpected.Eq(yFast) == 1, "exponentiation with acceleration should give the same result")
	assert.True(t, yExpected.Eq(ySlow) == 1, "exponentiation without acceleration should give the same result")

	if x.IsUnit(c) == 1 {
		yExpected.ExpI(x, eNeg, c)
		yFast = cFast.ExpI(x, eNeg)
		ySlow = cSlow.ExpI(x, eNeg)
		assert.True(t, yExpected.Eq(yFast) == 1, "negative exponentiation with acceleration should give the same result")
		assert.True(t, yExpected.Eq(ySlow) == 1, "negative exponentiation without acceleration should give the same result")
	}
}

func TestIntervals(t *testing.T) {
	small := new(saferith.Int).SetUint64(12345)
	assert.True(t, IsInIntervalLEps(small))
	assert.True(t, IsInIntervalLPrimeEps(small.Clone().Neg(1)))
	assert.False(t, IsInIntervalLEps(nil))

	big := new(saferith.Int).SetNat(new(saferith.Nat).Lsh(new(saferith.Nat).SetUint64(1), 800, -1))
	assert.False(t, IsInIntervalLEps(big))
	assert.True(t, IsInIntervalLPrimeEps(big))

	N := saferith.ModulusFromUint64(35)
	assert.True(t, IsValidNatModN(N, new(saferith.Nat).SetUint64(2)))
	assert.False(t, IsValidNatModN(N, new(saferith.Nat).SetUint64(7)))
	assert.False(t, IsValidNatModN(N, new(saferith.Nat).SetUint64(36)))
	assert.False(t, IsValidNatModN(N, nil))
}
