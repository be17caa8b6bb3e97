package polynomial

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
)

func TestPolynomial_Constant(t *testing.T) {
	group := curve.Secp256k1{}
	deg := 10
	secret := sample.Scalar(rand.Reader, group)
	poly := NewPolynomial(rand.Reader, group, deg, secret)
	require.True(t, poly.Constant().Equal(secret))
	assert.Equal(t, uint32(deg), poly.Degree())
}

func TestPolynomial_Evaluate(t *testing.T) {
	group := curve.Secp256k1{}
	scalarFromUint := func(x uint64) curve.Scalar {
		return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(x))
	}
	// f(X) = 1 + X²
	polynomial := &Polynomial{group, []curve.Scalar{scalarFromUint(1), scalarFromUint(0), scalarFromUint(1)}}

	for index := 0; index < 100; index++ {
		x := uint64(mrand.Uint32()) + 1
		result := new(big.Int).SetUint64(x)
		result.Mul(result, result)
		result.Add(result, big.NewInt(1))
		computedResult := polynomial.Evaluate(scalarFromUint(x))
		expectedResult := group.NewScalar().SetNat(new(saferith.Nat).SetBig(result, result.BitLen()))
		assert.True(t, expectedResult.Equal(computedResult))
	}
}

func TestPolynomial_EvaluateZeroPanics(t *testing.T) {
	group := curve.Secp256k1{}
	poly := NewPolynomial(rand.Reader, group, 2, nil)
	assert.Panics(t, func() { poly.Evaluate(group.NewScalar()) })
}
