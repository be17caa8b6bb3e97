package polynomial

import (
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/sample"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

func TestLagrange(t *testing.T) {
	group := curve.Secp256k1{}
	N := 10
	allIDs := make([]party.ID, N)
	for i := range allIDs {
		allIDs[i] = party.ID(fmt.Sprintf("party-%d", i))
	}
	coefsEven := Lagrange(group, allIDs)
	coefsOdd := Lagrange(group, allIDs[:N-1])
	sumEven := group.NewScalar()
	sumOdd := group.NewScalar()
	for _, c := range coefsEven {
		sumEven.Add(c)
	}
	for _, c := range coefsOdd {
		sumOdd.Add(c)
	}
	assert.True(t, sumEven.Equal(one(group)))
	assert.True(t, sumOdd.Equal(one(group)))
}

func TestLagrange_Interpolate(t *testing.T) {
	group := curve.Secp256k1{}
	secret := sample.Scalar(rand.Reader, group)
	poly := NewPolynomial(rand.Reader, group, 2, secret)
	ids := []party.ID{"a", "b", "c", "d"}

	// any 3 points determine the degree 2 polynomial
	signers := ids[1:]
	coefs := Lagrange(group, signers)
	result := group.NewScalar()
	for _, id := range signers {
		share := poly.Evaluate(id.Scalar(group))
		result.Add(share.Mul(coefs[id]))
	}
	assert.True(t, result.Equal(secret))
}

func TestLagrangeAt(t *testing.T) {
	group := curve.Secp256k1{}
	poly := NewPolynomial(rand.Reader, group, 2, sample.Scalar(rand.Reader, group))
	domain := []party.ID{"a", "b", "c"}

	for _, at := range []party.ID{"d", "e"} {
		coefs := LagrangeAt(group, domain, at)
		result := group.NewScalar()
		for _, id := range domain {
			share := poly.Evaluate(id.Scalar(group))
			result.Add(share.Mul(coefs[id]))
		}
		assert.True(t, result.Equal(poly.Evaluate(at.Scalar(group))), "interpolation at %s", at)
	}
}
